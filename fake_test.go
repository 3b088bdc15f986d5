package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"nativeDbg/config"
	"nativeDbg/native"
)

var errInjected = errors.New("injected failure")

// fakeTarget is a sparse big-endian memory with registers. Execute runs
// onExecute, which plays the native being called.
type fakeTarget struct {
	mem       map[uint64]byte
	regs      map[int]uint64
	fail      bool
	regReads  int
	calls     [][2]uint32
	onExecute func(f *fakeTarget, fn, arg uint32)
}

func newFakeTarget() *fakeTarget {
	return &fakeTarget{mem: map[uint64]byte{}, regs: map[int]uint64{}}
}

func (f *fakeTarget) GetMemory(size uint, addr uintptr) ([]byte, error) {
	if f.fail {
		return nil, errInjected
	}
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = f.mem[uint64(addr)+uint64(i)]
	}
	return buf, nil
}

func (f *fakeTarget) SetMemory(data []byte, addr uintptr) error {
	if f.fail {
		return errInjected
	}
	for i, b := range data {
		f.mem[uint64(addr)+uint64(i)] = b
	}
	return nil
}

func (f *fakeTarget) ReadReg(n int) (uint64, error) {
	f.regReads++
	return f.regs[n], nil
}

func (f *fakeTarget) Interrupt() error {
	return nil
}

func (f *fakeTarget) Execute(fn, arg uint32) error {
	f.calls = append(f.calls, [2]uint32{fn, arg})
	if f.onExecute != nil {
		f.onExecute(f, fn, arg)
	}
	return nil
}

func (f *fakeTarget) put32(addr uint32, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	f.SetMemory(b[:], uintptr(addr))
}

func (f *fakeTarget) word(addr uint32) uint32 {
	b, _ := f.GetMemory(4, uintptr(addr))
	return binary.BigEndian.Uint32(b)
}

func (f *fakeTarget) putTable(base uint32, entries [][2]uint32) {
	for i, e := range entries {
		f.put32(base+uint32(i)*8, e[0])
		f.put32(base+uint32(i)*8+4, e[1])
	}
	f.put32(base+uint32(len(entries))*8, 0)
}

// newTestDbg wires a NativeDbg to a fake target with default config and
// captures command output.
func newTestDbg(t *testing.T) (*NativeDbg, *fakeTarget, *bytes.Buffer) {
	t.Helper()

	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("config.Default: %v", err)
	}
	f := newFakeTarget()
	inv := native.New(native.NewMemoryTarget(f, binary.BigEndian, f), native.WithLayout(cfg.NativeLayout()))
	t.Cleanup(func() { inv.Close() })

	d, err := NewNativeDbg(f, inv, cfg)
	if err != nil {
		t.Fatalf("NewNativeDbg: %v", err)
	}
	d.progress = io.Discard

	buf := &bytes.Buffer{}
	prev := out
	out = buf
	t.Cleanup(func() { out = prev })

	return d, f, buf
}
