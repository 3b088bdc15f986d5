package native

import (
	"encoding/binary"
	"errors"
	"sync"
)

var errInjected = errors.New("injected failure")

// memory is a sparse big-endian address space; unset bytes read as zero.
type memory struct {
	mu    sync.Mutex
	bytes map[uint32]byte
}

func newMemory() *memory {
	return &memory{bytes: make(map[uint32]byte)}
}

func (m *memory) GetMemory(size uint, addr uintptr) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data := make([]byte, size)
	for i := range data {
		data[i] = m.bytes[uint32(addr)+uint32(i)]
	}
	return data, nil
}

func (m *memory) SetMemory(data []byte, addr uintptr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range data {
		m.bytes[uint32(addr)+uint32(i)] = b
	}
	return nil
}

func (m *memory) putUint32(addr, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	m.SetMemory(buf[:], uintptr(addr))
}

func (m *memory) uint32At(addr uint32) uint32 {
	data, _ := m.GetMemory(4, uintptr(addr))
	return binary.BigEndian.Uint32(data)
}

func (m *memory) stringAt(addr uint32) string {
	var out []byte
	for {
		data, _ := m.GetMemory(1, uintptr(addr))
		if data[0] == 0 {
			return string(out)
		}
		out = append(out, data[0])
		addr++
	}
}

// putTable writes (hash, address) records followed by a zero-hash sentinel.
func (m *memory) putTable(base uint32, entries []Entry, sentinel bool) {
	for i, e := range entries {
		m.putUint32(base+uint32(i)*8, e.Hash)
		m.putUint32(base+uint32(i)*8+4, e.Address)
	}
	if sentinel {
		end := base + uint32(len(entries))*8
		m.putUint32(end, 0)
		m.putUint32(end+4, 0)
	}
}

type op struct {
	name  string
	addr  uint32
	value uint32
}

type executed struct {
	fn, arg uint32
}

// fakeTarget records every primitive and can be told to fail. FailOn limits
// the failure to one primitive name; empty fails everything.
type fakeTarget struct {
	mem       *memory
	inner     Target
	Fail      bool
	FailOn    string
	Error     error
	OnExecute func(fn, arg uint32) error

	mu    sync.Mutex
	ops   []op
	execs []executed
}

func newFakeTarget() *fakeTarget {
	mem := newMemory()
	t := &fakeTarget{mem: mem}
	t.inner = NewMemoryTarget(mem, binary.BigEndian, ExecutorFunc(func(fn, arg uint32) error {
		t.mu.Lock()
		t.execs = append(t.execs, executed{fn, arg})
		t.mu.Unlock()
		if t.OnExecute != nil {
			return t.OnExecute(fn, arg)
		}
		return nil
	}))
	return t
}

func (t *fakeTarget) record(name string, addr, value uint32) error {
	t.mu.Lock()
	t.ops = append(t.ops, op{name, addr, value})
	t.mu.Unlock()
	if t.Fail && (t.FailOn == "" || t.FailOn == name) {
		if t.Error != nil {
			return t.Error
		}
		return errInjected
	}
	return nil
}

func (t *fakeTarget) ReadUInt32(addr uint32) (uint32, error) {
	if err := t.record("read", addr, 0); err != nil {
		return 0, err
	}
	return t.inner.ReadUInt32(addr)
}

func (t *fakeTarget) WriteUInt32(addr, value uint32) error {
	if err := t.record("write", addr, value); err != nil {
		return err
	}
	return t.inner.WriteUInt32(addr, value)
}

func (t *fakeTarget) WriteFloat(addr uint32, value float32) error {
	if err := t.record("writef", addr, 0); err != nil {
		return err
	}
	return t.inner.WriteFloat(addr, value)
}

func (t *fakeTarget) WriteBytes(addr uint32, data []byte) error {
	if err := t.record("bytes", addr, uint32(len(data))); err != nil {
		return err
	}
	return t.inner.WriteBytes(addr, data)
}

func (t *fakeTarget) WriteString(addr uint32, s string) error {
	if err := t.record("string", addr, uint32(len(s))); err != nil {
		return err
	}
	return t.inner.WriteString(addr, s)
}

func (t *fakeTarget) Execute(fn, arg uint32) error {
	if err := t.record("execute", fn, arg); err != nil {
		return err
	}
	return t.inner.Execute(fn, arg)
}

func (t *fakeTarget) opNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.ops))
	for i, o := range t.ops {
		names[i] = o.name
	}
	return names
}

func (t *fakeTarget) opCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.ops)
}

func (t *fakeTarget) resetOps() {
	t.mu.Lock()
	t.ops = nil
	t.execs = nil
	t.mu.Unlock()
}
