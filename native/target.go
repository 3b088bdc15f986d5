package native

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Target is the set of remote primitives the invoker is built on. Addresses
// are 32-bit; the byte order is the target's concern.
type Target interface {
	ReadUInt32(addr uint32) (uint32, error)
	WriteUInt32(addr, value uint32) error
	WriteFloat(addr uint32, value float32) error
	WriteBytes(addr uint32, data []byte) error
	// WriteString writes s followed by a NUL terminator.
	WriteString(addr uint32, s string) error
	// Execute runs the function at fn with arg as its only parameter. The
	// function's own return value is not reported.
	Execute(fn, arg uint32) error
}

type Memory interface {
	GetMemory(size uint, addr uintptr) ([]byte, error)
	SetMemory(data []byte, addr uintptr) error
}

type Executor interface {
	Execute(fn, arg uint32) error
}

type ExecutorFunc func(fn, arg uint32) error

func (f ExecutorFunc) Execute(fn, arg uint32) error {
	return f(fn, arg)
}

type memoryTarget struct {
	mem   Memory
	order binary.ByteOrder
	exec  Executor
}

// NewMemoryTarget builds a Target from byte-level memory access and an
// executor. A nil order means big-endian.
func NewMemoryTarget(mem Memory, order binary.ByteOrder, exec Executor) Target {
	if order == nil {
		order = binary.BigEndian
	}
	return &memoryTarget{mem: mem, order: order, exec: exec}
}

func (t *memoryTarget) ReadUInt32(addr uint32) (uint32, error) {
	data, err := t.mem.GetMemory(4, uintptr(addr))
	if err != nil {
		return 0, err
	}
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: got %d of 4 bytes", ErrShortRead, len(data))
	}
	return t.order.Uint32(data), nil
}

func (t *memoryTarget) WriteUInt32(addr, value uint32) error {
	buf := make([]byte, 4)
	t.order.PutUint32(buf, value)
	return t.mem.SetMemory(buf, uintptr(addr))
}

func (t *memoryTarget) WriteFloat(addr uint32, value float32) error {
	return t.WriteUInt32(addr, math.Float32bits(value))
}

func (t *memoryTarget) WriteBytes(addr uint32, data []byte) error {
	return t.mem.SetMemory(data, uintptr(addr))
}

func (t *memoryTarget) WriteString(addr uint32, s string) error {
	return t.mem.SetMemory(append([]byte(s), 0), uintptr(addr))
}

func (t *memoryTarget) Execute(fn, arg uint32) error {
	if t.exec == nil {
		return fmt.Errorf("no executor for call at 0x%08X", fn)
	}
	return t.exec.Execute(fn, arg)
}
