package main

// Debugger is the remote end the command loop drives. gdbstub.Stub is the
// production implementation.
type Debugger interface {
	GetMemory(size uint, addr uintptr) ([]byte, error)
	SetMemory(data []byte, addr uintptr) error
	ReadReg(n int) (uint64, error)
	Interrupt() error
}
