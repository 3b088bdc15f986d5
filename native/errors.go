package native

import (
	"errors"
	"fmt"
)

var (
	ErrUnresolvedNative = errors.New("native unresolved")
	ErrArgumentInvalid  = errors.New("argument invalid")
	ErrChannelClosed    = errors.New("call channel closed")
	ErrShortRead        = errors.New("short read")
)

// UnresolvedNativeError reports a hash that is absent from the dumped table:
// no dump yet, a stale table, or a mistyped name.
type UnresolvedNativeError struct {
	hash uint32
}

// TransportError wraps a failed remote read, write or execute. Scratch memory
// may be left partially written.
type TransportError struct {
	op   string
	addr uint32
	err  error
}

func (e *UnresolvedNativeError) Error() string {
	return fmt.Sprintf("[Unresolved] native 0x%08X not in native table", e.hash)
}

func (e *UnresolvedNativeError) Hash() uint32 {
	return e.hash
}

func (e *UnresolvedNativeError) Is(target error) bool {
	return target == ErrUnresolvedNative
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("[Transport] %s 0x%08X: %v", e.op, e.addr, e.err)
}

func (e *TransportError) Op() string {
	return e.op
}

func (e *TransportError) Address() uint32 {
	return e.addr
}

func (e *TransportError) Unwrap() error {
	return e.err
}

func transportErr(op string, addr uint32, err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{op: op, addr: addr, err: err}
}
