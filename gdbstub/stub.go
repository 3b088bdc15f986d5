// Package gdbstub talks the GDB remote serial protocol to a PowerPC debug
// target. It provides raw memory access and a remote call primitive that
// runs one function on the halted target and stops it again on return.
package gdbstub

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrRemote         = errors.New("remote error")
	ErrTargetExited   = errors.New("target exited")
	ErrUnexpectedStop = errors.New("target stopped outside the return address")
	ErrClosed         = errors.New("connection closed")
)

// maxChunk bounds a single m/M packet payload.
const maxChunk = 0x800

// Registers names the register numbers used by Execute, in the stub's
// numbering. Size is the register width in bytes.
type Registers struct {
	Size int
	PC   int
	LR   int
	Arg0 int
}

// PowerPC is the register map of a 32-bit PowerPC gdb target description.
var PowerPC = Registers{Size: 4, PC: 64, LR: 67, Arg0: 3}

type Option func(*Stub)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Stub) {
		if logger != nil {
			s.log = logger
		}
	}
}

func WithRegisters(regs Registers) Option {
	return func(s *Stub) { s.regs = regs }
}

func WithByteOrder(order binary.ByteOrder) Option {
	return func(s *Stub) {
		if order != nil {
			s.order = order
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(s *Stub) {
		if d > 0 {
			s.timeout = d
		}
	}
}

type Stub struct {
	mu      sync.Mutex
	running atomic.Bool
	conn    net.Conn
	r       *bufio.Reader
	addr    string
	regs    Registers
	order   binary.ByteOrder
	timeout time.Duration
	log     *slog.Logger
}

func Connect(host string, port int, opts ...Option) (*Stub, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", addr)
	}
	s, err := New(conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	s.addr = addr
	s.log.Info("connected to gdb stub", "addr", addr)
	return s, nil
}

// New wraps an established connection.
func New(conn net.Conn, opts ...Option) (*Stub, error) {
	s := &Stub{
		conn:    conn,
		r:       bufio.NewReader(conn),
		regs:    PowerPC,
		order:   binary.BigEndian,
		timeout: 5 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.regs.Size != 4 && s.regs.Size != 8 {
		return nil, errors.Errorf("unsupported register size %d", s.regs.Size)
	}
	if _, err := s.conn.Write([]byte("+")); err != nil {
		return nil, errors.Wrap(err, "initial ack")
	}
	return s, nil
}

func (s *Stub) Addr() string {
	return s.addr
}

func (s *Stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	if resp, err := s.request("D"); err != nil {
		s.log.Warn("detach failed", "addr", s.addr, "error", err)
	} else if resp != "OK" {
		s.log.Warn("detach refused", "addr", s.addr, "reply", resp)
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Stub) GetMemory(size uint, addr uintptr) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil, ErrClosed
	}

	out := make([]byte, 0, size)
	for uint(len(out)) < size {
		n := size - uint(len(out))
		if n > maxChunk {
			n = maxChunk
		}
		at := addr + uintptr(len(out))
		resp, err := s.request(fmt.Sprintf("m%x,%x", at, n))
		if err != nil {
			return nil, errors.Wrapf(err, "read memory 0x%x", at)
		}
		if err := remoteError(resp); err != nil {
			return nil, errors.Wrapf(err, "read memory 0x%x", at)
		}
		data, err := hex.DecodeString(resp)
		if err != nil {
			return nil, errors.Wrapf(err, "decode memory 0x%x", at)
		}
		if len(data) == 0 {
			break
		}
		out = append(out, data...)
	}
	return out, nil
}

func (s *Stub) SetMemory(data []byte, addr uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}

	for off := 0; off < len(data); off += maxChunk {
		end := off + maxChunk
		if end > len(data) {
			end = len(data)
		}
		at := addr + uintptr(off)
		cmd := fmt.Sprintf("M%x,%x:%s", at, end-off, hex.EncodeToString(data[off:end]))
		if err := s.expectOK(cmd); err != nil {
			return errors.Wrapf(err, "write memory 0x%x", at)
		}
	}
	return nil
}

func (s *Stub) ReadReg(n int) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return 0, ErrClosed
	}
	return s.readReg(n)
}

func (s *Stub) SetReg(n int, value uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	return s.setReg(n, value)
}

func (s *Stub) SetBreakpoint(addr uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	return s.breakpoint('Z', addr)
}

func (s *Stub) RemoveBreakpoint(addr uintptr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	return s.breakpoint('z', addr)
}

// Interrupt halts a running target. While Execute is waiting for the target
// to return, only the break byte is sent and Execute receives the stop reply.
func (s *Stub) Interrupt() error {
	if s.running.Load() {
		_, err := s.conn.Write([]byte{0x03})
		return errors.Wrap(err, "send interrupt")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}
	if _, err := s.conn.Write([]byte{0x03}); err != nil {
		return errors.Wrap(err, "send interrupt")
	}
	_, err := s.recvPacket(s.timeout)
	return errors.Wrap(err, "interrupt reply")
}

// Execute calls fn(arg) on the halted target and returns once fn returns to
// the instruction the target was stopped at. PC, LR and the first argument
// register are restored afterwards.
func (s *Stub) Execute(fn, arg uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}

	pc, err := s.readReg(s.regs.PC)
	if err != nil {
		return err
	}
	lr, err := s.readReg(s.regs.LR)
	if err != nil {
		return err
	}
	a0, err := s.readReg(s.regs.Arg0)
	if err != nil {
		return err
	}

	if err := s.breakpoint('Z', uintptr(pc)); err != nil {
		return err
	}
	runErr := s.run(uint64(fn), uint64(arg), pc)
	if runErr != nil && errors.Cause(runErr) == ErrTargetExited {
		return runErr
	}

	restoreErr := s.restore(pc, lr, a0)
	if runErr != nil {
		return runErr
	}
	return restoreErr
}

func (s *Stub) run(fn, arg, ret uint64) error {
	if err := s.setReg(s.regs.Arg0, arg); err != nil {
		return err
	}
	if err := s.setReg(s.regs.LR, ret); err != nil {
		return err
	}
	if err := s.setReg(s.regs.PC, fn); err != nil {
		return err
	}

	s.log.Debug("remote execute", "fn", fmt.Sprintf("0x%08X", fn), "arg", fmt.Sprintf("0x%08X", arg))
	s.running.Store(true)
	err := s.sendPacket("c")
	if err == nil {
		err = s.waitStop()
	}
	s.running.Store(false)
	if err != nil {
		return errors.Wrap(err, "continue")
	}

	stopped, err := s.readReg(s.regs.PC)
	if err != nil {
		return err
	}
	if stopped != ret {
		return errors.Wrapf(ErrUnexpectedStop, "pc 0x%x, expected 0x%x", stopped, ret)
	}
	return nil
}

// waitStop blocks until the target halts, logging any console output.
func (s *Stub) waitStop() error {
	for {
		reply, err := s.recvPacket(0)
		if err != nil {
			return errors.Wrap(err, "wait for stop")
		}
		if strings.HasPrefix(reply, "O") && reply != "OK" {
			if text, err := hex.DecodeString(reply[1:]); err == nil {
				s.log.Info("target output", "text", strings.TrimRight(string(text), "\n"))
				continue
			}
		}
		return stopError(reply)
	}
}

func (s *Stub) restore(pc, lr, a0 uint64) error {
	if err := s.breakpoint('z', uintptr(pc)); err != nil {
		return err
	}
	if err := s.setReg(s.regs.Arg0, a0); err != nil {
		return err
	}
	if err := s.setReg(s.regs.LR, lr); err != nil {
		return err
	}
	return s.setReg(s.regs.PC, pc)
}

func (s *Stub) readReg(n int) (uint64, error) {
	resp, err := s.request(fmt.Sprintf("p%x", n))
	if err != nil {
		return 0, errors.Wrapf(err, "read register %d", n)
	}
	if err := remoteError(resp); err != nil {
		return 0, errors.Wrapf(err, "read register %d", n)
	}
	data, err := hex.DecodeString(resp)
	if err != nil {
		return 0, errors.Wrapf(err, "decode register %d", n)
	}
	if len(data) < s.regs.Size {
		return 0, errors.Errorf("register %d: got %d bytes, want %d", n, len(data), s.regs.Size)
	}
	if s.regs.Size == 8 {
		return s.order.Uint64(data), nil
	}
	return uint64(s.order.Uint32(data)), nil
}

func (s *Stub) setReg(n int, value uint64) error {
	buf := make([]byte, s.regs.Size)
	if s.regs.Size == 8 {
		s.order.PutUint64(buf, value)
	} else {
		s.order.PutUint32(buf, uint32(value))
	}
	cmd := fmt.Sprintf("P%x=%s", n, hex.EncodeToString(buf))
	return errors.Wrapf(s.expectOK(cmd), "set register %d", n)
}

func (s *Stub) breakpoint(op byte, addr uintptr) error {
	cmd := fmt.Sprintf("%c0,%x,4", op, addr)
	resp, err := s.request(cmd)
	if err != nil {
		return errors.Wrapf(err, "breakpoint 0x%x", addr)
	}
	if resp != "OK" && resp != "" {
		return errors.Errorf("breakpoint 0x%x: %s", addr, resp)
	}
	return nil
}

func (s *Stub) expectOK(cmd string) error {
	resp, err := s.request(cmd)
	if err != nil {
		return err
	}
	if err := remoteError(resp); err != nil {
		return err
	}
	if resp != "OK" {
		return errors.Errorf("unexpected reply %q", truncate(resp))
	}
	return nil
}

func stopError(reply string) error {
	switch {
	case strings.HasPrefix(reply, "S"), strings.HasPrefix(reply, "T"):
		return nil
	case strings.HasPrefix(reply, "W"), strings.HasPrefix(reply, "X"):
		return errors.Wrapf(ErrTargetExited, "stop reply %s", reply)
	}
	return errors.Errorf("unexpected stop reply %q", truncate(reply))
}
