package gdbstub

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type call struct {
	fn, arg uint64
}

// fakeServer is a scripted big-endian PowerPC gdb stub.
type fakeServer struct {
	mu      sync.Mutex
	mem     map[uint64]byte
	regs    map[int]uint64
	bps     map[uint64]bool
	packets []string
	calls   []call

	// corrupt makes the next n replies go out with a bad checksum once.
	corrupt int
	// failRead answers m packets at this address with an error.
	failRead map[uint64]bool
	// console is sent as an O packet ahead of the next stop reply.
	console string
	// onContinue replaces the default "run to LR" behaviour.
	onContinue func(f *fakeServer) string
	// noise is written ahead of every ack.
	noise string
	// nak rejects the next n packets with '-' without handling them.
	nak int
	// silent packets are logged but get neither an ack nor a reply.
	silent map[string]bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		mem:      map[uint64]byte{},
		regs:     map[int]uint64{},
		bps:      map[uint64]bool{},
		failRead: map[uint64]bool{},
		silent:   map[string]bool{},
	}
}

func (f *fakeServer) serve(conn net.Conn) {
	r := bufio.NewReader(conn)
	var last string
	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case '+':
			continue
		case '-':
			if _, err := io.WriteString(conn, last); err != nil {
				return
			}
			continue
		case 0x03:
			last = frame("S02")
			if _, err := io.WriteString(conn, last); err != nil {
				return
			}
			continue
		case '$':
		default:
			continue
		}

		body, err := r.ReadString('#')
		if err != nil {
			return
		}
		var cs [2]byte
		if _, err := io.ReadFull(r, cs[:]); err != nil {
			return
		}
		pkt := body[:len(body)-1]
		f.mu.Lock()
		ack := "+"
		if f.nak > 0 {
			f.nak--
			ack = "-"
		}
		noise, silent := f.noise, f.silent[pkt]
		if silent {
			f.packets = append(f.packets, pkt)
		}
		f.mu.Unlock()
		if silent {
			continue
		}
		if _, err := io.WriteString(conn, noise+ack); err != nil {
			return
		}
		if ack == "-" {
			continue
		}

		resp := f.handle(pkt)
		if pkt == "c" && f.console != "" {
			if _, err := io.WriteString(conn, frame("O"+hex.EncodeToString([]byte(f.console)))); err != nil {
				return
			}
			if _, err := r.ReadByte(); err != nil {
				return
			}
		}
		last = frame(resp)
		out := last
		f.mu.Lock()
		if f.corrupt > 0 {
			f.corrupt--
			out = fmt.Sprintf("$%s#%02x", resp, checksum(resp)+1)
		}
		f.mu.Unlock()
		if _, err := io.WriteString(conn, out); err != nil {
			return
		}
	}
}

func (f *fakeServer) handle(pkt string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.packets = append(f.packets, pkt)

	switch {
	case pkt == "c":
		if f.onContinue != nil {
			return f.onContinue(f)
		}
		f.calls = append(f.calls, call{fn: f.regs[64], arg: f.regs[3]})
		f.regs[64] = f.regs[67]
		if f.bps[f.regs[64]] {
			return "T05"
		}
		return "W00"
	case pkt == "D":
		return "OK"
	case pkt[0] == 'm':
		addr, n := parseRange(pkt[1:])
		if f.failRead[addr] {
			return "E14"
		}
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = f.mem[addr+uint64(i)]
		}
		return hex.EncodeToString(buf)
	case pkt[0] == 'M':
		head, data, _ := strings.Cut(pkt[1:], ":")
		addr, _ := parseRange(head)
		raw, _ := hex.DecodeString(data)
		for i, b := range raw {
			f.mem[addr+uint64(i)] = b
		}
		return "OK"
	case pkt[0] == 'p':
		n, _ := strconv.ParseUint(pkt[1:], 16, 32)
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, uint32(f.regs[int(n)]))
		return hex.EncodeToString(buf)
	case pkt[0] == 'P':
		num, val, _ := strings.Cut(pkt[1:], "=")
		n, _ := strconv.ParseUint(num, 16, 32)
		raw, _ := hex.DecodeString(val)
		f.regs[int(n)] = uint64(binary.BigEndian.Uint32(raw))
		return "OK"
	case pkt[0] == 'Z' || pkt[0] == 'z':
		addr, _ := parseRange(pkt[3:])
		if pkt[0] == 'Z' {
			f.bps[addr] = true
		} else {
			delete(f.bps, addr)
		}
		return "OK"
	}
	return ""
}

func (f *fakeServer) packetLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.packets...)
}

func (f *fakeServer) reg(n int) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.regs[n]
}

func parseRange(s string) (uint64, int) {
	a, b, _ := strings.Cut(s, ",")
	addr, _ := strconv.ParseUint(a, 16, 64)
	n, _ := strconv.ParseUint(b, 16, 32)
	return addr, int(n)
}

func dialFake(t *testing.T, f *fakeServer, opts ...Option) *Stub {
	t.Helper()
	client, server := net.Pipe()
	go f.serve(server)
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})

	s, err := New(client, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}
