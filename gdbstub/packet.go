package gdbstub

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const packetRetries = 3

func checksum(data string) byte {
	var cs byte
	for i := 0; i < len(data); i++ {
		cs += data[i]
	}
	return cs
}

func frame(data string) string {
	return fmt.Sprintf("$%s#%02x", data, checksum(data))
}

func (s *Stub) sendPacket(data string) error {
	packet := frame(data)
	s.log.Debug("gdb send", "packet", truncate(data))

	for retry := 0; retry < packetRetries; retry++ {
		if _, err := io.WriteString(s.conn, packet); err != nil {
			return errors.Wrap(err, "write packet")
		}

		s.conn.SetReadDeadline(time.Now().Add(s.timeout))
		ack, err := s.readAck()
		s.conn.SetReadDeadline(time.Time{})
		if err != nil {
			// A lost ack does not mean a lost packet; the target may be running.
			if retry < packetRetries-1 && !resumes(data) {
				continue
			}
			return errors.Wrap(err, "read ack")
		}

		switch ack {
		case '+':
			return nil
		case '-':
			continue
		case '$':
			// stub runs without acks; the reply has already started
			s.r.UnreadByte()
			return nil
		}
	}

	return errors.Errorf("packet %q not acknowledged after %d tries", truncate(data), packetRetries)
}

// readAck skips line noise until '+', '-' or the start of a reply.
func (s *Stub) readAck() (byte, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case '+', '-', '$':
			return b, nil
		}
		s.log.Debug("gdb noise before ack", "byte", fmt.Sprintf("0x%02x", b))
	}
}

// resumes reports whether data sets the target running, so that sending it
// twice would run it twice.
func resumes(data string) bool {
	if strings.HasPrefix(data, "vCont") {
		return true
	}
	return data != "" && strings.IndexByte("cCsSkD", data[0]) >= 0
}

// recvPacket reads one packet. A zero wait blocks until the stub answers.
func (s *Stub) recvPacket(wait time.Duration) (string, error) {
	if wait > 0 {
		s.conn.SetReadDeadline(time.Now().Add(wait))
		defer s.conn.SetReadDeadline(time.Time{})
	}

	for retry := 0; retry < packetRetries; retry++ {
		for {
			b, err := s.r.ReadByte()
			if err != nil {
				return "", errors.Wrap(err, "read packet")
			}
			if b == '$' {
				break
			}
		}
		body, err := s.r.ReadString('#')
		if err != nil {
			return "", errors.Wrap(err, "read packet body")
		}
		body = body[:len(body)-1]
		var cs [2]byte
		if _, err := io.ReadFull(s.r, cs[:]); err != nil {
			return "", errors.Wrap(err, "read checksum")
		}
		want, err := strconv.ParseUint(string(cs[:]), 16, 8)
		if err != nil || byte(want) != checksum(body) {
			io.WriteString(s.conn, "-")
			continue
		}
		io.WriteString(s.conn, "+")

		data, err := decodeBody(body)
		if err != nil {
			return "", err
		}
		s.log.Debug("gdb recv", "packet", truncate(data))
		return data, nil
	}

	return "", errors.Errorf("checksum mismatch after %d tries", packetRetries)
}

func (s *Stub) request(cmd string) (string, error) {
	if err := s.sendPacket(cmd); err != nil {
		return "", err
	}
	return s.recvPacket(s.timeout)
}

// decodeBody undoes '}' escaping and '*' run-length encoding.
func decodeBody(body string) (string, error) {
	if !strings.ContainsAny(body, "}*") {
		return body, nil
	}
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '}':
			i++
			if i >= len(body) {
				return "", errors.New("dangling escape in packet")
			}
			out.WriteByte(body[i] ^ 0x20)
		case '*':
			i++
			if i >= len(body) || out.Len() == 0 {
				return "", errors.New("bad run length in packet")
			}
			prev := out.String()[out.Len()-1]
			for n := int(body[i]) - 29; n > 0; n-- {
				out.WriteByte(prev)
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String(), nil
}

func remoteError(resp string) error {
	if len(resp) == 3 && resp[0] == 'E' {
		return errors.Wrapf(ErrRemote, "code %s", resp[1:])
	}
	return nil
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
