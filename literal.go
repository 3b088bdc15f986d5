package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

var (
	errUnquoted = errors.New("bare word; quote string arguments")
	errOverflow = errors.New("does not fit in 32 bits")
)

type argToken struct {
	text   string
	quoted bool
}

// splitArgs splits a call's argument list on whitespace. Single or double
// quotes group a string; inside double quotes \" \\ \n and \t are escapes.
func splitArgs(s string) ([]argToken, error) {
	var (
		toks  []argToken
		cur   strings.Builder
		inTok bool
		quote byte
		wasQ  bool
	)
	flush := func() {
		if inTok {
			toks = append(toks, argToken{text: cur.String(), quoted: wasQ})
		}
		cur.Reset()
		inTok, wasQ = false, false
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
				continue
			}
			if c == '\\' && quote == '"' && i+1 < len(s) {
				i++
				switch s[i] {
				case 'n':
					cur.WriteByte('\n')
				case 't':
					cur.WriteByte('\t')
				default:
					cur.WriteByte(s[i])
				}
				continue
			}
			cur.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			inTok, wasQ = true, true
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
			inTok = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	flush()
	return toks, nil
}

// parseLiteral maps a token to the Go value passed as a native argument:
// string, bool, float32, int32 or uint32.
func parseLiteral(tok argToken) (any, error) {
	if tok.quoted {
		return tok.text, nil
	}
	s := tok.text
	switch strings.ToLower(s) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}

	lower := strings.ToLower(strings.TrimPrefix(s, "-"))
	if !strings.HasPrefix(lower, "0x") {
		if f, ok := parseFloat(s); ok {
			return f, nil
		}
	}

	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, errUnquoted)
		}
		n, ok := narrow[int32](v)
		if !ok {
			return nil, fmt.Errorf("%q: %w", s, errOverflow)
		}
		return n, nil
	}
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return nil, fmt.Errorf("%q: %w", s, errUnquoted)
	}
	n, ok := narrow[uint32](v)
	if !ok {
		return nil, fmt.Errorf("%q: %w", s, errOverflow)
	}
	return n, nil
}

// narrow converts v to T and reports whether the value survived unchanged.
func narrow[T, V constraints.Integer](v V) (T, bool) {
	t := T(v)
	return t, V(t) == v && (t < 0) == (v < 0)
}

// parseFloat accepts 1.5, -2e3 and the suffixed 0.1f form. Plain integers are
// left to the integer parser.
func parseFloat(s string) (float32, bool) {
	suffixed := strings.HasSuffix(s, "f") || strings.HasSuffix(s, "F")
	body := s
	if suffixed {
		body = s[:len(s)-1]
	}
	if !suffixed && !strings.ContainsAny(body, ".eE") {
		return 0, false
	}
	if body == "" || strings.ContainsAny(body, "xX_") {
		return 0, false
	}
	if strings.EqualFold(body, "inf") || strings.EqualFold(body, "-inf") || strings.EqualFold(body, "nan") {
		return 0, false
	}
	f, err := strconv.ParseFloat(body, 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}
