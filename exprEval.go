package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type SymbolResolver interface {
	ResolveRegister(name string) (uint64, error)
	ResolveSymbol(name string) (uint64, error)
}

var (
	symPattern  = regexp.MustCompile(`\$[a-zA-Z_][a-zA-Z0-9_]*`)
	exprPattern = regexp.MustCompile(`\$[a-zA-Z_][a-zA-Z0-9_]*(?:\s*[+\-*/]\s*(?:0[xX][0-9a-fA-F]+|[0-9]+|\$[a-zA-Z_][a-zA-Z0-9_]*))*`)
)

// EvaluateExpression resolves every $NAME in expr and evaluates the
// remaining + - * / and parenthesised arithmetic over unsigned values.
func EvaluateExpression(expr string, resolver SymbolResolver) (uint64, error) {
	resolved, err := substituteSymbols(expr, resolver)
	if err != nil {
		return 0, err
	}
	toks, err := lexExpr(resolved)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, fmt.Errorf("empty expression")
	}

	p := exprParser{toks: toks}
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	if p.pos < len(toks) {
		return 0, fmt.Errorf("unexpected %s", toks[p.pos])
	}
	return v, nil
}

// substituteSymbols replaces each $NAME with its value. Registers win over
// natives of the same name.
func substituteSymbols(expr string, resolver SymbolResolver) (string, error) {
	var firstErr error
	out := symPattern.ReplaceAllStringFunc(expr, func(match string) string {
		name := match[1:]
		v, err := resolver.ResolveRegister(name)
		if err != nil {
			v, err = resolver.ResolveSymbol(name)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("failed to resolve symbol: %s", name)
			}
			return match
		}
		return "0x" + strconv.FormatUint(v, 16)
	})
	return out, firstErr
}

type tokKind int

const (
	tokNum tokKind = iota
	tokOp
	tokOpen
	tokClose
)

type exprTok struct {
	kind tokKind
	op   byte
	val  uint64
}

func (t exprTok) String() string {
	switch t.kind {
	case tokNum:
		return "0x" + strconv.FormatUint(t.val, 16)
	case tokOpen:
		return "'('"
	case tokClose:
		return "')'"
	}
	return fmt.Sprintf("'%c'", t.op)
}

// lexExpr splits an expression into numbers, operators and parentheses.
// Numbers take any strconv base prefix (0x, 0o, 0b, leading 0 for octal).
func lexExpr(expr string) ([]exprTok, error) {
	var toks []exprTok
	for i := 0; i < len(expr); {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case strings.IndexByte("+-*/", c) >= 0:
			toks = append(toks, exprTok{kind: tokOp, op: c})
			i++
		case c == '(':
			toks = append(toks, exprTok{kind: tokOpen})
			i++
		case c == ')':
			toks = append(toks, exprTok{kind: tokClose})
			i++
		case c >= '0' && c <= '9':
			j := i
			for j < len(expr) && isWordByte(expr[j]) {
				j++
			}
			v, err := strconv.ParseUint(expr[i:j], 0, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q", expr[i:j])
			}
			toks = append(toks, exprTok{kind: tokNum, val: v})
			i = j
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	return toks, nil
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// exprParser is a recursive-descent parser over
//
//	sum     = product { ("+" | "-") product }
//	product = operand { ("*" | "/") operand }
//	operand = number | "(" sum ")"
type exprParser struct {
	toks []exprTok
	pos  int
}

func (p *exprParser) op(set string) (byte, bool) {
	if p.pos < len(p.toks) && p.toks[p.pos].kind == tokOp && strings.IndexByte(set, p.toks[p.pos].op) >= 0 {
		op := p.toks[p.pos].op
		p.pos++
		return op, true
	}
	return 0, false
}

func (p *exprParser) sum() (uint64, error) {
	return p.chain("+-", p.product)
}

func (p *exprParser) product() (uint64, error) {
	return p.chain("*/", p.operand)
}

func (p *exprParser) chain(ops string, next func() (uint64, error)) (uint64, error) {
	acc, err := next()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.op(ops)
		if !ok {
			return acc, nil
		}
		rhs, err := next()
		if err != nil {
			return 0, err
		}
		if acc, err = apply(op, acc, rhs); err != nil {
			return 0, err
		}
	}
}

func (p *exprParser) operand() (uint64, error) {
	if p.pos >= len(p.toks) {
		return 0, fmt.Errorf("unexpected end of expression")
	}
	t := p.toks[p.pos]
	p.pos++
	switch t.kind {
	case tokNum:
		return t.val, nil
	case tokOpen:
		v, err := p.sum()
		if err != nil {
			return 0, err
		}
		if p.pos >= len(p.toks) || p.toks[p.pos].kind != tokClose {
			return 0, fmt.Errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	}
	return 0, fmt.Errorf("unexpected %s", t)
}

func apply(op byte, a, b uint64) (uint64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		if b > a {
			return 0, fmt.Errorf("0x%x - 0x%x is negative", a, b)
		}
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	}
	return 0, fmt.Errorf("unknown operator %c", op)
}

type cmdSpan struct {
	text   string
	quoted bool
}

// splitQuoted cuts a command line into quoted and unquoted spans, quotes
// included, following the quoting rules of splitArgs. An unterminated quote
// runs to the end of the line.
func splitQuoted(cmd string) []cmdSpan {
	var spans []cmdSpan
	start := 0
	for i := 0; i < len(cmd); i++ {
		q := cmd[i]
		if q != '"' && q != '\'' {
			continue
		}
		if i > start {
			spans = append(spans, cmdSpan{text: cmd[start:i]})
		}
		j := i + 1
		for j < len(cmd) && cmd[j] != q {
			if q == '"' && cmd[j] == '\\' {
				j++
			}
			j++
		}
		end := min(j+1, len(cmd))
		spans = append(spans, cmdSpan{text: cmd[i:end], quoted: true})
		start = end
		i = end - 1
	}
	if start < len(cmd) {
		spans = append(spans, cmdSpan{text: cmd[start:]})
	}
	return spans
}

// ExpandCommand replaces each $NAME expression outside quotes with its value
// in hex. Expressions that cannot be resolved are left as written.
func ExpandCommand(cmd string, resolver SymbolResolver) string {
	if !strings.Contains(cmd, "$") {
		return cmd
	}

	var b strings.Builder
	for _, span := range splitQuoted(cmd) {
		if span.quoted {
			b.WriteString(span.text)
			continue
		}
		b.WriteString(exprPattern.ReplaceAllStringFunc(span.text, func(match string) string {
			if v, err := EvaluateExpression(match, resolver); err == nil {
				return "0x" + strconv.FormatUint(v, 16)
			}
			if s, err := substituteSymbols(match, resolver); err == nil {
				return s
			}
			return match
		}))
	}
	return b.String()
}
