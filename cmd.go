package main

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nativeDbg/joaat"
	"nativeDbg/native"
)

const num = `(0[xX][0-9a-fA-F]+|0[0-7]+|[1-9][0-9]*|0)`

type cmdHandler struct {
	regex *regexp.Regexp
	fn    func(*NativeDbg, []string) error
}

var compiledCmds = []cmdHandler{
	{regexp.MustCompile(`^\s*(dump)(?:\s+(\S+))?(?:\s+` + num + `)?\s*$`), (*NativeDbg).cmdDump},
	{regexp.MustCompile(`^\s*(natives|ls)(?:\s+(\S+))?\s*$`), (*NativeDbg).cmdNatives},
	{regexp.MustCompile(`^\s*(hash)\s+(\S+)\s*$`), (*NativeDbg).cmdHash},
	{regexp.MustCompile(`^\s*(lookup|l)\s+(\S+)\s*$`), (*NativeDbg).cmdLookup},
	{regexp.MustCompile(`^\s*(call)\s+(\w+)\s+(\S+)(?:\s+(.*))?$`), (*NativeDbg).cmdCall},
	{regexp.MustCompile(`^\s*(p|print)\s+` + num + `\s*$`), (*NativeDbg).cmdPrint},
	{regexp.MustCompile(`^\s*(db|xxd)\s+` + num + `(?:\s+` + num + `)?\s*$`), (*NativeDbg).cmdDumpByte},
	{regexp.MustCompile(`^\s*(dd|xxd\s+dword)\s+` + num + `(?:\s+` + num + `)?\s*$`), (*NativeDbg).cmdDumpDword},
	{regexp.MustCompile(`^\s*(set32)\s+` + num + `\s+` + num + `\s*$`), (*NativeDbg).cmdSet32},
	{regexp.MustCompile(`^\s*(setf)\s+` + num + `\s+(\S+)\s*$`), (*NativeDbg).cmdSetFloat},
	{regexp.MustCompile(`^\s*(disass)\s+` + num + `(?:\s+` + num + `)?\s*$`), (*NativeDbg).cmdDisass},
	{regexp.MustCompile(`^\s*(layout)\s*$`), (*NativeDbg).cmdLayout},
	{regexp.MustCompile(`^\s*(builds)\s*$`), (*NativeDbg).cmdBuilds},
	{regexp.MustCompile(`^\s*(build|use)(?:\s+(\S+))?\s*$`), (*NativeDbg).cmdBuild},
	{regexp.MustCompile(`^\s*(help|h|\?)\s*$`), (*NativeDbg).cmdHelp},
}

var errUnknownCommand = errors.New("unknown command")

func (d *NativeDbg) cmdExec(req string) error {
	req = d.resolveSymbols(req)
	for _, handler := range compiledCmds {
		if m := handler.regex.FindStringSubmatch(req); m != nil {
			return handler.fn(d, m)
		}
	}
	return errUnknownCommand
}

func (d *NativeDbg) cmdDump(args []string) error {
	limit := 0
	if args[3] != "" {
		n, err := strconv.ParseUint(args[3], 0, 32)
		if err != nil {
			return err
		}
		limit = int(n)
	}
	n, err := d.dump(args[2], limit)
	if err != nil {
		if n > 0 {
			LogError("kept %d natives read before the failure", n)
		}
		return err
	}
	Printf("Dumped %d natives\n", n)
	return nil
}

func (d *NativeDbg) cmdNatives(args []string) error {
	filter := strings.ToUpper(strings.TrimPrefix(strings.TrimPrefix(args[2], "0x"), "0X"))
	entries := d.inv.Natives()
	shown := 0
	for _, e := range entries {
		line := fmt.Sprintf("%08X %08X", e.Hash, e.Address)
		if filter != "" && !strings.Contains(line, filter) {
			continue
		}
		fmt.Fprintf(out, "%s0x%08X%s -> %s0x%08X%s\n", ColorYellow, e.Hash, ColorReset, ColorCyan, e.Address, ColorReset)
		shown++
	}
	Printf("%d of %d natives\n", shown, len(entries))
	return nil
}

func (d *NativeDbg) cmdHash(args []string) error {
	Printf("%s: 0x%08x\n", args[2], joaat.Hash(args[2]))
	return nil
}

func (d *NativeDbg) cmdLookup(args []string) error {
	hash, _ := joaat.Parse(args[2])
	addr, ok := d.inv.Lookup(hash)
	if !ok {
		return fmt.Errorf("0x%08X: %w", hash, native.ErrUnresolvedNative)
	}
	Printf("0x%08x -> 0x%08x\n", hash, addr)
	return nil
}

func (d *NativeDbg) cmdCall(args []string) error {
	kind, err := native.ParseReturnKind(args[2])
	if err != nil {
		return err
	}
	// $NAME in the native position names the native itself.
	hash, _ := joaat.Parse(strings.TrimPrefix(args[3], "$"))

	toks, err := splitArgs(args[4])
	if err != nil {
		return err
	}
	callArgs := make([]any, len(toks))
	for i, tok := range toks {
		v, err := parseLiteral(tok)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
		callArgs[i] = v
	}

	v, err := d.inv.Call(hash, kind, callArgs...)
	if err != nil {
		return err
	}
	printResult(kind, v)
	return nil
}

func printResult(kind native.ReturnKind, v any) {
	switch r := v.(type) {
	case nil:
		Printf("%s\n", "done")
	case bool:
		Printf("%s\n", strconv.FormatBool(r))
	case int32:
		Printf("%d (0x%08x)\n", r, uint32(r))
	case float32:
		Printf("%s\n", strconv.FormatFloat(float64(r), 'g', -1, 32))
	case native.Vector3:
		Printf("%s\n", r.String())
	case native.Result:
		Printf("0x%08x 0x%08x 0x%08x\n", r[0], r[1], r[2])
	default:
		Printf("%s: %s\n", kind.String(), fmt.Sprint(v))
	}
}

func (d *NativeDbg) cmdPrint(args []string) error {
	val, err := strconv.ParseUint(args[2], 0, 64)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "HEX: %s0x%x%s DEC: %s%d%s OCT: %s%o%s BIN: %s%b%s\n",
		ColorCyan, val, ColorReset,
		ColorCyan, val, ColorReset,
		ColorCyan, val, ColorReset,
		ColorCyan, val, ColorReset)
	return nil
}

func (d *NativeDbg) cmdLayout(_ []string) error {
	l := d.inv.Layout()
	hLine("layout")
	rows := []struct {
		name string
		addr uint32
	}{
		{"return pointer", l.ReturnPointer},
		{"argument count", l.ArgumentCount},
		{"argument pointer", l.ArgumentPointer},
		{"return array", l.ReturnArray},
		{"argument array", l.ArgumentArray},
		{"string base", l.StringBase},
	}
	for _, r := range rows {
		fmt.Fprintf(out, "%-18s %s0x%08X%s\n", r.name, ColorCyan, r.addr, ColorReset)
	}
	fmt.Fprintf(out, "%-18s %s0x%X%s\n", "string stride", ColorCyan, l.StringStride, ColorReset)
	fmt.Fprintf(out, "%-18s %s0x%X%s\n", "string clear", ColorCyan, l.StringClear, ColorReset)
	hLineRaw()
	return nil
}

func (d *NativeDbg) cmdBuilds(_ []string) error {
	for _, name := range d.cfg.BuildNames() {
		base, _ := d.cfg.TableBase(name)
		mark := " "
		if strings.EqualFold(name, d.build) {
			mark = "*"
		}
		fmt.Fprintf(out, "%s %-6s %s0x%08X%s\n", mark, name, ColorCyan, base, ColorReset)
	}
	return nil
}

func (d *NativeDbg) cmdBuild(args []string) error {
	name := args[2]
	if name == "" {
		if d.pick == nil {
			Printf("build: %s\n", d.build)
			return nil
		}
		picked, err := d.pick(d.cfg.BuildNames(), d.build)
		if err != nil {
			return err
		}
		name = picked
	}
	if err := d.SetBuild(name); err != nil {
		return err
	}
	Printf("build: %s\n", d.build)
	return nil
}

func (d *NativeDbg) cmdHelp(_ []string) error {
	fmt.Fprint(out, `dump [build|addr] [max]        read the native table
natives [filter]               list hash -> address entries
hash <name>                    print the hash of a native name
lookup <name|0xhash>           print a native's address
call <kind> <name|0xhash> ...  call a native; kind is void|bool|int|float|vec3|raw
p <value>                      print a value in several bases
xxd <addr> [n]                 hex dump n bytes
dd <addr> [n]                  dump n words
set32 <addr> <value>           write a word
setf <addr> <float>            write a float
disass <addr> [n]              disassemble n instructions
layout                         show the call scratch layout
builds                         list known builds
build [name]                   show or select the build
q                              quit
$NAME outside quotes expands to a native's address; $pc, $lr and $r0..$r31
read registers. Quoted call arguments are passed as written.
`)
	return nil
}
