package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nativeDbg/joaat"
)

// NativeSymbolResolver resolves $pc, $lr and $r0..$r31 from the target and
// any other $NAME to the address of the native it hashes to.
type NativeSymbolResolver struct {
	d *NativeDbg
}

func NewNativeSymbolResolver(d *NativeDbg) *NativeSymbolResolver {
	return &NativeSymbolResolver{d: d}
}

func (r *NativeSymbolResolver) ResolveRegister(name string) (uint64, error) {
	regs := r.d.cfg.Target.Registers
	name = strings.ToLower(name)
	switch name {
	case "pc":
		return r.d.dbg.ReadReg(regs.PC)
	case "lr":
		return r.d.dbg.ReadReg(regs.LR)
	}
	if n, ok := strings.CutPrefix(name, "r"); ok {
		if i, err := strconv.Atoi(n); err == nil && i >= 0 && i < 32 {
			return r.d.dbg.ReadReg(i)
		}
	}
	return 0, fmt.Errorf("unknown register: %s", name)
}

func (r *NativeSymbolResolver) ResolveSymbol(name string) (uint64, error) {
	hash := joaat.Hash(name)
	addr, ok := r.d.inv.Lookup(hash)
	if !ok {
		return 0, fmt.Errorf("native %s (0x%08X) not in table", name, hash)
	}
	return uint64(addr), nil
}

var callHead = regexp.MustCompile(`^\s*call\s+\S+\s+\S+`)

// resolveSymbols expands $NAME expressions in a command line. The kind and
// native of a call are left for cmdCall to hash.
func (d *NativeDbg) resolveSymbols(cmd string) string {
	if !strings.Contains(cmd, "$") {
		return cmd
	}
	r := NewNativeSymbolResolver(d)
	if loc := callHead.FindStringIndex(cmd); loc != nil {
		return cmd[:loc[1]] + ExpandCommand(cmd[loc[1]:], r)
	}
	return ExpandCommand(cmd, r)
}
