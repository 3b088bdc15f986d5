package main

import (
	"fmt"
	"strconv"

	"golang.org/x/arch/ppc64/ppc64asm"
)

func (d *NativeDbg) cmdDisass(args []string) error {
	addr, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return err
	}
	var n uint64 = 8
	if args[3] != "" {
		n, err = strconv.ParseUint(args[3], 0, 32)
		if err != nil {
			return err
		}
	}
	return d.disass(uint32(addr), int(n))
}

// disass prints n instructions starting at addr.
func (d *NativeDbg) disass(addr uint32, n int) error {
	code, err := d.dbg.GetMemory(uint(n*4), uintptr(addr))
	if err != nil {
		return fmt.Errorf("read code at 0x%08x: %w", addr, err)
	}

	for off := 0; off+4 <= len(code); {
		pc := addr + uint32(off)
		size := 4
		text := fmt.Sprintf(".long 0x%08x", d.order.Uint32(code[off:]))
		if inst, err := ppc64asm.Decode(code[off:], d.order); err == nil {
			text = ppc64asm.GNUSyntax(inst, uint64(pc))
			if inst.Len > 0 {
				size = inst.Len
			}
		}
		fmt.Fprintf(out, "%s0x%08x%s: %s%08x%s  %s%s%s\n",
			ColorBlue, pc, ColorReset,
			ColorWhite, d.order.Uint32(code[off:]), ColorReset,
			ColorPurple, text, ColorReset)
		off += size
	}

	return nil
}
