package main

import (
	"fmt"
	"math"
	"strconv"
)

func parseAddrCount(args []string, def uint64) (uint64, uint64, error) {
	addr, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return 0, 0, err
	}
	n := def
	if len(args) > 3 && args[3] != "" {
		n, err = strconv.ParseUint(args[3], 0, 32)
		if err != nil {
			return 0, 0, err
		}
	}
	return addr, n, nil
}

func asciiColumn(data []byte) string {
	buf := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b <= 126 {
			buf[i] = b
		} else {
			buf[i] = '.'
		}
	}
	return string(buf)
}

func (d *NativeDbg) cmdDumpByte(args []string) error {
	addr, n, err := parseAddrCount(args, 64)
	if err != nil {
		return err
	}

	data, err := d.dbg.GetMemory(uint(n), uintptr(addr))
	if err != nil {
		return err
	}

	for i := 0; i < len(data); i += 16 {
		end := min(i+16, len(data))
		fmt.Fprintf(out, "%s%08x%s: ", ColorBlue, addr+uint64(i), ColorReset)
		for j := i; j < i+16; j++ {
			if j < end {
				fmt.Fprintf(out, "%02x ", data[j])
			} else {
				fmt.Fprint(out, "   ")
			}
		}
		fmt.Fprintf(out, " |%s|\n", asciiColumn(data[i:end]))
	}

	return nil
}

// cmdDumpDword prints words in target byte order.
func (d *NativeDbg) cmdDumpDword(args []string) error {
	addr, n, err := parseAddrCount(args, 16)
	if err != nil {
		return err
	}

	data, err := d.dbg.GetMemory(uint(n*4), uintptr(addr))
	if err != nil {
		return err
	}

	for i := 0; i < len(data); i += 16 {
		end := min(i+16, len(data))
		fmt.Fprintf(out, "%s%08x%s: ", ColorBlue, addr+uint64(i), ColorReset)
		for j := i; j < i+16; j += 4 {
			if j+4 <= end {
				fmt.Fprintf(out, "%s0x%08x%s ", ColorCyan, d.order.Uint32(data[j:j+4]), ColorReset)
			} else {
				fmt.Fprint(out, "           ")
			}
		}
		fmt.Fprintf(out, " |%s|\n", asciiColumn(data[i:end]))
	}

	return nil
}

func (d *NativeDbg) cmdSet32(args []string) error {
	addr, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return err
	}
	val, err := strconv.ParseUint(args[3], 0, 32)
	if err != nil {
		return err
	}

	buf := make([]byte, 4)
	d.order.PutUint32(buf, uint32(val))
	if err := d.dbg.SetMemory(buf, uintptr(addr)); err != nil {
		return err
	}
	Printf("0x%08x <- 0x%08x\n", addr, val)
	return nil
}

func (d *NativeDbg) cmdSetFloat(args []string) error {
	addr, err := strconv.ParseUint(args[2], 0, 32)
	if err != nil {
		return err
	}
	f, ok := parseFloat(args[3])
	if !ok {
		v, err := strconv.ParseFloat(args[3], 32)
		if err != nil {
			return fmt.Errorf("bad float %q", args[3])
		}
		f = float32(v)
	}

	buf := make([]byte, 4)
	d.order.PutUint32(buf, math.Float32bits(f))
	if err := d.dbg.SetMemory(buf, uintptr(addr)); err != nil {
		return err
	}
	Printf("0x%08x <- %s\n", addr, strconv.FormatFloat(float64(f), 'g', -1, 32))
	return nil
}
