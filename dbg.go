package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/schollz/progressbar/v3"

	"nativeDbg/config"
	"nativeDbg/native"
)

type NativeDbg struct {
	dbg   Debugger
	inv   *native.Invoker
	cfg   config.Config
	order binary.ByteOrder
	build string
	// progress receives the dump progress bar.
	progress io.Writer
	// pick chooses a build interactively; nil means no prompt is available.
	pick func(names []string, current string) (string, error)
}

func NewNativeDbg(dbg Debugger, inv *native.Invoker, cfg config.Config) (*NativeDbg, error) {
	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}
	return &NativeDbg{
		dbg:      dbg,
		inv:      inv,
		cfg:      cfg,
		order:    order,
		build:    cfg.DefaultBuild,
		progress: os.Stderr,
	}, nil
}

// SetBuild selects the build whose native table dump uses by default.
func (d *NativeDbg) SetBuild(name string) error {
	for _, b := range d.cfg.BuildNames() {
		if strings.EqualFold(b, name) {
			d.build = b
			return nil
		}
	}
	return fmt.Errorf("unknown build %q (known: %s)", name, strings.Join(d.cfg.BuildNames(), ", "))
}

func promptBuild(names []string, current string) (string, error) {
	prompt := promptui.Select{
		Label:     "Target build",
		Items:     names,
		CursorPos: max(slices.Index(names, current), 0),
	}
	_, name, err := prompt.Run()
	return name, err
}

// tableBase turns a dump argument into a table address. The argument is
// either an address or a build name; empty means the selected build.
func (d *NativeDbg) tableBase(arg string) (uint32, string, error) {
	if arg == "" {
		arg = d.build
	}
	if v, err := strconv.ParseUint(arg, 0, 32); err == nil {
		return uint32(v), fmt.Sprintf("0x%08X", v), nil
	}
	base, err := d.cfg.TableBase(arg)
	if err != nil {
		return 0, "", err
	}
	return base, strings.ToUpper(arg), nil
}

func (d *NativeDbg) dump(arg string, limit int) (int, error) {
	base, label, err := d.tableBase(arg)
	if err != nil {
		return 0, err
	}
	if limit <= 0 {
		limit = d.cfg.TableSize
	}

	w := d.progress
	if w == nil {
		w = io.Discard
	}
	bar := progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("natives "+label),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	n, err := d.inv.DumpTableProgress(base, limit, func(i int) {
		bar.Set(i)
	})
	bar.Finish()
	if err != nil {
		return n, fmt.Errorf("dump %s: %w", label, err)
	}
	return n, nil
}
