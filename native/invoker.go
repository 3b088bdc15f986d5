// Package native calls game natives inside a remote process. Natives are
// found by dumping the game's (hash, address) table and invoked by writing a
// call descriptor into a fixed scratch region before executing the native
// remotely.
package native

import (
	"fmt"
	"log/slog"

	"nativeDbg/joaat"
)

type Option func(*Invoker)

func WithLayout(layout Layout) Option {
	return func(inv *Invoker) {
		inv.layout = layout
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoker) {
		if logger != nil {
			inv.log = logger
		}
	}
}

// Invoker resolves natives by hash and calls them through a Channel. The
// table must be dumped before the first call.
type Invoker struct {
	target  Target
	layout  Layout
	log     *slog.Logger
	table   Table
	channel *Channel
}

func New(target Target, opts ...Option) *Invoker {
	inv := &Invoker{
		target: target,
		layout: DefaultLayout,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	inv.channel = NewChannel(target, inv.layout, inv.log)
	return inv
}

func (inv *Invoker) Close() error {
	return inv.channel.Close()
}

func (inv *Invoker) Layout() Layout {
	return inv.layout
}

// DumpTable replaces the lookup table with the records found at base. A
// limit of zero or less reads up to DefaultTableSize records.
func (inv *Invoker) DumpTable(base uint32, limit int) (int, error) {
	return inv.DumpTableProgress(base, limit, nil)
}

// DumpTableProgress is DumpTable with progress reporting; fn receives the
// number of entries recorded so far.
func (inv *Invoker) DumpTableProgress(base uint32, limit int, fn func(int)) (int, error) {
	if limit <= 0 {
		limit = DefaultTableSize
	}
	n, err := do(inv.channel.w, func() (int, error) {
		return inv.table.dump(inv.target, base, limit, fn)
	})
	if err != nil {
		inv.log.Warn("native table dump failed", "base", hex32(base), "error", err)
		return n, err
	}
	inv.log.Info("native table dumped", "base", hex32(base), "entries", n)
	return n, nil
}

func (inv *Invoker) Resolve(name string) uint32 {
	return joaat.Hash(name)
}

func (inv *Invoker) Lookup(hash uint32) (uint32, bool) {
	return inv.table.Lookup(hash)
}

func (inv *Invoker) Len() int {
	return inv.table.Len()
}

func (inv *Invoker) Natives() []Entry {
	return inv.table.Entries()
}

// CallRaw calls the native registered under hash and returns its raw return
// buffer. An unknown hash fails before any remote memory is touched.
func (inv *Invoker) CallRaw(hash uint32, args ...any) (Result, error) {
	addr, ok := inv.table.Lookup(hash)
	if !ok {
		return Result{}, &UnresolvedNativeError{hash: hash}
	}
	slots, err := ToArgs(args...)
	if err != nil {
		return Result{}, err
	}
	res, err := inv.channel.Call(addr, slots...)
	if err != nil {
		return Result{}, fmt.Errorf("native 0x%08X: %w", hash, err)
	}
	return res, nil
}

// Call decodes the result according to kind; see Result.Decode.
func (inv *Invoker) Call(hash uint32, kind ReturnKind, args ...any) (any, error) {
	res, err := inv.CallRaw(hash, args...)
	if err != nil {
		return nil, err
	}
	return res.Decode(kind), nil
}

func (inv *Invoker) CallName(name string, kind ReturnKind, args ...any) (any, error) {
	return inv.Call(joaat.Hash(name), kind, args...)
}

func (inv *Invoker) CallBool(hash uint32, args ...any) (bool, error) {
	res, err := inv.CallRaw(hash, args...)
	return res.Bool(), err
}

func (inv *Invoker) CallInt(hash uint32, args ...any) (int32, error) {
	res, err := inv.CallRaw(hash, args...)
	return res.Int(), err
}

func (inv *Invoker) CallFloat(hash uint32, args ...any) (float32, error) {
	res, err := inv.CallRaw(hash, args...)
	return res.Float(), err
}

func (inv *Invoker) CallVector3(hash uint32, args ...any) (Vector3, error) {
	res, err := inv.CallRaw(hash, args...)
	return res.Vector3(), err
}

func (inv *Invoker) CallVoid(hash uint32, args ...any) error {
	_, err := inv.CallRaw(hash, args...)
	return err
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
