package native

import (
	"log/slog"
	"math"
)

// Channel is the call path into one target. It owns the scratch addresses in
// its Layout and runs at most one call at a time.
type Channel struct {
	target Target
	layout Layout
	log    *slog.Logger
	w      *worker
}

func NewChannel(target Target, layout Layout, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{
		target: target,
		layout: layout,
		log:    logger,
		w:      newWorker(),
	}
}

func (c *Channel) Layout() Layout {
	return c.layout
}

// Call marshals args into the scratch region, executes the function at addr
// and reads back the return buffer.
func (c *Channel) Call(addr uint32, args ...Arg) (Result, error) {
	return do(c.w, func() (Result, error) {
		return c.invoke(addr, args)
	})
}

// Close stops the channel. Calls made afterwards fail with ErrChannelClosed.
func (c *Channel) Close() error {
	c.w.close()
	return nil
}

func (c *Channel) invoke(addr uint32, args []Arg) (Result, error) {
	l := c.layout
	t := c.target

	if l.StringClear > 0 {
		if err := t.WriteBytes(l.StringBase, make([]byte, l.StringClear)); err != nil {
			return Result{}, transportErr("clear strings", l.StringBase, err)
		}
	}

	var strs int
	for i, arg := range args {
		slot := l.ArgumentSlot(i)
		switch arg.Kind {
		case ArgString:
			str := l.StringSlot(strs)
			if err := t.WriteString(str, arg.Str); err != nil {
				return Result{}, transportErr("write string", str, err)
			}
			strs++
			if err := t.WriteUInt32(slot, str); err != nil {
				return Result{}, transportErr("write argument", slot, err)
			}
		case ArgFloat:
			if err := t.WriteFloat(slot, math.Float32frombits(arg.Word)); err != nil {
				return Result{}, transportErr("write argument", slot, err)
			}
		default:
			if err := t.WriteUInt32(slot, arg.Word); err != nil {
				return Result{}, transportErr("write argument", slot, err)
			}
		}
	}

	if err := t.WriteUInt32(l.ArgumentCount, uint32(len(args))); err != nil {
		return Result{}, transportErr("write argument count", l.ArgumentCount, err)
	}
	if err := t.WriteUInt32(l.ArgumentPointer, l.ArgumentArray); err != nil {
		return Result{}, transportErr("write argument pointer", l.ArgumentPointer, err)
	}
	if err := t.WriteUInt32(l.ReturnPointer, l.ReturnArray); err != nil {
		return Result{}, transportErr("write return pointer", l.ReturnPointer, err)
	}

	c.log.Debug("native call", "address", hex32(addr), "args", len(args), "strings", strs)
	if err := t.Execute(addr, l.ReturnPointer); err != nil {
		return Result{}, transportErr("execute", addr, err)
	}

	var res Result
	for i := range res {
		slot := l.ReturnSlot(i)
		v, err := t.ReadUInt32(slot)
		if err != nil {
			return Result{}, transportErr("read result", slot, err)
		}
		res[i] = v
	}
	return res, nil
}
