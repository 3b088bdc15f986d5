package native

// Layout is the fixed scratch region a target build reserves for native calls.
type Layout struct {
	ReturnPointer   uint32
	ArgumentCount   uint32
	ArgumentPointer uint32
	ReturnArray     uint32
	ArgumentArray   uint32
	StringBase      uint32
	StringStride    uint32
	// StringClear is how many bytes at StringBase are zeroed before each call.
	// It does not grow with the number of string arguments.
	StringClear uint32
}

var DefaultLayout = Layout{
	ReturnPointer:   0x83B66460,
	ArgumentCount:   0x83B66464,
	ArgumentPointer: 0x83B66468,
	ReturnArray:     0x83B66470,
	ArgumentArray:   0x83B66480,
	StringBase:      0x83BAE400,
	StringStride:    0x30,
	StringClear:     0x90,
}

func (l Layout) ArgumentSlot(i int) uint32 {
	return l.ArgumentArray + uint32(i)*4
}

func (l Layout) StringSlot(n int) uint32 {
	return l.StringBase + uint32(n)*l.StringStride
}

func (l Layout) ReturnSlot(i int) uint32 {
	return l.ReturnArray + uint32(i)*4
}
