package native

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/modern-go/reflect2"
)

type ArgKind int

const (
	ArgUint ArgKind = iota
	ArgFloat
	ArgString
)

// Arg is one argument slot. Floats keep their IEEE-754 bits in Word.
type Arg struct {
	Kind ArgKind
	Word uint32
	Str  string
}

func Uint(v uint32) Arg {
	return Arg{Kind: ArgUint, Word: v}
}

func Int(v int32) Arg {
	return Arg{Kind: ArgUint, Word: uint32(v)}
}

func Float(f float32) Arg {
	return Arg{Kind: ArgFloat, Word: math.Float32bits(f)}
}

func Str(s string) Arg {
	return Arg{Kind: ArgString, Str: s}
}

func Bool(b bool) Arg {
	if b {
		return Uint(1)
	}
	return Uint(0)
}

func (a Arg) Float() float32 {
	return math.Float32frombits(a.Word)
}

func (a Arg) String() string {
	switch a.Kind {
	case ArgFloat:
		return strconv.FormatFloat(float64(a.Float()), 'g', -1, 32) + "f"
	case ArgString:
		return strconv.Quote(a.Str)
	}
	return fmt.Sprintf("0x%X", a.Word)
}

func (k ArgKind) String() string {
	switch k {
	case ArgUint:
		return "uint"
	case ArgFloat:
		return "float"
	case ArgString:
		return "string"
	}
	return "unknown"
}

// ToArg classifies a Go value into an argument slot. Named types are
// classified by their underlying kind; integers wider than 32 bits are
// truncated.
func ToArg(v any) (Arg, error) {
	switch x := v.(type) {
	case nil:
		return Arg{}, fmt.Errorf("%w: nil", ErrArgumentInvalid)
	case Arg:
		return x, nil
	case string:
		return Str(x), nil
	case float32:
		return Float(x), nil
	case float64:
		return Float(float32(x)), nil
	case bool:
		return Bool(x), nil
	}
	typ := reflect2.TypeOf(v)
	ptr := reflect2.PtrOf(v)
	switch typ.Kind() {
	case reflect.Int:
		return Uint(uint32(*(*int)(ptr))), nil
	case reflect.Int8:
		return Uint(uint32(*(*int8)(ptr))), nil
	case reflect.Int16:
		return Uint(uint32(*(*int16)(ptr))), nil
	case reflect.Int32:
		return Uint(uint32(*(*int32)(ptr))), nil
	case reflect.Int64:
		return Uint(uint32(*(*int64)(ptr))), nil
	case reflect.Uint:
		return Uint(uint32(*(*uint)(ptr))), nil
	case reflect.Uint8:
		return Uint(uint32(*(*uint8)(ptr))), nil
	case reflect.Uint16:
		return Uint(uint32(*(*uint16)(ptr))), nil
	case reflect.Uint32:
		return Uint(*(*uint32)(ptr)), nil
	case reflect.Uint64:
		return Uint(uint32(*(*uint64)(ptr))), nil
	case reflect.Uintptr:
		return Uint(uint32(*(*uintptr)(ptr))), nil
	case reflect.Float32:
		return Float(*(*float32)(ptr)), nil
	case reflect.Float64:
		return Float(float32(*(*float64)(ptr))), nil
	case reflect.Bool:
		return Bool(*(*bool)(ptr)), nil
	case reflect.String:
		return Str(*(*string)(ptr)), nil
	}
	return Arg{}, fmt.Errorf("%w: %s", ErrArgumentInvalid, typ.String())
}

func ToArgs(values ...any) ([]Arg, error) {
	args := make([]Arg, len(values))
	for i, v := range values {
		arg, err := ToArg(v)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = arg
	}
	return args, nil
}
