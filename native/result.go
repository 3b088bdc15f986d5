package native

import (
	"fmt"
	"math"
	"strings"
)

// Result is the three-word return buffer. It carries no type tag; the caller
// picks the decoding that matches the native's ABI.
type Result [3]uint32

type Vector3 struct {
	X, Y, Z float32
}

type ReturnKind int

const (
	ReturnVoid ReturnKind = iota
	ReturnBool
	ReturnInt
	ReturnFloat
	ReturnVector3
	ReturnRaw
)

var returnKindNames = [...]string{
	ReturnVoid:    "void",
	ReturnBool:    "bool",
	ReturnInt:     "int",
	ReturnFloat:   "float",
	ReturnVector3: "vec3",
	ReturnRaw:     "raw",
}

func (r Result) Bool() bool {
	return r[0] == 1
}

func (r Result) Int() int32 {
	return int32(r[0])
}

func (r Result) Uint() uint32 {
	return r[0]
}

func (r Result) Float() float32 {
	return math.Float32frombits(r[0])
}

func (r Result) Vector3() Vector3 {
	return Vector3{
		X: math.Float32frombits(r[0]),
		Y: math.Float32frombits(r[1]),
		Z: math.Float32frombits(r[2]),
	}
}

// Decode returns nil for ReturnVoid, the Result itself for ReturnRaw and
// otherwise the matching typed value.
func (r Result) Decode(kind ReturnKind) any {
	switch kind {
	case ReturnBool:
		return r.Bool()
	case ReturnInt:
		return r.Int()
	case ReturnFloat:
		return r.Float()
	case ReturnVector3:
		return r.Vector3()
	case ReturnRaw:
		return r
	}
	return nil
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}

func (k ReturnKind) String() string {
	if k >= 0 && int(k) < len(returnKindNames) {
		return returnKindNames[k]
	}
	return "unknown"
}

func ParseReturnKind(s string) (ReturnKind, error) {
	switch strings.ToLower(s) {
	case "void", "v":
		return ReturnVoid, nil
	case "bool", "b":
		return ReturnBool, nil
	case "int", "i":
		return ReturnInt, nil
	case "float", "f":
		return ReturnFloat, nil
	case "vec3", "vector3", "v3":
		return ReturnVector3, nil
	case "raw", "r":
		return ReturnRaw, nil
	}
	return ReturnVoid, fmt.Errorf("unknown return kind %q", s)
}
