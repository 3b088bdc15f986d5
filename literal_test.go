package main

import (
	"errors"
	"reflect"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tt := []struct {
		name    string
		in      string
		want    []argToken
		wantErr bool
	}{
		{name: "empty", in: "", want: nil},
		{name: "words", in: "1  0.5f\ttrue", want: []argToken{{text: "1"}, {text: "0.5f"}, {text: "true"}}},
		{name: "double quoted", in: `"hello world" 2`, want: []argToken{{text: "hello world", quoted: true}, {text: "2"}}},
		{name: "single quoted", in: `'a "b"'`, want: []argToken{{text: `a "b"`, quoted: true}}},
		{name: "escapes", in: `"a\"b\\c\n"`, want: []argToken{{text: "a\"b\\c\n", quoted: true}}},
		{name: "empty string", in: `""`, want: []argToken{{text: "", quoted: true}}},
		{name: "quoted number stays string", in: `"12"`, want: []argToken{{text: "12", quoted: true}}},
		{name: "unterminated", in: `"abc`, wantErr: true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitArgs(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("splitArgs(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseLiteral(t *testing.T) {
	tt := []struct {
		name    string
		tok     argToken
		want    any
		wantErr error
	}{
		{name: "string", tok: argToken{text: "PLAYER", quoted: true}, want: "PLAYER"},
		{name: "true", tok: argToken{text: "true"}, want: true},
		{name: "false upper", tok: argToken{text: "FALSE"}, want: false},
		{name: "decimal", tok: argToken{text: "42"}, want: uint32(42)},
		{name: "hex", tok: argToken{text: "0x83B66460"}, want: uint32(0x83B66460)},
		{name: "hex ending in f", tok: argToken{text: "0xF"}, want: uint32(15)},
		{name: "negative", tok: argToken{text: "-1"}, want: int32(-1)},
		{name: "negative hex", tok: argToken{text: "-0x10"}, want: int32(-16)},
		{name: "float", tok: argToken{text: "1.5"}, want: float32(1.5)},
		{name: "float suffix", tok: argToken{text: "0.1f"}, want: float32(0.1)},
		{name: "integer float suffix", tok: argToken{text: "3f"}, want: float32(3)},
		{name: "negative float", tok: argToken{text: "-9.8"}, want: float32(-9.8)},
		{name: "exponent", tok: argToken{text: "1e3"}, want: float32(1000)},
		{name: "max uint32", tok: argToken{text: "4294967295"}, want: uint32(0xFFFFFFFF)},
		{name: "bare word", tok: argToken{text: "hello"}, wantErr: errUnquoted},
		{name: "inf is not a float", tok: argToken{text: "inf"}, wantErr: errUnquoted},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseLiteral(tc.tok)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v (%v)", tc.wantErr, err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("parseLiteral(%q) = %#v, want %#v", tc.tok.text, got, tc.want)
			}
		})
	}

	t.Run("overflow", func(t *testing.T) {
		for _, s := range []string{"4294967296", "-2147483649", "0x1FFFFFFFF"} {
			if _, err := parseLiteral(argToken{text: s}); !errors.Is(err, errOverflow) {
				t.Errorf("%s: expected errOverflow, got %v", s, err)
			}
		}
	})

	t.Run("min int32", func(t *testing.T) {
		got, err := parseLiteral(argToken{text: "-2147483648"})
		if err != nil || got != int32(-2147483648) {
			t.Fatalf("got %#v, %v", got, err)
		}
	})
}

func TestNarrow(t *testing.T) {
	if v, ok := narrow[uint32](uint64(0xFFFFFFFF)); !ok || v != 0xFFFFFFFF {
		t.Errorf("narrow[uint32](0xFFFFFFFF) = 0x%X, %v", v, ok)
	}
	if _, ok := narrow[uint32](uint64(1) << 32); ok {
		t.Error("narrow[uint32](1<<32) should not fit")
	}
	if v, ok := narrow[int32](int64(-7)); !ok || v != -7 {
		t.Errorf("narrow[int32](-7) = %d, %v", v, ok)
	}
	if _, ok := narrow[int32](int64(1) << 31); ok {
		t.Error("narrow[int32](1<<31) should not fit")
	}
	if _, ok := narrow[uint32](int64(-1)); ok {
		t.Error("narrow[uint32](-1) should not fit")
	}
	if _, ok := narrow[int32](uint64(0x80000000)); ok {
		t.Error("narrow[int32](0x80000000) should not fit")
	}
}
