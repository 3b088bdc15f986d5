// Package joaat implements the Jenkins one-at-a-time hash used to key native
// tables by name.
package joaat

import (
	"strconv"
	"strings"
)

// Hash returns the one-at-a-time hash of the lower-cased UTF-8 bytes of key.
func Hash(key string) uint32 {
	return Sum([]byte(strings.ToLower(key)))
}

// Sum hashes b as-is, without case folding.
func Sum(b []byte) uint32 {
	var h uint32
	for _, c := range b {
		h += uint32(c)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h
}

// Parse accepts either a 0x-prefixed hash literal or a name. The second
// result reports whether s was taken as a literal.
func Parse(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if v, err := strconv.ParseUint(s[2:], 16, 32); err == nil {
			return uint32(v), true
		}
	}
	return Hash(s), false
}
