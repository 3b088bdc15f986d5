package native

import (
	"slices"
	"sync"
)

const (
	DefaultTableSize = 6000
	tableStride      = 8
)

type Entry struct {
	Hash    uint32
	Address uint32
}

// Table maps native hashes to their runtime addresses.
type Table struct {
	mu      sync.RWMutex
	natives map[uint32]uint32
}

func (t *Table) Lookup(hash uint32) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	addr, ok := t.natives[hash]
	return addr, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.natives)
}

// Entries returns a snapshot sorted by hash.
func (t *Table) Entries() []Entry {
	t.mu.RLock()
	entries := make([]Entry, 0, len(t.natives))
	for hash, addr := range t.natives {
		entries = append(entries, Entry{hash, addr})
	}
	t.mu.RUnlock()
	slices.SortFunc(entries, func(a, b Entry) int {
		switch {
		case a.Hash < b.Hash:
			return -1
		case a.Hash > b.Hash:
			return 1
		}
		return 0
	})
	return entries
}

// dump clears the table and rebuilds it from the stride-8 (hash, address)
// records at base. It stops at the first zero hash or after limit records and
// returns the number of records taken. On a transport failure the entries read
// so far are kept.
func (t *Table) dump(target Target, base uint32, limit int, progress func(int)) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.natives == nil {
		t.natives = make(map[uint32]uint32)
	}
	clear(t.natives)

	var found int
	for i := 0; i < limit; i++ {
		rec := base + uint32(i)*tableStride
		hash, err := target.ReadUInt32(rec)
		if err != nil {
			return found, transportErr("read hash", rec, err)
		}
		if hash == 0 {
			break
		}
		addr, err := target.ReadUInt32(rec + 4)
		if err != nil {
			return found, transportErr("read address", rec+4, err)
		}
		t.natives[hash] = addr
		found++
		if progress != nil {
			progress(found)
		}
	}
	return found, nil
}
