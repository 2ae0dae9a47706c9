/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package cache

import (
	"time"

	cchitm "github.com/nabbar/tlscached/cache/item"
	"github.com/nabbar/tlscached/wire"
)

// Stats is a diagnostics snapshot of a Store, consumed by package metrics.
// It is additive observability, not part of the cache protocol.
type Stats struct {
	Count      int
	Capacity   int
	Evictions  uint64
	MemoHits   uint64
	MemoMisses uint64
}

// Store is the ordered (by ascending absolute expiry) session-cache
// collection described by spec section 4.4. It is not safe for concurrent
// use; the cacheserver dispatch loop is its sole owner and caller.
type Store struct {
	entries     []*cchitm.Entry
	capacity    int
	expireDelta int

	memoID  string
	memoIdx int // -1 when invalid

	stats Stats
}

// New returns a Store bounded at capacity entries. capacity must be within
// [wire.CacheMinSize, wire.CacheMaxSize].
func New(capacity int) (*Store, error) {
	if capacity < wire.CacheMinSize || capacity > wire.CacheMaxSize {
		return nil, ErrCapacityRange
	}

	delta := capacity / 30
	if delta < 1 {
		delta = 1
	}

	return &Store{
		capacity:    capacity,
		expireDelta: delta,
		memoIdx:     -1,
		stats:       Stats{Capacity: capacity},
	}, nil
}

// Stats returns a snapshot of the store's diagnostics counters.
func (s *Store) Stats() Stats {
	st := s.stats
	st.Count = len(s.entries)
	return st
}

// sweep removes every entry whose expiry is at or before now from the head
// of the ordered slice (they are, by invariant, exactly the expired prefix)
// and adjusts the memo slot accordingly.
func (s *Store) sweep(now time.Time) {
	n := 0
	for n < len(s.entries) && s.entries[n].Expired(now) {
		n++
	}
	s.dropHead(n)
}

// dropHead removes the first n entries and fixes up the memo slot: it is
// invalidated if it pointed within the dropped prefix, else shifted left.
func (s *Store) dropHead(n int) {
	if n <= 0 {
		return
	}
	if n >= len(s.entries) {
		s.entries = s.entries[:0]
		s.invalidateMemo()
		return
	}

	s.entries = append(s.entries[:0], s.entries[n:]...)

	if s.memoIdx >= 0 {
		if s.memoIdx < n {
			s.invalidateMemo()
		} else {
			s.memoIdx -= n
		}
	}
}

func (s *Store) invalidateMemo() {
	s.memoID = ""
	s.memoIdx = -1
}

// find returns the index of id among live entries, or -1. It consults the
// memo slot first, falling back to a linear scan and repopulating the memo.
func (s *Store) find(id string) int {
	if s.memoIdx >= 0 && s.memoIdx < len(s.entries) && s.entries[s.memoIdx].SessionID == id {
		s.stats.MemoHits++
		return s.memoIdx
	}

	s.stats.MemoMisses++
	for i, e := range s.entries {
		if e.SessionID == id {
			s.memoID = id
			s.memoIdx = i
			return i
		}
	}

	return -1
}

// insertSorted inserts e preserving ascending-expiry order: the insertion
// scan walks from tail toward head, inserting after the first entry whose
// expiry is less than or equal to e's.
func (s *Store) insertSorted(e *cchitm.Entry) int {
	i := len(s.entries) - 1
	for ; i >= 0; i-- {
		if !s.entries[i].ExpiresAt.After(e.ExpiresAt) {
			break
		}
	}
	pos := i + 1

	s.entries = append(s.entries, nil)
	copy(s.entries[pos+1:], s.entries[pos:])
	s.entries[pos] = e

	return pos
}

// Add inserts a new session entry. See spec section 4.4 for the full
// validation/eviction/insertion sequence.
func (s *Store) Add(now time.Time, timeoutMS int64, id string, blob []byte) AddResult {
	if len(id) == 0 || len(id) > wire.MaxIDLen {
		return AddRangeID
	}
	if len(blob) == 0 || len(blob) > wire.MaxDataLen {
		return AddRangeData
	}
	if timeoutMS < 0 || timeoutMS > wire.MaxExpiryMS {
		return AddRangeTimeout
	}

	s.sweep(now)

	if s.find(id) >= 0 {
		return AddDuplicate
	}

	if len(s.entries) >= s.capacity {
		n := s.expireDelta
		if n > len(s.entries) {
			n = len(s.entries)
		}
		s.dropHead(n)
		s.stats.Evictions += uint64(n)
	}

	expiry := now.Add(time.Duration(timeoutMS) * time.Millisecond)
	e := cchitm.New(id, append([]byte(nil), blob...), expiry)
	idx := s.insertSorted(e)

	s.memoID = id
	s.memoIdx = idx

	return AddOK
}

// Get returns a copy of the blob stored for id, or (nil, false) if id is
// absent or expired.
func (s *Store) Get(now time.Time, id string) ([]byte, bool) {
	s.sweep(now)

	idx := s.find(id)
	if idx < 0 {
		return nil, false
	}
	blob := s.entries[idx].Blob
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, true
}

// Len reports the length of the blob stored for id without copying it, for
// two-phase (size-then-fetch) callers.
func (s *Store) Len(now time.Time, id string) (int, bool) {
	s.sweep(now)

	idx := s.find(id)
	if idx < 0 {
		return 0, false
	}
	return len(s.entries[idx].Blob), true
}

// Remove deletes the entry for id, if present.
func (s *Store) Remove(now time.Time, id string) RemoveResult {
	s.sweep(now)

	idx := s.find(id)
	if idx < 0 {
		return RemoveNotFound
	}

	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)

	if s.memoIdx == idx {
		s.invalidateMemo()
	} else if s.memoIdx > idx {
		s.memoIdx--
	}

	return RemoveOK
}

// Have reports whether id is present and not expired.
func (s *Store) Have(now time.Time, id string) bool {
	s.sweep(now)
	return s.find(id) >= 0
}

// NumItems returns the count of live (non-expired) entries.
func (s *Store) NumItems(now time.Time) int {
	s.sweep(now)
	return len(s.entries)
}
