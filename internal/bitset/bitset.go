// Package bitset provides dense fixed-size bitsets backed by flat []uint64
// blocks. A Set may own its blocks or view a slice of a larger shared buffer,
// which keeps nested per-depth workspaces allocation-free on hot paths.
package bitset

import "math/bits"

const wordBits = 64

// NumWords returns the number of 64-bit blocks needed for n bits.
func NumWords(n int) int {
	return (n + wordBits - 1) / wordBits
}

// Set is a fixed-capacity bitset over n bits. The zero value is an empty set
// of zero capacity.
type Set struct {
	words []uint64
	n     int
}

// New returns an owning set with capacity n bits, all clear.
func New(n int) Set {
	return Set{words: make([]uint64, NumWords(n)), n: n}
}

// FromWords returns a set of n bits viewing words. Mutations are visible
// through the shared backing slice.
func FromWords(words []uint64, n int) Set {
	return Set{words: words[:NumWords(n)], n: n}
}

// Len returns the capacity in bits.
func (s Set) Len() int { return s.n }

// Words exposes the backing blocks.
func (s Set) Words() []uint64 { return s.words }

// Set sets bit i.
func (s Set) Set(i int) {
	s.words[i/wordBits] |= 1 << (uint(i) % wordBits)
}

// Clear clears bit i.
func (s Set) Clear(i int) {
	s.words[i/wordBits] &^= 1 << (uint(i) % wordBits)
}

// Test reports whether bit i is set.
func (s Set) Test(i int) bool {
	return s.words[i/wordBits]&(1<<(uint(i)%wordBits)) != 0
}

// Reset clears every bit.
func (s Set) Reset() {
	for i := range s.words {
		s.words[i] = 0
	}
}

// Fill sets every bit in [0, n).
func (s Set) Fill() {
	for i := range s.words {
		s.words[i] = ^uint64(0)
	}
	s.trim()
}

// trim clears the unused high bits of the last block.
func (s Set) trim() {
	if s.n%wordBits != 0 && len(s.words) > 0 {
		s.words[len(s.words)-1] &= (1 << (uint(s.n) % wordBits)) - 1
	}
}

// Count returns the number of set bits.
func (s Set) Count() int {
	c := 0
	for _, w := range s.words {
		c += bits.OnesCount64(w)
	}
	return c
}

// Any reports whether any bit is set.
func (s Set) Any() bool {
	for _, w := range s.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// CopyFrom overwrites s with o. The sets must have equal capacity.
func (s Set) CopyFrom(o Set) {
	copy(s.words, o.words)
}

// Or sets s |= o.
func (s Set) Or(o Set) {
	for i, w := range o.words {
		s.words[i] |= w
	}
}

// And sets s &= o.
func (s Set) And(o Set) {
	for i, w := range o.words {
		s.words[i] &= w
	}
}

// AndNot sets s &^= o.
func (s Set) AndNot(o Set) {
	for i, w := range o.words {
		s.words[i] &^= w
	}
}

// NextSet returns the index of the first set bit at or after i, or -1.
func (s Set) NextSet(i int) int {
	if i >= s.n {
		return -1
	}
	wi := i / wordBits
	w := s.words[wi] >> (uint(i) % wordBits)
	if w != 0 {
		return i + bits.TrailingZeros64(w)
	}
	for wi++; wi < len(s.words); wi++ {
		if s.words[wi] != 0 {
			return wi*wordBits + bits.TrailingZeros64(s.words[wi])
		}
	}
	return -1
}

// ForEach calls fn for every set bit in ascending order.
func (s Set) ForEach(fn func(i int)) {
	for i := s.NextSet(0); i >= 0; i = s.NextSet(i + 1) {
		fn(i)
	}
}

// Equal reports whether s and o contain the same bits.
func (s Set) Equal(o Set) bool {
	if s.n != o.n {
		return false
	}
	for i, w := range s.words {
		if w != o.words[i] {
			return false
		}
	}
	return true
}

// Clone returns an owning copy of s.
func (s Set) Clone() Set {
	c := New(s.n)
	copy(c.words, s.words)
	return c
}
