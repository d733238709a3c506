// Package bitset implements a word-backed bit set used by the registry's
// token-graph traversals as a dense visited/membership mark.
package bitset

import (
	"fmt"
	"math/bits"
)

const wordBits = 64

// NewBitSet returns a set able to hold indices in [0, len).
func NewBitSet(len uint64) BitSet {
	words := (len + wordBits - 1) / wordBits
	return make(BitSet, words)
}

type BitSet []uint64

// IsSet reports whether index is set. Indices beyond the current capacity
// read as unset.
func (b BitSet) IsSet(index uint64) bool {
	wordPosition := index / wordBits
	if wordPosition >= uint64(len(b)) {
		return false
	}
	mask := uint64(1) << (index % wordBits)
	return (b[wordPosition] & mask) != 0
}

// Set marks index. It panics when index is out of capacity; growth is the
// caller's decision via Grow.
func (b BitSet) Set(index uint64) {
	wordPosition := index / wordBits
	if wordPosition >= uint64(len(b)) {
		panic(fmt.Sprintf("bitset: index %d out of capacity %d", index, uint64(len(b))*wordBits))
	}
	b[wordPosition] |= uint64(1) << (index % wordBits)
}

// Unset clears index. Out-of-capacity indices are already unset.
func (b BitSet) Unset(index uint64) {
	wordPosition := index / wordBits
	if wordPosition >= uint64(len(b)) {
		return
	}
	b[wordPosition] &^= uint64(1) << (index % wordBits)
}

// Grow returns a set with capacity for indices in [0, len), reusing the
// receiver's storage when it is already large enough.
func (b BitSet) Grow(len uint64) BitSet {
	words := (len + wordBits - 1) / wordBits
	if words <= uint64(cap(b)) {
		grown := b[:words]
		return grown
	}
	grown := make(BitSet, words)
	copy(grown, b)
	return grown
}

// Clear zeroes every word in place.
func (b BitSet) Clear() {
	for i := range b {
		b[i] = 0
	}
}

// Count returns the number of set bits.
func (b BitSet) Count() int {
	total := 0
	for _, word := range b {
		total += bits.OnesCount64(word)
	}
	return total
}

// NextSet returns the first set index >= from, or ok == false when no set
// bit remains.
func (b BitSet) NextSet(from uint64) (index uint64, ok bool) {
	wordPosition := from / wordBits
	if wordPosition >= uint64(len(b)) {
		return 0, false
	}

	// Mask off bits below `from` in the first word, then scan whole words.
	word := b[wordPosition] &^ ((uint64(1) << (from % wordBits)) - 1)
	for {
		if word != 0 {
			return wordPosition*wordBits + uint64(bits.TrailingZeros64(word)), true
		}
		wordPosition++
		if wordPosition >= uint64(len(b)) {
			return 0, false
		}
		word = b[wordPosition]
	}
}

// SetFrom overwrites the receiver with the contents of o. Both sets must be
// the same size; a mismatch is a programmer error.
func (b BitSet) SetFrom(o BitSet) {
	if len(b) != len(o) {
		panic(fmt.Sprintf("bitsets must be same size: got %d vs %d", len(b), len(o)))
	}
	copy(b, o)
}
