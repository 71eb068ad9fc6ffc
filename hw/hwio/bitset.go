package hwio

import (
	"fmt"
	"math/bits"
)

const (
	NumAddrs = 0x10000 // 64K CPU address space
	wordBits = 64
)

// AddrSet is a set of 16-bit addresses, used to mark breakpoints and
// watchpoints. The zero value is an empty set.
type AddrSet struct {
	words [NumAddrs / wordBits]uint64
}

func (s *AddrSet) Add(addr uint16) {
	s.words[addr/wordBits] |= 1 << (addr % wordBits)
}

func (s *AddrSet) Remove(addr uint16) {
	s.words[addr/wordBits] &^= 1 << (addr % wordBits)
}

func (s *AddrSet) Has(addr uint16) bool {
	return s.words[addr/wordBits]&(1<<(addr%wordBits)) != 0
}

// AddRange adds all addresses in [lo, hi], bounds included.
func (s *AddrSet) AddRange(lo, hi uint16) { s.updateRange(lo, hi, true) }

// RemoveRange removes all addresses in [lo, hi], bounds included.
func (s *AddrSet) RemoveRange(lo, hi uint16) { s.updateRange(lo, hi, false) }

func (s *AddrSet) updateRange(lo, hi uint16, set bool) {
	if lo > hi {
		panic(fmt.Sprintf("invalid address range [%04x, %04x]", lo, hi))
	}

	apply := func(i int, mask uint64) {
		if set {
			s.words[i] |= mask
		} else {
			s.words[i] &^= mask
		}
	}

	first, last := int(lo/wordBits), int(hi/wordBits)
	lomask := ^uint64(0) << (lo % wordBits)
	himask := ^uint64(0) >> (wordBits - 1 - hi%wordBits)
	if first == last {
		apply(first, lomask&himask)
		return
	}
	apply(first, lomask)
	for i := first + 1; i < last; i++ {
		apply(i, ^uint64(0))
	}
	apply(last, himask)
}

// Len returns the number of addresses in the set.
func (s *AddrSet) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Clear empties the set.
func (s *AddrSet) Clear() {
	clear(s.words[:])
}

// Each calls fn for each address in the set, in increasing order.
func (s *AddrSet) Each(fn func(addr uint16)) {
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			fn(uint16(i*wordBits + b))
			w &= w - 1
		}
	}
}
