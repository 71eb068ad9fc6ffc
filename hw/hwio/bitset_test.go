package hwio

import (
	"math/rand/v2"
	"testing"
)

func TestAddrSet(t *testing.T) {
	var s AddrSet
	for i := range NumAddrs {
		if s.Has(uint16(i)) {
			t.Fatalf("%04x is in empty set", i)
		}
	}

	for i := range NumAddrs {
		s.Add(uint16(i))
		if !s.Has(uint16(i)) {
			t.Fatalf("%04x not added", i)
		}
		s.Remove(uint16(i))
		if s.Has(uint16(i)) {
			t.Fatalf("%04x not removed", i)
		}
	}

	s.AddRange(0, 0xFFFF)
	if s.Len() != NumAddrs {
		t.Fatalf("Len() = %d after adding all addresses", s.Len())
	}
	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after Clear", s.Len())
	}
}

func TestAddrSetRanges(t *testing.T) {
	var s AddrSet

	for range 2000 {
		lo := uint16(rand.UintN(NumAddrs))
		hi := uint16(rand.UintN(NumAddrs))
		if lo > hi {
			lo, hi = hi, lo
		}

		s.Clear()
		s.AddRange(lo, hi)
		if got, want := s.Len(), int(hi-lo)+1; got != want {
			t.Fatalf("AddRange(%04x, %04x): Len() = %d, want %d", lo, hi, got, want)
		}
		for _, addr := range []uint16{lo, hi, lo + (hi-lo)/2} {
			if !s.Has(addr) {
				t.Fatalf("AddRange(%04x, %04x): %04x missing", lo, hi, addr)
			}
		}
		if lo > 0 && s.Has(lo-1) {
			t.Fatalf("AddRange(%04x, %04x): %04x present", lo, hi, lo-1)
		}
		if hi < 0xFFFF && s.Has(hi+1) {
			t.Fatalf("AddRange(%04x, %04x): %04x present", lo, hi, hi+1)
		}

		s.AddRange(0, 0xFFFF)
		s.RemoveRange(lo, hi)
		if got, want := s.Len(), NumAddrs-(int(hi-lo)+1); got != want {
			t.Fatalf("RemoveRange(%04x, %04x): Len() = %d, want %d", lo, hi, got, want)
		}
	}
}

func TestAddrSetEach(t *testing.T) {
	var s AddrSet
	want := []uint16{0x0000, 0x003F, 0x0040, 0x8000, 0xFFFF}
	for _, a := range want {
		s.Add(a)
	}

	var got []uint16
	s.Each(func(addr uint16) { got = append(got, addr) })
	if len(got) != len(want) {
		t.Fatalf("Each visited %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("Each visited %v, want %v", got, want)
		}
	}
}
