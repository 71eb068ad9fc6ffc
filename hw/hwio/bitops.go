package hwio

// Bit8 reports whether bit n of v is set.
func Bit8(v uint8, n uint) bool {
	return v&(1<<n) != 0
}

// Biti8 returns bit n of v, as 0 or 1.
func Biti8(v uint8, n uint) uint8 {
	return v >> n & 1
}

// SetBit8 sets or clears bit n of v.
func SetBit8(v *uint8, n uint, on bool) {
	if on {
		*v |= 1 << n
	} else {
		*v &^= 1 << n
	}
}

func Bit16(v uint16, n uint) bool {
	return v&(1<<n) != 0
}

func SetBit16(v *uint16, n uint, on bool) {
	if on {
		*v |= 1 << n
	} else {
		*v &^= 1 << n
	}
}

// B2I converts a boolean to 0 or 1.
func B2I[T ~uint8 | ~uint16 | ~int](b bool) T {
	if b {
		return 1
	}
	return 0
}
