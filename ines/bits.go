package ines

// bitReader reads bit fields, least significant bits first, from a byte slice.
type bitReader struct {
	buf []byte
	pos int // in bits
}

// bits reads n bits (at most 8) without crossing a byte boundary.
func (r *bitReader) bits(n int) (uint8, error) {
	if n < 1 || n > 8 {
		return 0, ErrIndexOutOfBounds
	}
	idx, off := r.pos/8, r.pos%8
	if idx >= len(r.buf) {
		return 0, ErrIndexOutOfBounds
	}
	if off+n > 8 {
		return 0, ErrDataOutOfAlignment
	}
	v := r.buf[idx] >> off & (1<<n - 1)
	r.pos += n
	return v, nil
}

func (r *bitReader) flag() (bool, error) {
	v, err := r.bits(1)
	return v != 0, err
}

// byte reads a whole byte, the reader must be byte-aligned.
func (r *bitReader) byte() (uint8, error) {
	if r.pos%8 != 0 {
		return 0, ErrDataOutOfAlignment
	}
	return r.bits(8)
}

func (r *bitReader) skip(n int) {
	r.pos += n
}
