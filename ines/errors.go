package ines

import "errors"

var (
	// ErrFileFormat is returned for files that are not valid iNES images.
	ErrFileFormat = errors.New("invalid iNES file format")

	// ErrNotImplemented is returned for valid but unsupported features
	// (NES 2.0 images, unknown mappers).
	ErrNotImplemented = errors.New("not implemented")

	ErrIndexOutOfBounds   = errors.New("index out of bounds")
	ErrDataOutOfAlignment = errors.New("data out of alignment")
)
