package storage

import "errors"

var (
	// dal
	ErrNotInitialized = errors.New("database not initialized")
	ErrIO             = errors.New("i/o error")
	// encoding
	ErrEncodingTooLarge = errors.New("value too large for encoding")
	// btree
	ErrOutOfBounds = errors.New("index out of bounds")
	ErrCorruptTree = errors.New("btree is corrupt")
)
