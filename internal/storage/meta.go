package storage

import (
	"encoding/binary"
	"fmt"
)

const (
	rootOffset     int = 0
	freelistOffset int = 8
	metaSize       int = 16
)

// Meta lives in page 0. Root 0 means the tree is empty, page 0 can never
// hold a node so the value is free to carry that meaning.
type Meta struct {
	Root         PageNum
	FreelistPage PageNum
}

func NewMeta() *Meta {
	return &Meta{}
}

func (m *Meta) Serialize(buf []byte) error {
	if m.FreelistPage == MetaPageNum {
		return fmt.Errorf("meta serialize: freelist page unset: %w", ErrNotInitialized)
	}

	if len(buf) < metaSize {
		return fmt.Errorf("meta serialize (%d byte buffer): %w", len(buf), ErrEncodingTooLarge)
	}

	binary.LittleEndian.PutUint64(buf[rootOffset:], uint64(m.Root))
	binary.LittleEndian.PutUint64(buf[freelistOffset:], uint64(m.FreelistPage))
	return nil
}

func (m *Meta) Deserialize(buf []byte) error {
	if len(buf) < metaSize {
		return fmt.Errorf("meta deserialize (%d byte buffer): %w", len(buf), ErrEncodingTooLarge)
	}

	m.Root = PageNum(binary.LittleEndian.Uint64(buf[rootOffset:]))
	m.FreelistPage = PageNum(binary.LittleEndian.Uint64(buf[freelistOffset:]))
	return nil
}
