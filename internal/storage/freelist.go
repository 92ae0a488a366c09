package storage

import (
	"encoding/binary"
	"fmt"
)

// Freelist hands out page numbers. Pages above maxPage have never been used,
// released pages may be handed out again in any order.
type Freelist struct {
	maxPage       PageNum
	releasedPages []PageNum
}

func NewFreelist() *Freelist {
	return &Freelist{
		maxPage:       MetaPageNum,
		releasedPages: []PageNum{},
	}
}

func (fr *Freelist) MaxPage() PageNum {
	return fr.maxPage
}

func (fr *Freelist) ReleasedPages() []PageNum {
	return append([]PageNum(nil), fr.releasedPages...)
}

func (fr *Freelist) GetNextPage() PageNum {
	if n := len(fr.releasedPages); n > 0 {
		num := fr.releasedPages[n-1]
		fr.releasedPages = fr.releasedPages[:n-1]
		return num
	}

	fr.maxPage++
	return fr.maxPage
}

func (fr *Freelist) clone() *Freelist {
	return &Freelist{
		maxPage:       fr.maxPage,
		releasedPages: append([]PageNum{}, fr.releasedPages...),
	}
}

// Callers must make sure nothing references the page any more
func (fr *Freelist) ReleasePage(num PageNum) {
	fr.releasedPages = append(fr.releasedPages, num)
}

func (fr *Freelist) encodedSize() int {
	return bytesInU64 * (len(fr.releasedPages) + 2)
}

func (fr *Freelist) Serialize(buf []byte) error {
	if fr.encodedSize() > len(buf) {
		return fmt.Errorf("freelist serialize (%d released pages, %d byte buffer): %w",
			len(fr.releasedPages), len(buf), ErrEncodingTooLarge)
	}

	pos := 0
	binary.LittleEndian.PutUint64(buf[pos:], uint64(fr.maxPage))
	pos += bytesInU64

	binary.LittleEndian.PutUint64(buf[pos:], uint64(len(fr.releasedPages)))
	pos += bytesInU64

	for _, num := range fr.releasedPages {
		binary.LittleEndian.PutUint64(buf[pos:], uint64(num))
		pos += bytesInU64
	}

	return nil
}

func (fr *Freelist) Deserialize(buf []byte) error {
	if len(buf) < 2*bytesInU64 {
		return fmt.Errorf("freelist deserialize (%d byte buffer): %w", len(buf), ErrEncodingTooLarge)
	}

	pos := 0
	maxPage := PageNum(binary.LittleEndian.Uint64(buf[pos:]))
	pos += bytesInU64

	count := binary.LittleEndian.Uint64(buf[pos:])
	pos += bytesInU64

	if count > uint64((len(buf)-pos)/bytesInU64) {
		return fmt.Errorf("freelist deserialize (%d released pages): %w", count, ErrEncodingTooLarge)
	}

	released := make([]PageNum, 0, count)
	for i := uint64(0); i < count; i++ {
		released = append(released, PageNum(binary.LittleEndian.Uint64(buf[pos:])))
		pos += bytesInU64
	}

	fr.maxPage = maxPage
	fr.releasedPages = released
	return nil
}
