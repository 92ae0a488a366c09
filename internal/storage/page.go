package storage

const PageSize = 4096

// Page 0 always holds the meta record
const MetaPageNum PageNum = 0

const (
	bytesInU16     = 2
	bytesInU64     = 8
	nodeHeaderSize = 3
	// key length + value length
	itemLengthSize = 2
	maxItemLength  = 255
	maxItemCount   = 65535
	// ElementSize of an item with the longest key and value
	maxElementSize = 2*maxItemLength + itemLengthSize + bytesInU64
	// a node holding one maxElementSize item
	minPageSize = nodeHeaderSize + maxElementSize + bytesInU64
)

type PageNum uint64

type Page struct {
	Num  PageNum
	Data []byte
}

func NewPage(num PageNum, size int) *Page {
	return &Page{
		Num:  num,
		Data: make([]byte, size),
	}
}
