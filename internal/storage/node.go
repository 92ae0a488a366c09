package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Node page layout:
//
//	[0]      is leaf (1 leaf, 0 internal)
//	[1:3]    item count, little endian
//	per item (internal only) 8 byte child page, then key len and value len bytes
//	(internal only) 8 byte rightmost child
//	...free space...
//	item data packed from the end of the page, each item's value to the
//	right of its key, first item rightmost
type Node struct {
	PageNum    PageNum
	Items      []*Item
	ChildNodes []PageNum
}

type Item struct {
	Key   []byte
	Value []byte
}

func NewItem(key, value []byte) *Item {
	return &Item{
		Key:   key,
		Value: value,
	}
}

func NewEmptyNode() *Node {
	return &Node{}
}

func NewNode(items []*Item, childNodes []PageNum) *Node {
	return &Node{
		Items:      items,
		ChildNodes: childNodes,
	}
}

func (n *Node) IsLeaf() bool {
	return len(n.ChildNodes) == 0
}

func checkItem(item *Item) error {
	if len(item.Key) > maxItemLength {
		return fmt.Errorf("key of %d bytes (max %d): %w", len(item.Key), maxItemLength, ErrEncodingTooLarge)
	}
	if len(item.Value) > maxItemLength {
		return fmt.Errorf("value of %d bytes (max %d): %w", len(item.Value), maxItemLength, ErrEncodingTooLarge)
	}
	return nil
}

func (n *Node) Serialize(buf []byte) error {
	if len(n.Items) > maxItemCount {
		return fmt.Errorf("node %d: %d items: %w", n.PageNum, len(n.Items), ErrEncodingTooLarge)
	}

	isLeaf := n.IsLeaf()
	if !isLeaf && len(n.ChildNodes) != len(n.Items)+1 {
		return fmt.Errorf("node %d: %d children for %d items: %w",
			n.PageNum, len(n.ChildNodes), len(n.Items), ErrCorruptTree)
	}

	if len(buf) < nodeHeaderSize {
		return fmt.Errorf("node %d: %d byte buffer: %w", n.PageNum, len(buf), ErrEncodingTooLarge)
	}

	leftPos := 0
	rightPos := len(buf)

	if isLeaf {
		buf[leftPos] = 1
	} else {
		buf[leftPos] = 0
	}
	leftPos++

	binary.LittleEndian.PutUint16(buf[leftPos:], uint16(len(n.Items)))
	leftPos += bytesInU16

	for i, item := range n.Items {
		if err := checkItem(item); err != nil {
			return fmt.Errorf("node %d item %d: %w", n.PageNum, i, err)
		}

		fixed := itemLengthSize
		if !isLeaf {
			fixed += bytesInU64
		}
		variable := len(item.Key) + len(item.Value)
		if leftPos+fixed > rightPos-variable {
			return fmt.Errorf("node %d does not fit in %d bytes: %w", n.PageNum, len(buf), ErrEncodingTooLarge)
		}

		if !isLeaf {
			binary.LittleEndian.PutUint64(buf[leftPos:], uint64(n.ChildNodes[i]))
			leftPos += bytesInU64
		}

		buf[leftPos] = byte(len(item.Key))
		leftPos++
		buf[leftPos] = byte(len(item.Value))
		leftPos++

		rightPos -= len(item.Value)
		copy(buf[rightPos:], item.Value)

		rightPos -= len(item.Key)
		copy(buf[rightPos:], item.Key)
	}

	if !isLeaf {
		if leftPos+bytesInU64 > rightPos {
			return fmt.Errorf("node %d does not fit in %d bytes: %w", n.PageNum, len(buf), ErrEncodingTooLarge)
		}
		binary.LittleEndian.PutUint64(buf[leftPos:], uint64(n.ChildNodes[len(n.ChildNodes)-1]))
	}

	return nil
}

func (n *Node) Deserialize(buf []byte) error {
	if len(buf) < nodeHeaderSize {
		return fmt.Errorf("node %d: %d byte buffer: %w", n.PageNum, len(buf), ErrEncodingTooLarge)
	}

	leftPos := 0
	rightPos := len(buf)

	isLeaf := buf[leftPos] == 1
	leftPos++

	count := int(binary.LittleEndian.Uint16(buf[leftPos:]))
	leftPos += bytesInU16

	items := make([]*Item, 0, count)
	var children []PageNum
	if !isLeaf {
		children = make([]PageNum, 0, count+1)
	}

	for i := 0; i < count; i++ {
		fixed := itemLengthSize
		if !isLeaf {
			fixed += bytesInU64
		}
		if leftPos+fixed > rightPos {
			return fmt.Errorf("node %d: item %d header past data region: %w", n.PageNum, i, ErrEncodingTooLarge)
		}

		if !isLeaf {
			children = append(children, PageNum(binary.LittleEndian.Uint64(buf[leftPos:])))
			leftPos += bytesInU64
		}

		keyLen := int(buf[leftPos])
		leftPos++
		valueLen := int(buf[leftPos])
		leftPos++

		if rightPos-keyLen-valueLen < leftPos {
			return fmt.Errorf("node %d: item %d data overlaps header: %w", n.PageNum, i, ErrEncodingTooLarge)
		}

		rightPos -= valueLen
		value := bytes.Clone(buf[rightPos : rightPos+valueLen])

		rightPos -= keyLen
		key := bytes.Clone(buf[rightPos : rightPos+keyLen])

		items = append(items, NewItem(key, value))
	}

	if !isLeaf {
		if leftPos+bytesInU64 > rightPos {
			return fmt.Errorf("node %d: last child past data region: %w", n.PageNum, ErrEncodingTooLarge)
		}
		children = append(children, PageNum(binary.LittleEndian.Uint64(buf[leftPos:])))
	}

	n.Items = items
	n.ChildNodes = children
	return nil
}

// ElementSize is the budget one item takes in the fill factor policy. It
// always counts a child pointer, leaf or not.
func (n *Node) ElementSize(i int) int {
	return ElementSize(n.Items[i])
}

func ElementSize(item *Item) int {
	return len(item.Key) + len(item.Value) + itemLengthSize + bytesInU64
}

// NodeSize includes the header and the trailing child pointer
func (n *Node) NodeSize() int {
	size := nodeHeaderSize
	for i := range n.Items {
		size += n.ElementSize(i)
	}
	return size + bytesInU64
}

// FindKeyInNode scans the items in order. On a miss the index is where key
// would be inserted, which is also the child to descend into.
func (n *Node) FindKeyInNode(key []byte) (bool, int) {
	for i, existing := range n.Items {
		switch bytes.Compare(existing.Key, key) {
		case 0:
			return true, i
		case 1:
			return false, i
		}
	}
	return false, len(n.Items)
}

func (n *Node) AddItem(item *Item, idx int) error {
	if idx < 0 || idx > len(n.Items) {
		return fmt.Errorf("add item at %d of %d: %w", idx, len(n.Items), ErrOutOfBounds)
	}

	n.Items = append(n.Items, nil)
	copy(n.Items[idx+1:], n.Items[idx:])
	n.Items[idx] = item
	return nil
}

func (n *Node) addChild(num PageNum, idx int) error {
	if idx < 0 || idx > len(n.ChildNodes) {
		return fmt.Errorf("add child at %d of %d: %w", idx, len(n.ChildNodes), ErrOutOfBounds)
	}

	n.ChildNodes = append(n.ChildNodes, 0)
	copy(n.ChildNodes[idx+1:], n.ChildNodes[idx:])
	n.ChildNodes[idx] = num
	return nil
}
