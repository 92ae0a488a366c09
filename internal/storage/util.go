package storage

import "fmt"

// GetNode reads and decodes the node stored at num
func (d *Dal) GetNode(num PageNum) (*Node, error) {
	if err := d.checkNodePage(num); err != nil {
		return nil, err
	}

	p, err := d.ReadPage(num)
	if err != nil {
		return nil, err
	}

	node := NewEmptyNode()
	node.PageNum = num
	if err := node.Deserialize(p.Data); err != nil {
		return nil, err
	}
	return node, nil
}

// WriteNode allocates a page for nodes that do not have one yet
func (d *Dal) WriteNode(n *Node) (*Node, error) {
	if n.PageNum == MetaPageNum {
		n.PageNum = d.allocatePage()
	}

	pages, err := d.encodeNodes(n)
	if err != nil {
		return nil, err
	}

	if err := d.writePages(pages...); err != nil {
		return nil, err
	}
	return n, nil
}

// encodeNodes serializes every node up front so a node that does not fit is
// reported before any page is touched
func (d *Dal) encodeNodes(nodes ...*Node) ([]*Page, error) {
	pages := make([]*Page, 0, len(nodes))
	for _, n := range nodes {
		if n.PageNum == MetaPageNum {
			return nil, fmt.Errorf("encode: node without a page: %w", ErrCorruptTree)
		}

		p := d.AllocateEmptyPage(n.PageNum)
		if err := n.Serialize(p.Data); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// writePages writes pages then the freelist once
func (d *Dal) writePages(pages ...*Page) error {
	for _, p := range pages {
		if err := d.writeToDisk(p); err != nil {
			return err
		}
	}
	return d.writeFreelist()
}

// Page 0 and the freelist page can never hold a node, and a page past the
// allocator's high mark was never written
func (d *Dal) checkNodePage(num PageNum) error {
	if num == MetaPageNum || num == d.meta.FreelistPage || num > d.freelist.MaxPage() {
		return fmt.Errorf("page %d is not a node page: %w", num, ErrCorruptTree)
	}
	return nil
}

func (d *Dal) MaxThreshold() float64 {
	return d.maxFillPercent * float64(d.pageSize)
}

func (d *Dal) MinThreshold() float64 {
	return d.minFillPercent * float64(d.pageSize)
}

func (d *Dal) IsOverPopulated(n *Node) bool {
	return float64(n.NodeSize()) > d.MaxThreshold()
}

func (d *Dal) IsUnderPopulated(n *Node) bool {
	return float64(n.NodeSize()) < d.MinThreshold()
}

// getSplitIndex returns the first index whose preceding items outgrow the
// minimum threshold while leaving an item to promote, or -1
func (d *Dal) getSplitIndex(n *Node) int {
	size := nodeHeaderSize
	for i := range n.Items {
		size += n.ElementSize(i)

		if float64(size) > d.MinThreshold() && i < len(n.Items)-1 {
			return i + 1
		}
	}
	return -1
}
