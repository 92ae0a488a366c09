package storage

import "fmt"

// Find returns the item stored under key, or nil when there is none
func (c *Collection) Find(dal *Dal, key []byte) (*Item, error) {
	if c.root == MetaPageNum {
		return nil, nil
	}

	curr := c.root
	depth := uint64(0)

	for {
		if depth > uint64(dal.Freelist().MaxPage()) {
			return nil, fmt.Errorf("Find: descent longer than page count: %w", ErrCorruptTree)
		}
		depth++

		node, err := dal.GetNode(curr)
		if err != nil {
			return nil, err
		}

		found, idx := node.FindKeyInNode(key)
		if found {
			return node.Items[idx], nil
		}

		if node.IsLeaf() {
			return nil, nil
		}

		if idx >= len(node.ChildNodes) {
			return nil, fmt.Errorf("Find: page %d has no child %d: %w", curr, idx, ErrCorruptTree)
		}
		curr = node.ChildNodes[idx]
	}
}
