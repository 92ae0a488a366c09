package storage

import "fmt"

// Parent is one step of the root to target path. index is the position of
// the page among its parent's children, 0 for the root.
type Parent struct {
	pageID PageNum
	index  int
}

// ParentStack is the ancestor trace built while descending
type ParentStack struct {
	items []Parent
}

func (s *ParentStack) Len() int {
	return len(s.items)
}

func (s *ParentStack) At(i int) Parent {
	return s.items[i]
}

func (s *ParentStack) Push(p Parent) {
	s.items = append(s.items, p)
}

// descent is what findNode hands back to Put: the target node, where the key
// is (or goes), and every node visited keyed by page number
type descent struct {
	target *Node
	index  int
	found  bool
	trace  *ParentStack
	nodes  map[PageNum]*Node
}

// findNode walks from root toward key, stopping at an exact match or at the
// leaf the key belongs in
func (c *Collection) findNode(dal *Dal, key []byte) (*descent, error) {
	res := &descent{
		trace: &ParentStack{},
		nodes: make(map[PageNum]*Node),
	}

	curr := c.root
	childIdx := 0

	for {
		if uint64(res.trace.Len()) > uint64(dal.Freelist().MaxPage()) {
			return nil, fmt.Errorf("findNode: descent longer than page count: %w", ErrCorruptTree)
		}

		node, err := dal.GetNode(curr)
		if err != nil {
			return nil, err
		}

		res.trace.Push(Parent{pageID: curr, index: childIdx})
		res.nodes[curr] = node

		found, idx := node.FindKeyInNode(key)
		if found || node.IsLeaf() {
			res.target = node
			res.index = idx
			res.found = found
			return res, nil
		}

		if idx >= len(node.ChildNodes) {
			return nil, fmt.Errorf("findNode: page %d has no child %d: %w", curr, idx, ErrCorruptTree)
		}

		childIdx = idx
		curr = node.ChildNodes[idx]
	}
}
