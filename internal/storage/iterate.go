package storage

import (
	"bytes"
	"fmt"
)

type frame struct {
	node *Node
	pos  int
}

// ForEach visits every item in ascending key order. Returning an error from
// fn stops the walk and hands the error back.
func (c *Collection) ForEach(dal *Dal, fn func(item *Item) error) error {
	if c.root == MetaPageNum {
		return nil
	}

	root, err := dal.GetNode(c.root)
	if err != nil {
		return err
	}

	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		n := top.node

		if n.IsLeaf() {
			for _, item := range n.Items {
				if err := fn(item); err != nil {
					return err
				}
			}
			stack = stack[:len(stack)-1]
			continue
		}

		// even positions are children, odd positions the items between them
		if top.pos > 2*len(n.Items) {
			stack = stack[:len(stack)-1]
			continue
		}

		pos := top.pos
		top.pos++

		if pos%2 == 1 {
			if err := fn(n.Items[pos/2]); err != nil {
				return err
			}
			continue
		}

		child, err := dal.GetNode(n.ChildNodes[pos/2])
		if err != nil {
			return err
		}
		stack = append(stack, frame{node: child})
	}

	return nil
}

// Walk visits every node top down with its depth, the root being depth 0
func (c *Collection) Walk(dal *Dal, fn func(n *Node, depth int) error) error {
	if c.root == MetaPageNum {
		return nil
	}

	type step struct {
		page  PageNum
		depth int
	}

	queue := []step{{page: c.root}}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]

		n, err := dal.GetNode(s.page)
		if err != nil {
			return err
		}

		if err := fn(n, s.depth); err != nil {
			return err
		}

		for _, child := range n.ChildNodes {
			queue = append(queue, step{page: child, depth: s.depth + 1})
		}
	}

	return nil
}

// Check verifies the tree shape: keys strictly ascending inside every node
// and within the range their parent allows, internal nodes carrying one more
// child than items, and all leaves at the same depth
func (c *Collection) Check(dal *Dal) error {
	if c.root == MetaPageNum {
		return nil
	}

	type bounded struct {
		page   PageNum
		depth  int
		lo, hi []byte
	}

	leafDepth := -1
	seen := make(map[PageNum]bool)
	stack := []bounded{{page: c.root}}

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if seen[b.page] {
			return fmt.Errorf("check: page %d reachable twice: %w", b.page, ErrCorruptTree)
		}
		seen[b.page] = true

		n, err := dal.GetNode(b.page)
		if err != nil {
			return err
		}

		for i, item := range n.Items {
			if i > 0 && bytes.Compare(n.Items[i-1].Key, item.Key) >= 0 {
				return fmt.Errorf("check: page %d item %d out of order: %w", b.page, i, ErrCorruptTree)
			}
			if b.lo != nil && bytes.Compare(item.Key, b.lo) <= 0 {
				return fmt.Errorf("check: page %d item %d below parent bound: %w", b.page, i, ErrCorruptTree)
			}
			if b.hi != nil && bytes.Compare(item.Key, b.hi) >= 0 {
				return fmt.Errorf("check: page %d item %d above parent bound: %w", b.page, i, ErrCorruptTree)
			}
		}

		if n.IsLeaf() {
			if leafDepth == -1 {
				leafDepth = b.depth
			} else if leafDepth != b.depth {
				return fmt.Errorf("check: leaf %d at depth %d, expected %d: %w", b.page, b.depth, leafDepth, ErrCorruptTree)
			}
			continue
		}

		if len(n.ChildNodes) != len(n.Items)+1 {
			return fmt.Errorf("check: page %d has %d children for %d items: %w",
				b.page, len(n.ChildNodes), len(n.Items), ErrCorruptTree)
		}

		for i, child := range n.ChildNodes {
			lo, hi := b.lo, b.hi
			if i > 0 {
				lo = n.Items[i-1].Key
			}
			if i < len(n.Items) {
				hi = n.Items[i].Key
			}
			stack = append(stack, bounded{page: child, depth: b.depth + 1, lo: lo, hi: hi})
		}
	}

	return nil
}
