package storage

import "fmt"

// A node needs at least one item to keep and one to promote
func canSplit(n *Node) bool {
	return len(n.Items) >= 2
}

// split moves the tail of child into a new sibling and promotes the item in
// between into parent at childIdx. The sibling lands right of child and gets
// its page here. Nothing is written.
func (c *Collection) split(dal *Dal, parent, child *Node, childIdx int) (*Node, error) {
	if !canSplit(child) {
		return nil, fmt.Errorf("split: page %d has %d items: %w", child.PageNum, len(child.Items), ErrOutOfBounds)
	}

	splitIndex := dal.getSplitIndex(child)
	if splitIndex == -1 {
		// No boundary passes the minimum threshold, fall back to the middle
		splitIndex = len(child.Items) / 2
	}

	promoted := child.Items[splitIndex]

	sibling := NewNode(append([]*Item(nil), child.Items[splitIndex+1:]...), nil)
	if !child.IsLeaf() {
		sibling.ChildNodes = append([]PageNum(nil), child.ChildNodes[splitIndex+1:]...)
		child.ChildNodes = child.ChildNodes[:splitIndex+1]
	}
	child.Items = child.Items[:splitIndex]

	if err := parent.AddItem(promoted, childIdx); err != nil {
		return nil, err
	}

	sibling.PageNum = dal.allocatePage()
	if err := parent.addChild(sibling.PageNum, childIdx+1); err != nil {
		return nil, err
	}

	dal.metrics.Split()
	dal.log.Debugf("split: page %d at %d into sibling %d, parent %d", child.PageNum, splitIndex, sibling.PageNum, parent.PageNum)
	return sibling, nil
}

// splitToFit keeps splitting child and the siblings it sheds until each one is
// within the maximum threshold. Only a single item node may stay above it.
func (c *Collection) splitToFit(dal *Dal, parent, child *Node, childIdx int, dirty *dirtyNodes) error {
	if !dal.IsOverPopulated(child) || !canSplit(child) {
		return nil
	}

	sibling, err := c.split(dal, parent, child, childIdx)
	if err != nil {
		return err
	}
	dirty.add(parent, child, sibling)

	// the sibling first, splitting child again shifts it right
	if err := c.splitToFit(dal, parent, sibling, childIdx+1, dirty); err != nil {
		return err
	}
	return c.splitToFit(dal, parent, child, childIdx, dirty)
}

// promoteRoot grows the tree by one level. The root's content moves to a new
// page and root is rebuilt in place pointing at it, so the root page number
// never changes.
func (c *Collection) promoteRoot(dal *Dal, root *Node, dirty *dirtyNodes) error {
	relocated := NewNode(root.Items, root.ChildNodes)
	relocated.PageNum = dal.allocatePage()

	root.Items = nil
	root.ChildNodes = []PageNum{relocated.PageNum}

	if err := c.splitToFit(dal, root, relocated, 0, dirty); err != nil {
		return err
	}
	dirty.add(root, relocated)

	dal.metrics.RootPromoted()
	dal.log.Debugf("promoteRoot: root %d now has %d children", root.PageNum, len(root.ChildNodes))
	return nil
}
