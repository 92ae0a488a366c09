package storage

import "slices"

// Put inserts key/value, or overwrites the value if key is already stored
func (c *Collection) Put(dal *Dal, key, value []byte) error {
	item := NewItem(key, value)
	if err := checkItem(item); err != nil {
		return err
	}

	if c.root == MetaPageNum {
		return c.plantRoot(dal, item)
	}

	d, err := c.findNode(dal, key)
	if err != nil {
		return err
	}

	if d.found {
		d.target.Items[d.index] = item
	} else if err := d.target.AddItem(item, d.index); err != nil {
		return err
	}

	// nothing is encoded until every split is done, an overflowing node
	// never reaches the page codec
	mark := dal.freelist.clone()
	dirty := &dirtyNodes{}
	dirty.add(d.target)

	if err := c.repair(dal, d, dirty); err != nil {
		dal.rollback(mark)
		return err
	}

	pages, err := dal.encodeNodes(dirty.nodes...)
	if err != nil {
		dal.rollback(mark)
		return err
	}
	return dal.writePages(pages...)
}

// First item of an empty tree becomes a single leaf root
func (c *Collection) plantRoot(dal *Dal, item *Item) error {
	root, err := dal.WriteNode(NewNode([]*Item{item}, nil))
	if err != nil {
		return err
	}

	c.root = root.PageNum
	dal.log.Debugf("plantRoot: collection %s rooted at page %d", c.name, c.root)
	return dal.SetRoot(c.root)
}

// dirtyNodes is the set of nodes one Put changed, in first touch order
type dirtyNodes struct {
	nodes []*Node
}

func (s *dirtyNodes) add(nodes ...*Node) {
	for _, n := range nodes {
		if !slices.Contains(s.nodes, n) {
			s.nodes = append(s.nodes, n)
		}
	}
}

// repair walks the trace bottom up splitting overpopulated children, then
// grows the tree while the root itself overflows
func (c *Collection) repair(dal *Dal, d *descent, dirty *dirtyNodes) error {
	for i := d.trace.Len() - 2; i >= 0; i-- {
		parent := d.nodes[d.trace.At(i).pageID]
		step := d.trace.At(i + 1)
		child := d.nodes[step.pageID]

		if err := c.splitToFit(dal, parent, child, step.index, dirty); err != nil {
			return err
		}
	}

	root := d.nodes[d.trace.At(0).pageID]
	for dal.IsOverPopulated(root) && canSplit(root) {
		if err := c.promoteRoot(dal, root, dirty); err != nil {
			return err
		}
	}
	return nil
}
