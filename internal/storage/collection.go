package storage

// Collection binds a name to the root page of one tree
type Collection struct {
	name []byte
	root PageNum
}

// NewCollection returns an empty collection, the first Put plants its root
func NewCollection(name []byte) *Collection {
	return &Collection{
		name: name,
	}
}

// OpenCollection picks up the root recorded in the meta page
func OpenCollection(dal *Dal, name []byte) *Collection {
	return &Collection{
		name: name,
		root: dal.Meta().Root,
	}
}

func (c *Collection) Name() []byte {
	return c.name
}

func (c *Collection) Root() PageNum {
	return c.root
}

func (c *Collection) IsEmpty() bool {
	return c.root == MetaPageNum
}
