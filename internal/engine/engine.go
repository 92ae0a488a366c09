package engine

import (
	"errors"
	"fmt"

	"go.treestore/internal/logger"
	"go.treestore/internal/storage"
)

var ErrKeyNotFound = errors.New("key does not exist")

// Engine maps string keys onto one collection stored in dal
type Engine struct {
	dal  *storage.Dal
	coll *storage.Collection
	log  *logger.Logger
}

func NewEngine(dal *storage.Dal, coll *storage.Collection, log *logger.Logger) *Engine {
	return &Engine{
		dal:  dal,
		coll: coll,
		log:  log,
	}
}

func (e *Engine) Set(key string, value []byte) error {
	if err := e.coll.Put(e.dal, []byte(key), value); err != nil {
		e.log.Errorf("Set %q: %v", key, err)
		return err
	}
	return nil
}

func (e *Engine) Get(key string) ([]byte, error) {
	item, err := e.coll.Find(e.dal, []byte(key))
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("%q: %w", key, ErrKeyNotFound)
	}
	return item.Value, nil
}

func (e *Engine) Scan(fn func(key, value []byte) error) error {
	return e.coll.ForEach(e.dal, func(item *storage.Item) error {
		return fn(item.Key, item.Value)
	})
}

func (e *Engine) Check() error {
	return e.coll.Check(e.dal)
}

type Stats struct {
	Root          storage.PageNum `yaml:"root" msgpack:"root"`
	FreelistPage  storage.PageNum `yaml:"freelist_page" msgpack:"freelist_page"`
	MaxPage       storage.PageNum `yaml:"max_page" msgpack:"max_page"`
	ReleasedPages int             `yaml:"released_pages" msgpack:"released_pages"`
	Depth         int             `yaml:"depth" msgpack:"depth"`
	Nodes         int             `yaml:"nodes" msgpack:"nodes"`
	Leaves        int             `yaml:"leaves" msgpack:"leaves"`
	Items         int             `yaml:"items" msgpack:"items"`

	// nodes below the minimum fill, the root excepted
	Underpopulated int `yaml:"underpopulated" msgpack:"underpopulated"`
}

func (e *Engine) Stats() (Stats, error) {
	meta := e.dal.Meta()
	st := Stats{
		Root:          meta.Root,
		FreelistPage:  meta.FreelistPage,
		MaxPage:       e.dal.Freelist().MaxPage(),
		ReleasedPages: len(e.dal.Freelist().ReleasedPages()),
	}

	err := e.coll.Walk(e.dal, func(n *storage.Node, depth int) error {
		st.Nodes++
		st.Items += len(n.Items)
		if n.IsLeaf() {
			st.Leaves++
		}
		if depth > 0 && e.dal.IsUnderPopulated(n) {
			st.Underpopulated++
		}
		if depth+1 > st.Depth {
			st.Depth = depth + 1
		}
		return nil
	})
	return st, err
}
