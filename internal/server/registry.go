package server

import (
	"fmt"
	"sync"

	"go.treestore/internal/config"
	"go.treestore/internal/engine"
	"go.treestore/internal/metrics"
)

type sharedDB struct {
	db   *engine.Database
	refs int
}

// registry hands every session the same *engine.Database for a name and
// closes it when the last session lets go
type registry struct {
	mu      sync.Mutex
	cfg     *config.Config
	metrics *metrics.Metrics
	dbs     map[string]*sharedDB
}

func newRegistry(cfg *config.Config, m *metrics.Metrics) *registry {
	return &registry{
		cfg:     cfg,
		metrics: m,
		dbs:     make(map[string]*sharedDB),
	}
}

func (r *registry) acquire(name string) (*engine.Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.dbs[name]; ok {
		s.refs++
		return s.db, nil
	}

	db, err := engine.Open(name, r.cfg, r.metrics)
	if err != nil {
		return nil, err
	}

	r.dbs[name] = &sharedDB{db: db, refs: 1}
	return db, nil
}

func (r *registry) release(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.dbs[name]
	if !ok {
		return nil
	}

	s.refs--
	if s.refs > 0 {
		return nil
	}

	delete(r.dbs, name)
	return s.db.Close()
}

func (r *registry) refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.dbs[name]; ok {
		return s.refs
	}
	return 0
}

func (r *registry) create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return engine.Create(name, r.cfg)
}

// drop refuses while any session has the database open
func (r *registry) drop(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.dbs[name]; ok {
		return fmt.Errorf("%s is open in %d session(s)", name, s.refs)
	}
	return engine.Drop(name, r.cfg)
}

func (r *registry) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, s := range r.dbs {
		_ = s.db.Close()
		delete(r.dbs, name)
	}
}
