package engine

import (
	"io"
	"path/filepath"
	"sync"

	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
	"go.treestore/internal/storage"
)

// Database is safe for concurrent use, every call holds mu for its whole
// duration
type Database struct {
	mu     sync.Mutex
	name   string
	engine *Engine
	dal    *storage.Dal
	log    *logger.Logger

	// closes the per-database log file when Open created one
	logFile io.Closer
}

// OpenPath opens or creates the database file at path
func OpenPath(path string, opts *storage.Options, log *logger.Logger, m *metrics.Metrics) (*Database, error) {
	if log == nil {
		log = logger.Nop()
	}

	dal, err := storage.Open(path, opts, log, m)
	if err != nil {
		return nil, err
	}

	coll := storage.OpenCollection(dal, []byte(filepath.Base(path)))

	return &Database{
		name:   path,
		engine: NewEngine(dal, coll, log),
		dal:    dal,
		log:    log,
	}, nil
}

func (db *Database) Name() string {
	return db.name
}

func (db *Database) Set(key string, val []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.engine.Set(key, val)
}

func (db *Database) Get(key string) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.engine.Get(key)
}

// Scan calls fn for every pair in ascending key order. fn must not call
// back into db.
func (db *Database) Scan(fn func(key, value []byte) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.engine.Scan(fn)
}

func (db *Database) Check() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.engine.Check()
}

func (db *Database) Stats() (Stats, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.engine.Stats()
}

func (db *Database) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := db.dal.Close()
	db.log.Infof("closed database %s", db.name)

	if db.logFile != nil {
		_ = db.log.Sync()
		if cErr := db.logFile.Close(); err == nil {
			err = cErr
		}
		db.logFile = nil
	}
	return err
}
