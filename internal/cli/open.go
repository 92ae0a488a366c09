package cli

import (
	"go.treestore/internal/engine"
)

// openDB opens a database created earlier with `treestore create`
func openDB(dbname string) (*engine.Database, error) {
	return engine.Open(dbname, cfg, nil)
}

// withDB opens dbname for the duration of fn
func withDB(dbname string, fn func(db *engine.Database) error) error {
	db, err := openDB(dbname)
	if err != nil {
		return err
	}

	if err := fn(db); err != nil {
		db.Close()
		return err
	}
	return db.Close()
}
