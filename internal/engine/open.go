package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.treestore/internal/config"
	"go.treestore/internal/logger"
	"go.treestore/internal/metrics"
)

var ErrNoDatabase = errors.New("database does not exist")

// Open opens the named database under cfg.DataDir, logging to its own file in
// cfg.LogDir. The database directory must already exist, see Create.
func Open(dbname string, cfg *config.Config, m *metrics.Metrics) (*Database, error) {
	if err := validName(dbname); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.DBDir(dbname)); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dbname, ErrNoDatabase)
	}

	log, logFile, err := logger.Open(cfg.DBLogPath(dbname), cfg.LogLevel(), cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	db, err := OpenPath(cfg.DBPath(dbname), cfg.StorageOptions(), log, m)
	if err != nil {
		logFile.Close()
		return nil, err
	}

	db.name = dbname
	db.logFile = logFile
	return db, nil
}

// Create makes the database directory and bootstraps an empty file in it
func Create(dbname string, cfg *config.Config) error {
	if err := validName(dbname); err != nil {
		return err
	}

	dbDir := cfg.DBDir(dbname)
	if _, err := os.Stat(dbDir); err == nil {
		return fmt.Errorf("%s already exists", dbname)
	}

	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return err
	}

	db, err := Open(dbname, cfg, nil)
	if err != nil {
		_ = os.RemoveAll(dbDir)
		return err
	}
	return db.Close()
}

// Drop removes the database directory and its log file
func Drop(dbname string, cfg *config.Config) error {
	if err := validName(dbname); err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DBDir(dbname)); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%s: %w", dbname, ErrNoDatabase)
	}

	if err := os.RemoveAll(cfg.DBDir(dbname)); err != nil {
		return err
	}

	_ = os.Remove(cfg.DBLogPath(dbname))
	return nil
}

// ErrInvalidName is returned for names that are not a single path element.
var ErrInvalidName = errors.New("invalid database name")

// Names become directory names, keep them to one path element
func validName(dbname string) error {
	if dbname == "" || dbname == "." || dbname == ".." || filepath.Base(dbname) != dbname {
		return fmt.Errorf("%w %q", ErrInvalidName, dbname)
	}
	for _, r := range dbname {
		if r == '/' || r == '\\' || r == 0 {
			return fmt.Errorf("%w %q", ErrInvalidName, dbname)
		}
	}
	return nil
}
