package config

import (
	"os"
	"path/filepath"
)

type Paths struct {
	Home     string
	Config   string
	UserFile string
	DataDir  string
	LogDir   string
}

// Allow user to set app home through env variable
// otherwise default to ~/.local/share/treestore

func ResolvePaths(homeOverride, configOverride string) (*Paths, error) {
	home := homeOverride
	if home == "" {
		home = os.Getenv("TREESTORE_HOME")
	}

	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(userHome, ".local", "share", "treestore")
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, err
	}

	cfgPath := configOverride
	if cfgPath == "" {
		cfgPath = filepath.Join(home, "config.yaml")
	}

	return &Paths{
		Home:     home,
		Config:   cfgPath,
		UserFile: filepath.Join(home, "users.json"),
		DataDir:  filepath.Join(home, "data"),
		LogDir:   filepath.Join(home, "log"),
	}, nil
}

// Every database lives in its own directory under DataDir
func (c *Config) DBDir(dbname string) string {
	return filepath.Join(c.DataDir, dbname)
}

func (c *Config) DBPath(dbname string) string {
	return filepath.Join(c.DBDir(dbname), dbname+".db")
}

func (c *Config) DBLogPath(dbname string) string {
	return filepath.Join(c.LogDir, dbname+".log")
}

// ServerLogPath is where `start` writes its own log
func (c *Config) ServerLogPath() string {
	return filepath.Join(c.LogDir, "server.log")
}
