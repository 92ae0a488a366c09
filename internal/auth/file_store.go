package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type FileStore struct {
	path  string
	mu    sync.RWMutex
	users map[string]*User
}

func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path:  path,
		users: make(map[string]*User),
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

// Load the user catalog from fs.path
func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		// first run, the catalog is written on the first SaveUser
		return nil
	}

	if err != nil {
		return err
	}
	defer f.Close()

	// parse the json file and populate the users map
	var list []*User
	if err := json.NewDecoder(f).Decode(&list); err != nil {
		return fmt.Errorf("parse %s: %w", fs.path, err)
	}

	for _, u := range list {
		fs.users[u.Username] = u
	}
	return nil
}

// write from memory to user catalog, temp file then rename
func (fs *FileStore) persist() error {
	tmp, err := os.CreateTemp(filepath.Dir(fs.path), ".users-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fs.sorted()); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fs.path)
}

func (fs *FileStore) sorted() []*User {
	list := make([]*User, 0, len(fs.users))
	for _, u := range fs.users {
		list = append(list, u)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Username < list[j].Username })
	return list
}

func copyUser(u *User) *User {
	return &User{
		Username: u.Username,
		Role:     u.Role,
		Password: u.Password,
		AccessDB: append([]string(nil), u.AccessDB...),
	}
}

func (fs *FileStore) GetUser(username string) (*User, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	u, ok := fs.users[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}

	// Create a deep copy so we aren't holding a reference
	return copyUser(u), nil
}

func (fs *FileStore) SaveUser(u *User) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.users[u.Username] = copyUser(u)
	return fs.persist()
}

func (fs *FileStore) DeleteUser(username string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.users[username]; !ok {
		return fmt.Errorf("%s: %w", username, ErrUserNotFound)
	}

	delete(fs.users, username)
	return fs.persist()
}

func (fs *FileStore) ListUsers() ([]*User, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	list := fs.sorted()
	for i, u := range list {
		list[i] = copyUser(u)
	}

	return list, nil
}
