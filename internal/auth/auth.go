package auth

import (
	"errors"
	"slices"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Authenticator struct {
	store Store
}

func NewAuthenticator(store Store) *Authenticator {
	return &Authenticator{store: store}
}

func (a *Authenticator) Store() Store {
	return a.store
}

// Authenticate does not tell a missing user apart from a wrong password
func (a *Authenticator) Authenticate(username, password string) (*User, error) {
	u, err := a.store.GetUser(username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Grant adds db to the user's access list, granting twice is a no-op
func (a *Authenticator) Grant(username, db string) error {
	u, err := a.store.GetUser(username)
	if err != nil {
		return err
	}

	if !slices.Contains(u.AccessDB, db) {
		u.AccessDB = append(u.AccessDB, db)
	}
	return a.store.SaveUser(u)
}

func (a *Authenticator) Revoke(username, db string) error {
	u, err := a.store.GetUser(username)
	if err != nil {
		return err
	}

	u.AccessDB = slices.DeleteFunc(u.AccessDB, func(name string) bool { return name == db })
	return a.store.SaveUser(u)
}

// CreateUser refuses to overwrite an existing user
func (a *Authenticator) CreateUser(username, password string, role Role) error {
	if u, _ := a.store.GetUser(username); u != nil {
		return ErrUserExists
	}

	u, err := NewUser(username, password, role)
	if err != nil {
		return err
	}
	return a.store.SaveUser(u)
}

func (a *Authenticator) DeleteUser(username string) error {
	if _, err := a.store.GetUser(username); err != nil {
		return err
	}
	return a.store.DeleteUser(username)
}

func (u *User) IsSuperuser() bool {
	return u.Role == RoleSuperuser
}

func (u *User) IsGuest() bool {
	return u.Role == RoleGuest
}

func (u *User) CanOpenDB(db string) bool {
	if u.IsSuperuser() {
		return true
	}

	return slices.Contains(u.AccessDB, db)
}

// Guests read only
func (u *User) CanWrite(db string) bool {
	return !u.IsGuest() && u.CanOpenDB(db)
}
