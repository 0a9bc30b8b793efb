// Package auth validates credentials and registers users against the credential store.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/bryan-cox/tasktrack/internal/model"
)

const (
	minUsernameLen = 5
	maxUsernameLen = 20
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must contain both uppercase and lowercase letters and be between 5 and 20 characters long")
	ErrInvalidPassword    = errors.New("password must contain uppercase and lowercase letters, a digit and a special character")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrUserExists         = errors.New("username already exists")
	ErrForbidden          = errors.New("only the administrator can register new users")
)

// CredentialStore is the subset of the user store the authenticator needs.
type CredentialStore interface {
	LoadAll() ([]model.User, error)
	Append(user model.User) error
}

// IsValidUsername returns true if username has an upper and a lower case letter and is
// between 5 and 20 characters long.
func IsValidUsername(username string) bool {
	var upper, lower bool
	for _, r := range username {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		}
	}
	n := len([]rune(username))
	return upper && lower && n >= minUsernameLen && n <= maxUsernameLen
}

// IsValidPassword returns true if password has an upper and a lower case letter, a digit
// and at least one other character.
func IsValidPassword(password string) bool {
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

// Authenticator checks logins and registers users.
type Authenticator struct {
	log       *slog.Logger
	users     CredentialStore
	adminUser string
}

func NewAuthenticator(log *slog.Logger, users CredentialStore, adminUser string) *Authenticator {
	return &Authenticator{log: log, users: users, adminUser: adminUser}
}

// IsAdmin reports whether username is the administrator account.
func (a *Authenticator) IsAdmin(username string) bool {
	return username == a.adminUser
}

// Login succeeds if some line of the credential file matches both username and password.
func (a *Authenticator) Login(username, password string) error {
	const op = "Auth.Login"
	log := a.log.With(slog.String("op", op))

	users, err := a.users.LoadAll()
	if err != nil {
		return fmt.Errorf("could not load users: %w", err)
	}
	for _, u := range users {
		if u.Username == username && u.Password == password {
			log.Debug("user logged in", "username", username)
			return nil
		}
	}

	log.Warn("login rejected", "username", username)
	return ErrInvalidCredentials
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Username        string
	Password        string
	ConfirmPassword string
}

// Register adds a new user on behalf of actor. Only the administrator may register users,
// except for the very first registration, which must create the administrator account itself.
func (a *Authenticator) Register(actor string, in RegisterInput) error {
	const op = "Auth.Register"
	log := a.log.With(slog.String("op", op))

	users, err := a.users.LoadAll()
	if err != nil {
		return fmt.Errorf("could not load users: %w", err)
	}

	switch {
	case len(users) == 0:
		if in.Username != a.adminUser {
			return fmt.Errorf("%w: the first registered user must be %q", ErrForbidden, a.adminUser)
		}
	case !a.IsAdmin(actor):
		return ErrForbidden
	}

	for _, u := range users {
		if u.Username == in.Username {
			return fmt.Errorf("%w: %s", ErrUserExists, in.Username)
		}
	}
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !IsValidUsername(in.Username) || strings.ContainsFunc(in.Username, unicode.IsSpace) {
		return ErrInvalidUsername
	}
	if !IsValidPassword(in.Password) || strings.ContainsAny(in.Password, "\r\n") ||
		strings.Contains(in.Password, ", ") {
		return ErrInvalidPassword
	}

	if err := a.users.Append(model.User{Username: in.Username, Password: in.Password}); err != nil {
		return err
	}
	log.Info("registered new user", "username", in.Username)
	return nil
}
