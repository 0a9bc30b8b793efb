package store

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bryan-cox/tasktrack/internal/metrics"
	"github.com/bryan-cox/tasktrack/internal/model"
)

// CredentialSeparator sits between the username and the password on every line.
const CredentialSeparator = ", "

// UserStore reads and appends to the credential file. It keeps no state between calls:
// every lookup reads the file again, so registrations are visible immediately.
type UserStore struct {
	path    string
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewUserStore creates a store for the credential file at path. metrics may be nil.
func NewUserStore(path string, log *slog.Logger, m *metrics.Metrics) *UserStore {
	return &UserStore{path: path, log: log, metrics: m}
}

// Path returns the location of the credential file.
func (s *UserStore) Path() string {
	return s.path
}

// LoadAll returns every credential in file order. A missing file yields no users.
// Lines that do not split into exactly a username and a password are skipped.
func (s *UserStore) LoadAll() ([]model.User, error) {
	const op = "UserStore.LoadAll"
	log := s.log.With(slog.String("op", op), slog.String("path", s.path))

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("user file not found")
			return nil, nil
		}
		return nil, fmt.Errorf("could not read file '%s': %w", s.path, err)
	}

	var (
		users   []model.User
		skipped int
	)
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Split(line, CredentialSeparator)
		if len(parts) != 2 {
			log.Warn("skipping malformed user record", "line", i+1)
			skipped++
			continue
		}
		users = append(users, model.User{Username: parts[0], Password: parts[1]})
	}

	if s.metrics != nil {
		s.metrics.RecordsLoaded.WithLabelValues("users").Add(float64(len(users)))
		s.metrics.RecordsSkipped.WithLabelValues("users").Add(float64(skipped))
	}
	return users, nil
}

// Usernames returns each username once, in the order of first appearance.
func (s *UserStore) Usernames() ([]string, error) {
	users, err := s.LoadAll()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(users))
	var names []string
	for _, u := range users {
		if seen[u.Username] {
			continue
		}
		seen[u.Username] = true
		names = append(names, u.Username)
	}
	return names, nil
}

// Exists reports whether username appears in the credential file.
func (s *UserStore) Exists(username string) (bool, error) {
	users, err := s.LoadAll()
	if err != nil {
		return false, err
	}
	for _, u := range users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

// Append adds a credential line at the end of the file.
func (s *UserStore) Append(user model.User) error {
	const op = "UserStore.Append"
	log := s.log.With(slog.String("op", op), slog.String("path", s.path))

	if strings.Contains(user.Username, CredentialSeparator) || strings.Contains(user.Password, CredentialSeparator) {
		return fmt.Errorf("username and password must not contain %q", CredentialSeparator)
	}
	if strings.ContainsAny(user.Username+user.Password, "\r\n") {
		return errors.New("username and password must be single line")
	}

	start := time.Now()
	err := appendFile(s.path, []byte(user.Username+CredentialSeparator+user.Password+"\n"), 0o600)
	if s.metrics != nil {
		status := "success"
		if err != nil {
			status = "failure"
		}
		s.metrics.StoreWrites.WithLabelValues("append_user", status).Inc()
		s.metrics.StoreWriteDuration.WithLabelValues("append_user").Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return fmt.Errorf("could not register user: %w", err)
	}

	log.Info("user registered", "username", user.Username)
	return nil
}
