// Package secrets stores the bearer tokens used for remote export.
//
// Tokens are kept under a name so several webhooks can be configured side
// by side. The Manager tries the system keychain first, then an encrypted
// file in the user config directory, and finally reads ENGAGE_WEBHOOK_TOKEN
// style environment variables.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// DefaultName is used when no credential name is given.
const DefaultName = "default"

// Token is a named webhook credential.
type Token struct {
	Name         string    `json:"name"`
	Endpoint     string    `json:"endpoint,omitempty"`
	Value        string    `json:"value"`
	LastModified time.Time `json:"last_modified"`
}

// Store is a backend able to keep tokens.
type Store interface {
	Store(tok *Token) error
	Retrieve(name string) (*Token, error)
	List() ([]*Token, error)
	Delete(name string) error
	Exists(name string) bool
}

var (
	ErrNotFound         = errors.New("token not found")
	ErrInvalidToken     = errors.New("invalid token")
	ErrStoreUnavailable = errors.New("token store unavailable")
)

// Manager fans token operations out over its stores in order.
type Manager struct {
	stores []Store
}

// NewManager builds the keychain, encrypted file and environment chain.
// The keychain is skipped when it is not usable on this system.
func NewManager() (*Manager, error) {
	var stores []Store

	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}

	dir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	fs, err := NewEncryptedFileStore(filepath.Join(dir, "tokens.enc"), "")
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, fs, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores uses the given stores in order.
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Store saves tok in the first store that accepts it.
func (m *Manager) Store(tok *Token) error {
	if tok == nil || strings.TrimSpace(tok.Value) == "" {
		return ErrInvalidToken
	}
	if tok.Name == "" {
		tok.Name = DefaultName
	}
	tok.LastModified = time.Now()

	var lastErr error
	for _, s := range m.stores {
		err := s.Store(tok)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store token: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve returns the token called name from the first store holding it.
func (m *Manager) Retrieve(name string) (*Token, error) {
	if name == "" {
		name = DefaultName
	}
	for _, s := range m.stores {
		if tok, err := s.Retrieve(name); err == nil && tok != nil {
			return tok, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Resolve returns the token value for name, or "" when none is stored.
// Remote export without a token is allowed.
func (m *Manager) Resolve(name string) (string, error) {
	tok, err := m.Retrieve(name)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tok.Value, nil
}

// List returns every known token, newest version per name, sorted by name.
func (m *Manager) List() ([]*Token, error) {
	byName := make(map[string]*Token)
	for _, s := range m.stores {
		toks, err := s.List()
		if err != nil {
			continue
		}
		for _, t := range toks {
			if cur, ok := byName[t.Name]; !ok || t.LastModified.After(cur.LastModified) {
				byName[t.Name] = t
			}
		}
	}

	out := make([]*Token, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes name from every store that has it.
func (m *Manager) Delete(name string) error {
	if name == "" {
		name = DefaultName
	}
	var (
		deleted bool
		lastErr error
	)
	for _, s := range m.stores {
		err := s.Delete(name)
		switch {
		case err == nil:
			deleted = true
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrStoreUnavailable):
		default:
			lastErr = err
		}
	}
	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete token: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// ConfigDir returns the per-user engage configuration directory, creating
// it when missing.
func ConfigDir() (string, error) {
	var dir string
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, "Library", "Application Support", "engage")
	case "windows":
		dir = filepath.Join(os.Getenv("APPDATA"), "engage")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "engage")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dir = filepath.Join(home, ".config", "engage")
		}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// Sanitize returns a copy of tok with the value masked.
func Sanitize(tok *Token) *Token {
	if tok == nil {
		return nil
	}
	c := *tok
	c.Value = Mask(tok.Value)
	return &c
}

// Mask keeps the first and last four characters of s.
func Mask(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
