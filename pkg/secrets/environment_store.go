package secrets

import (
	"os"
	"sort"
	"strings"
	"time"
)

// TokenEnv holds the default token; TokenEnv_<NAME> holds named ones.
const TokenEnv = "ENGAGE_WEBHOOK_TOKEN"

// EnvironmentStore reads tokens from the process environment. It is
// read-only.
type EnvironmentStore struct {
	lookup  func(string) (string, bool)
	environ func() []string
}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{lookup: os.LookupEnv, environ: os.Environ}
}

func envName(name string) string {
	if name == "" || name == DefaultName {
		return TokenEnv
	}
	up := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", " ", "_").Replace(name))
	return TokenEnv + "_" + up
}

func (e *EnvironmentStore) Store(*Token) error { return ErrStoreUnavailable }

func (e *EnvironmentStore) Retrieve(name string) (*Token, error) {
	v, ok := e.lookup(envName(name))
	if !ok || strings.TrimSpace(v) == "" {
		return nil, ErrNotFound
	}
	if name == "" {
		name = DefaultName
	}
	return &Token{Name: name, Value: strings.TrimSpace(v), LastModified: time.Time{}}, nil
}

// List reports the default token and every TokenEnv_<NAME> variable. Names
// come back lower-cased.
func (e *EnvironmentStore) List() ([]*Token, error) {
	var out []*Token
	for _, kv := range e.environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		switch {
		case k == TokenEnv:
			out = append(out, &Token{Name: DefaultName, Value: strings.TrimSpace(v)})
		case strings.HasPrefix(k, TokenEnv+"_"):
			out = append(out, &Token{Name: strings.ToLower(strings.TrimPrefix(k, TokenEnv+"_")), Value: strings.TrimSpace(v)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (e *EnvironmentStore) Delete(string) error { return ErrStoreUnavailable }

func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
