package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func fakeEnv(vars map[string]string) *EnvironmentStore {
	return &EnvironmentStore{
		lookup: func(k string) (string, bool) {
			v, ok := vars[k]
			return v, ok
		},
		environ: func() []string {
			var out []string
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
}

func TestManagerLifecycle(t *testing.T) {
	mem := NewMemoryStore()
	m := NewManagerWithStores(mem)

	require.NoError(t, m.Store(&Token{Value: "sk_live_0123456789", Endpoint: "https://hooks.example.com/in"}))
	assert.Equal(t, 1, mem.Len())

	tok, err := m.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultName, tok.Name)
	assert.Equal(t, "sk_live_0123456789", tok.Value)
	assert.False(t, tok.LastModified.IsZero())

	v, err := m.Resolve(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "sk_live_0123456789", v)

	require.NoError(t, m.Delete(DefaultName))
	_, err = m.Retrieve(DefaultName)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(DefaultName), ErrNotFound)
}

func TestManagerRejectsEmptyToken(t *testing.T) {
	m := NewManagerWithStores(NewMemoryStore())
	assert.ErrorIs(t, m.Store(&Token{Name: "x", Value: "  "}), ErrInvalidToken)
	assert.ErrorIs(t, m.Store(nil), ErrInvalidToken)
}

func TestManagerFallsThroughStores(t *testing.T) {
	broken := NewMemoryStore()
	broken.StoreErr = errors.New("keychain locked")
	backup := NewMemoryStore()
	m := NewManagerWithStores(broken, backup)

	require.NoError(t, m.Store(&Token{Name: "crm", Value: "abc"}))
	assert.Equal(t, 0, broken.Len())
	assert.True(t, backup.Exists("crm"))

	backup.StoreErr = errors.New("disk full")
	err := m.Store(&Token{Name: "crm", Value: "def"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestResolveMissingIsEmpty(t *testing.T) {
	m := NewManagerWithStores(NewMemoryStore(), fakeEnv(nil))
	v, err := m.Resolve("crm")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestListPrefersNewest(t *testing.T) {
	a, b := NewMemoryStore(), NewMemoryStore()
	old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, a.Store(&Token{Name: "crm", Value: "old", LastModified: old}))
	require.NoError(t, b.Store(&Token{Name: "crm", Value: "new", LastModified: old.Add(time.Hour)}))
	require.NoError(t, b.Store(&Token{Name: "alerts", Value: "z", LastModified: old}))

	toks, err := NewManagerWithStores(a, b).List()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "alerts", toks[0].Name)
	assert.Equal(t, "new", toks[1].Value)
}

func TestEnvironmentStore(t *testing.T) {
	env := fakeEnv(map[string]string{
		TokenEnv:          " tok-default ",
		TokenEnv + "_CRM": "tok-crm",
		"UNRELATED":       "x",
	})

	tok, err := env.Retrieve("")
	require.NoError(t, err)
	assert.Equal(t, "tok-default", tok.Value)

	tok, err = env.Retrieve("crm")
	require.NoError(t, err)
	assert.Equal(t, "tok-crm", tok.Value)

	_, err = env.Retrieve("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	toks, err := env.List()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "crm", toks[0].Name)
	assert.Equal(t, DefaultName, toks[1].Name)

	assert.ErrorIs(t, env.Store(&Token{Name: "a", Value: "b"}), ErrStoreUnavailable)
	assert.ErrorIs(t, env.Delete("crm"), ErrStoreUnavailable)
	assert.Equal(t, TokenEnv+"_MY_HOOK", envName("my-hook"))
}

func TestEncryptedFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.enc")
	s, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)

	_, err = s.Retrieve("crm")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Store(&Token{Name: "crm", Value: "secret-value-1"}))
	require.NoError(t, s.Store(&Token{Name: "alerts", Value: "secret-value-2"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "secret-value"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewEncryptedFileStore(path, "correct horse")
	require.NoError(t, err)
	tok, err := reopened.Retrieve("crm")
	require.NoError(t, err)
	assert.Equal(t, "secret-value-1", tok.Value)

	toks, err := reopened.List()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, "alerts", toks[0].Name)

	wrong, err := NewEncryptedFileStore(path, "battery staple")
	require.NoError(t, err)
	_, err = wrong.Retrieve("crm")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete("crm"))
	require.NoError(t, s.Delete("alerts"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestEncryptedFileStoreGeneratesPassphrase(t *testing.T) {
	t.Setenv(PassphraseEnv, "")
	dir := t.TempDir()
	s, err := NewEncryptedFileStore(filepath.Join(dir, "tokens.enc"), "")
	require.NoError(t, err)
	require.NoError(t, s.Store(&Token{Name: "crm", Value: "v"}))

	pass, err := os.ReadFile(filepath.Join(dir, ".passphrase"))
	require.NoError(t, err)
	assert.NotEmpty(t, pass)

	again, err := NewEncryptedFileStore(filepath.Join(dir, "tokens.enc"), "")
	require.NoError(t, err)
	assert.True(t, again.Exists("crm"))
}

func TestKeyringStore(t *testing.T) {
	keyring.MockInit()

	s, err := NewKeyringStore()
	require.NoError(t, err)

	require.NoError(t, s.Store(&Token{Name: "crm", Value: "kv", Endpoint: "https://hooks.example.com"}))
	assert.True(t, s.Exists("crm"))

	tok, err := s.Retrieve("crm")
	require.NoError(t, err)
	assert.Equal(t, "kv", tok.Value)
	assert.Equal(t, "https://hooks.example.com", tok.Endpoint)

	require.NoError(t, s.Delete("crm"))
	_, err = s.Retrieve("crm")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete("crm"), ErrNotFound)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "********", Mask("short"))
	assert.Equal(t, "sk_l...6789", Mask("sk_live_0123456789"))

	tok := &Token{Name: "crm", Value: "sk_live_0123456789"}
	assert.Equal(t, "sk_l...6789", Sanitize(tok).Value)
	assert.Equal(t, "sk_live_0123456789", tok.Value)
	assert.Nil(t, Sanitize(nil))
}
