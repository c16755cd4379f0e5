package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	iterations = 100000
)

// PassphraseEnv overrides the generated passphrase of the encrypted store.
const PassphraseEnv = "ENGAGE_PASSPHRASE"

// EncryptedFileStore keeps tokens in an AES-GCM encrypted JSON file. The key
// is derived with PBKDF2 from a passphrase and a per-file salt.
type EncryptedFileStore struct {
	path       string
	passphrase string
	mu         sync.RWMutex
}

type fileFormat struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

type vault struct {
	salt   []byte
	tokens map[string]Token
}

// NewEncryptedFileStore opens the store at path. An empty passphrase is
// read from ENGAGE_PASSPHRASE, then from a .passphrase file next to path,
// and generated on first use.
func NewEncryptedFileStore(path, passphrase string) (*EncryptedFileStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("token dir: %w", err)
	}

	if passphrase == "" {
		var err error
		if passphrase, err = loadPassphrase(dir); err != nil {
			return nil, fmt.Errorf("passphrase: %w", err)
		}
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

func (e *EncryptedFileStore) Store(tok *Token) error {
	if tok == nil || tok.Name == "" {
		return ErrInvalidToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.load()
	if errors.Is(err, os.ErrNotExist) {
		v = &vault{tokens: make(map[string]Token)}
	} else if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	v.tokens[tok.Name] = *tok
	return e.save(v)
}

func (e *EncryptedFileStore) Retrieve(name string) (*Token, error) {
	if name == "" {
		return nil, ErrInvalidToken
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.load()
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	tok, ok := v.tokens[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &tok, nil
}

func (e *EncryptedFileStore) List() ([]*Token, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.load()
	if errors.Is(err, os.ErrNotExist) {
		return []*Token{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	out := make([]*Token, 0, len(v.tokens))
	for _, t := range v.tokens {
		tok := t
		out = append(out, &tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (e *EncryptedFileStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidToken
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.load()
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read token file: %w", err)
	}
	if _, ok := v.tokens[name]; !ok {
		return ErrNotFound
	}
	delete(v.tokens, name)

	if len(v.tokens) == 0 {
		return os.Remove(e.path)
	}
	return e.save(v)
}

func (e *EncryptedFileStore) Exists(name string) bool {
	tok, err := e.Retrieve(name)
	return err == nil && tok != nil
}

func (e *EncryptedFileStore) load() (*vault, error) {
	content, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var f fileFormat
	if err := json.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("token file is not valid json: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(f.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("payload encoding: %w", err)
	}

	plain, err := decrypt(sealed, e.key(salt))
	if err != nil {
		return nil, fmt.Errorf("decrypt tokens: %w", err)
	}
	tokens := make(map[string]Token)
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return nil, fmt.Errorf("failed to parse tokens: %w", err)
	}
	return &vault{salt: salt, tokens: tokens}, nil
}

func (e *EncryptedFileStore) save(v *vault) error {
	if len(v.salt) == 0 {
		v.salt = make([]byte, saltSize)
		if _, err := io.ReadFull(rand.Reader, v.salt); err != nil {
			return fmt.Errorf("salt: %w", err)
		}
	}

	plain, err := json.Marshal(v.tokens)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	sealed, err := encrypt(plain, e.key(v.salt))
	if err != nil {
		return fmt.Errorf("encrypt tokens: %w", err)
	}

	content, err := json.MarshalIndent(fileFormat{
		Salt:      base64.StdEncoding.EncodeToString(v.salt),
		Encrypted: base64.StdEncoding.EncodeToString(sealed),
		Version:   1,
		Modified:  time.Now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token file: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, content, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return os.Rename(tmp, e.path)
}

func (e *EncryptedFileStore) key(salt []byte) []byte {
	return pbkdf2.Key([]byte(e.passphrase), salt, iterations, keySize, sha256.New)
}

func loadPassphrase(dir string) (string, error) {
	if pass := os.Getenv(PassphraseEnv); pass != "" {
		return pass, nil
	}

	file := filepath.Join(dir, ".passphrase")
	if content, err := os.ReadFile(file); err == nil && len(content) > 0 {
		return string(content), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	pass := base64.URLEncoding.EncodeToString(b)
	if err := os.WriteFile(file, []byte(pass), 0o600); err != nil {
		return "", fmt.Errorf("store passphrase: %w", err)
	}
	return pass, nil
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("sealed payload shorter than nonce")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
