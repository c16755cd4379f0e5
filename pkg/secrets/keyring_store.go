package secrets

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "engage"
	keyringPrefix  = "webhook_"
)

// KeyringStore keeps tokens in the system keychain.
type KeyringStore struct{}

// NewKeyringStore probes the keychain and fails when it cannot be written.
func NewKeyringStore() (*KeyringStore, error) {
	const probe = "probe_availability"
	if err := keyring.Set(keyringService, probe, "probe"); err != nil {
		return nil, fmt.Errorf("%w: keyring: %v", ErrStoreUnavailable, err)
	}
	_ = keyring.Delete(keyringService, probe)
	return &KeyringStore{}, nil
}

func (k *KeyringStore) Store(tok *Token) error {
	if tok == nil || tok.Name == "" {
		return ErrInvalidToken
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	if err := keyring.Set(keyringService, keyringPrefix+tok.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Retrieve(name string) (*Token, error) {
	if name == "" {
		return nil, ErrInvalidToken
	}
	data, err := keyring.Get(keyringService, keyringPrefix+name)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	var tok Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token: %w", err)
	}
	return &tok, nil
}

// List returns nothing: the keychain API cannot enumerate entries. Tokens
// stored here are still found by name.
func (k *KeyringStore) List() ([]*Token, error) {
	return []*Token{}, nil
}

func (k *KeyringStore) Delete(name string) error {
	if name == "" {
		return ErrInvalidToken
	}
	if err := keyring.Delete(keyringService, keyringPrefix+name); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

func (k *KeyringStore) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := keyring.Get(keyringService, keyringPrefix+name)
	return err == nil
}
