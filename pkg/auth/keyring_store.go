package auth

import (
	"fmt"

	"github.com/zalando/go-keyring"
)

const keyringService = "twdataset"

// KeyringStore implements Store using the system keychain
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Test if keyring is available
	testKey := "test_availability"
	err := keyring.Set(keyringService, testKey, "test")
	if err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Get reads a credential from the system keychain
func (k *KeyringStore) Get(name string) (string, error) {
	v, err := keyring.Get(keyringService, name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to retrieve from keyring: %w", err)
	}
	return v, nil
}

// Set writes a credential to the system keychain
func (k *KeyringStore) Set(name, value string) error {
	if err := keyring.Set(keyringService, name, value); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}
	return nil
}

// Delete removes a credential from the system keychain
func (k *KeyringStore) Delete(name string) error {
	if err := keyring.Delete(keyringService, name); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
