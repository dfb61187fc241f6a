package auth

import (
	"os"
	"strings"
)

// EnvironmentStore implements Store using environment variables. The
// variable names match the ones the original .env files used, so an
// existing .env keeps working unchanged.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// envVar maps a credential name to its environment variable
func envVar(name string) string {
	return strings.ToUpper(name)
}

// Get reads a credential from the environment
func (e *EnvironmentStore) Get(name string) (string, error) {
	v := os.Getenv(envVar(name))
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// Set is not supported for environment variables
func (e *EnvironmentStore) Set(name, value string) error {
	return ErrStoreUnavailable
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}
