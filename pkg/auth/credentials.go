package auth

import (
	stderrors "errors"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/errors"
)

// Credential key names. These double as the keychain entry names; the
// environment store maps them to the matching environment variables.
const (
	KeyFlickrAPIKey         = "flickr_api_key"
	KeyFlickrAPISecret      = "flickr_api_secret"
	KeyGoogleAPIKey         = "google_api_key"
	KeyGoogleSearchEngineID = "google_search_engine_id"
	KeyGeminiAPIKey         = "gemini_api_key"
)

var (
	// ErrNotFound is returned when a credential is not present in a store
	ErrNotFound = stderrors.New("credential not found")
	// ErrStoreUnavailable is returned when a store cannot perform the operation
	ErrStoreUnavailable = stderrors.New("credential store unavailable")
)

// Store is the interface for reading and writing named credentials
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// Credentials holds the resolved provider secrets for one run
type Credentials struct {
	FlickrAPIKey         string
	FlickrAPISecret      string
	GoogleAPIKey         string
	GoogleSearchEngineID string
	GeminiAPIKey         string
}

// Manager resolves credentials from a chain of stores, first match wins.
// Environment variables take precedence over the system keychain so a
// .env file keeps working the way the earlier tooling expected.
type Manager struct {
	stores []Store
}

// NewManager creates a credential manager with the default store chain
func NewManager() *Manager {
	stores := []Store{NewEnvironmentStore()}
	if ks, err := NewKeyringStore(); err == nil {
		stores = append(stores, ks)
	}
	return &Manager{stores: stores}
}

// NewManagerWithStores creates a manager with an explicit store chain
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Get returns the first value found for name across the store chain
func (m *Manager) Get(name string) (string, error) {
	for _, store := range m.stores {
		if v, err := store.Get(name); err == nil && v != "" {
			return v, nil
		}
	}
	return "", ErrNotFound
}

// Set writes a credential to the first store that accepts it
func (m *Manager) Set(name, value string) error {
	var lastErr error
	for _, store := range m.stores {
		if err := store.Set(name, value); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return lastErr
	}
	return ErrStoreUnavailable
}

// Resolve gathers every known credential, leaving absent ones empty
func (m *Manager) Resolve() *Credentials {
	creds := &Credentials{}
	creds.FlickrAPIKey, _ = m.Get(KeyFlickrAPIKey)
	creds.FlickrAPISecret, _ = m.Get(KeyFlickrAPISecret)
	creds.GoogleAPIKey, _ = m.Get(KeyGoogleAPIKey)
	creds.GoogleSearchEngineID, _ = m.Get(KeyGoogleSearchEngineID)
	creds.GeminiAPIKey, _ = m.Get(KeyGeminiAPIKey)
	return creds
}

// RequireFlickr fails fast when the Flickr credentials are absent
func (c *Credentials) RequireFlickr() error {
	if c.FlickrAPIKey == "" || c.FlickrAPISecret == "" {
		return errors.New(errors.TypeCredentialMissing,
			"FLICKR_API_KEY and FLICKR_API_SECRET are required")
	}
	return nil
}

// RequireGoogleSearch fails fast when the Custom Search credentials are absent
func (c *Credentials) RequireGoogleSearch() error {
	if c.GoogleAPIKey == "" || c.GoogleSearchEngineID == "" {
		return errors.New(errors.TypeCredentialMissing,
			"GOOGLE_API_KEY and GOOGLE_SEARCH_ENGINE_ID are required")
	}
	return nil
}

// RequirePlaces fails fast when the Maps API key is absent
func (c *Credentials) RequirePlaces() error {
	if c.GoogleAPIKey == "" {
		return errors.New(errors.TypeCredentialMissing, "GOOGLE_API_KEY is required")
	}
	return nil
}

// RequireGemini fails fast when the Gemini API key is absent
func (c *Credentials) RequireGemini() error {
	if c.GeminiAPIKey == "" {
		return errors.New(errors.TypeCredentialMissing, "GEMINI_API_KEY is required")
	}
	return nil
}
