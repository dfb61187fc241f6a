// Package provider implements the image search providers that feed the
// scraper with download candidates.
package provider

import (
	"context"
)

// Kind identifies a provider implementation
type Kind string

const (
	KindFlickr    Kind = "flickr"
	KindGoogleCSE Kind = "google"
	KindPlaces    Kind = "places"
)

// Candidate is one downloadable image reference returned by a provider
type Candidate struct {
	// Ref is the fully-qualified source URL
	Ref string
	// Provider names the provider that produced this candidate
	Provider Kind
	// Rank is the 1-based position in the provider's result ordering
	Rank int
}

// Provider searches an external image service for candidates.
//
// Search returns up to targetCount candidates in the provider's own
// relevance order. A fresh call always starts from the first result
// page. When pagination fails partway, any candidates gathered before
// the failure are returned alongside a nil error; an error is returned
// only when nothing usable was gathered.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, targetCount int) ([]Candidate, error)
}
