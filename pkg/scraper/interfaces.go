package scraper

import (
	"context"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/provider"
)

// ImageProvider searches an external service for download candidates
type ImageProvider interface {
	Name() string
	Search(ctx context.Context, query string, targetCount int) ([]provider.Candidate, error)
}

// ImageFetcher downloads, validates, and stores a single candidate
type ImageFetcher interface {
	Fetch(ctx context.Context, candidate provider.Candidate, destPath string) error
}
