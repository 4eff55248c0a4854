// Package catalog talks to the external property catalog: searching for
// importable properties and fetching the entries associated with one.
package catalog

import (
	"context"
	"errors"

	"proptag/internal/platform"
)

// ErrSourceUnavailable wraps any catalog search or fetch failure. Nothing is
// matched or mutated when the source is unavailable.
var ErrSourceUnavailable = errors.New("catalog source unavailable")

// Item is one searchable catalog property (a tag, genre, category, feature
// or series as reported by the provider).
type Item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Candidate is one external entry associated with a property. Immutable once
// received; one batch of candidates is processed per import.
type Candidate struct {
	Names     []string
	Platforms []platform.Platform
	SourceURL string
}

// Source provides catalog search and candidate retrieval.
type Source interface {
	Search(ctx context.Context, query string) ([]Item, error)
	Candidates(ctx context.Context, item Item, progress func(fetched, total int)) ([]Candidate, error)
}
