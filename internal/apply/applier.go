// Package apply turns an approved claim set into one buffered bulk mutation
// of the library.
package apply

import (
	"context"
	"io"
	"errors"
	"fmt"
	"log/slog"

	"proptag/internal/library"
	"proptag/internal/match"
)

// ErrEntityResolution means the grouping property could not be found or
// created; the whole apply aborts with zero records mutated.
var ErrEntityResolution = errors.New("resolve grouping property")

// Options select what gets applied to the approved records.
type Options struct {
	Kind          library.PropertyKind
	Name          string
	AddLink       bool
	ProviderLabel string
}

// Applier performs the bulk mutation.
type Applier struct {
	store  *library.Store
	logger *slog.Logger
}

func New(store *library.Store, logger *slog.Logger) *Applier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Applier{store: store, logger: logger}
}

// Apply associates the grouping property with every approved claim's record,
// optionally adding a back-link, and commits all changes as one batch.
// Returns the number of records actually mutated; unchanged records are not
// rewritten. A record that fails to persist is logged and skipped.
func (a *Applier) Apply(ctx context.Context, claims []match.Claim, opts Options) (int, error) {
	prop, err := a.resolveProperty(ctx, opts.Kind, opts.Name)
	if err != nil {
		return 0, err
	}

	batch := a.store.BeginBatch()
	for _, cl := range claims {
		changed := cl.Record.AddAssociation(opts.Kind, prop.ID)

		if opts.AddLink && cl.Candidate.SourceURL != "" && !cl.Record.HasLinkTo(cl.Candidate.SourceURL) {
			cl.Record.Links = append(cl.Record.Links, library.Link{
				Label: opts.ProviderLabel,
				URL:   cl.Candidate.SourceURL,
			})
			changed = true
		}

		if changed {
			batch.Update(cl.Record)
		}
	}

	written, failed, err := batch.Commit(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply %s %q: %w", opts.Kind, opts.Name, err)
	}
	for _, f := range failed {
		a.logger.Warn("record skipped during apply",
			"record_id", f.RecordID,
			"record", f.Name,
			"error", f.Err,
		)
	}

	a.logger.Info("bulk apply complete",
		"kind", string(opts.Kind),
		"property", prop.Name,
		"approved", len(claims),
		"mutated", written,
	)
	return written, nil
}

// resolveProperty finds the grouping property by case-insensitive name,
// creating it when absent. Exactly one property exists per (kind, name) even
// across repeated imports.
func (a *Applier) resolveProperty(ctx context.Context, kind library.PropertyKind, name string) (*library.Property, error) {
	prop, err := a.store.FindProperty(ctx, kind, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntityResolution, err)
	}
	if prop != nil {
		return prop, nil
	}
	prop, err = a.store.AddProperty(ctx, kind, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntityResolution, err)
	}
	return prop, nil
}
