package library

import (
	"context"
	"fmt"
	"time"
)

// Batch stages record updates so one apply operation commits as a single
// transaction. Records staged twice are written once.
type Batch struct {
	store  *Store
	order  []string
	staged map[string]*Record
}

// WriteError reports one record that failed to persist during a commit.
type WriteError struct {
	RecordID string
	Name     string
	Err      error
}

func (e WriteError) Error() string {
	return fmt.Sprintf("write record %s (%s): %v", e.Name, e.RecordID, e.Err)
}

// BeginBatch opens a buffered write scope.
func (s *Store) BeginBatch() *Batch {
	return &Batch{store: s, staged: make(map[string]*Record)}
}

// Update stages a record for the next Commit.
func (b *Batch) Update(rec *Record) {
	if _, ok := b.staged[rec.ID]; !ok {
		b.order = append(b.order, rec.ID)
	}
	b.staged[rec.ID] = rec
}

// Commit writes every staged record inside one transaction. A record that
// fails to write is reported in failed and skipped; the rest of the batch
// still commits. The returned error covers transaction-level failures only.
func (b *Batch) Commit(ctx context.Context) (written int, failed []WriteError, err error) {
	if len(b.staged) == 0 {
		return 0, nil, nil
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range b.order {
		rec := b.staged[id]
		releaseDate, platformsJS, linksJS, assocJS, encErr := encodeRecord(rec)
		if encErr != nil {
			failed = append(failed, WriteError{RecordID: rec.ID, Name: rec.Name, Err: encErr})
			continue
		}
		res, execErr := tx.ExecContext(ctx,
			`UPDATE records SET
                name = ?, sorting_name = ?, release_date = ?, platforms = ?, links = ?,
                tag_ids = ?, genre_ids = ?, category_ids = ?, feature_ids = ?, series_ids = ?,
                modified_at = ?
             WHERE id = ?`,
			rec.Name, rec.SortingName, releaseDate, platformsJS, linksJS,
			assocJS[0], assocJS[1], assocJS[2], assocJS[3], assocJS[4],
			now, rec.ID,
		)
		if execErr != nil {
			failed = append(failed, WriteError{RecordID: rec.ID, Name: rec.Name, Err: execErr})
			continue
		}
		if n, _ := res.RowsAffected(); n == 0 {
			failed = append(failed, WriteError{RecordID: rec.ID, Name: rec.Name, Err: fmt.Errorf("record not found")})
			continue
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, nil, fmt.Errorf("commit batch: %w", err)
	}
	b.staged = make(map[string]*Record)
	b.order = nil
	return written, failed, nil
}
