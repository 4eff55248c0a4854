package library

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptag/internal/platform"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestInsertAndLoadRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	released := time.Date(2004, 11, 16, 0, 0, 0, 0, time.UTC)
	recs := []*Record{
		{
			Name:        "Half-Life 2",
			SortingName: "Half-Life 02",
			ReleaseDate: &released,
			Platforms:   []platform.Platform{"pc_windows"},
			Links:       []Link{{Label: "Steam", URL: "https://store.steampowered.com/app/220"}},
		},
		{Name: "Undated Game"},
	}
	require.NoError(t, store.InsertRecords(ctx, recs))
	assert.NotEmpty(t, recs[0].ID, "insert assigns ids")

	loaded, err := store.Records(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byName := make(map[string]*Record)
	for _, r := range loaded {
		byName[r.Name] = r
	}

	hl2 := byName["Half-Life 2"]
	require.NotNil(t, hl2)
	assert.Equal(t, "Half-Life 02", hl2.SortingName)
	require.NotNil(t, hl2.ReleaseDate)
	assert.Equal(t, "2004-11-16", hl2.ReleaseDate.Format("2006-01-02"))
	assert.Equal(t, []platform.Platform{"pc_windows"}, hl2.Platforms)
	require.Len(t, hl2.Links, 1)
	assert.Equal(t, "Steam", hl2.Links[0].Label)

	assert.Nil(t, byName["Undated Game"].ReleaseDate)
}

func TestFindPropertyCaseInsensitive(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.AddProperty(ctx, KindTag, "Roguelike")
	require.NoError(t, err)

	found, err := store.FindProperty(ctx, KindTag, "ROGUELIKE")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	// Same name under a different kind is a different entity.
	other, err := store.FindProperty(ctx, KindGenre, "Roguelike")
	require.NoError(t, err)
	assert.Nil(t, other)

	missing, err := store.FindProperty(ctx, KindTag, "Metroidvania")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestBatchCommitPersistsChanges(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	recs := []*Record{{Name: "Game A"}, {Name: "Game B"}}
	require.NoError(t, store.InsertRecords(ctx, recs))

	recs[0].TagIDs = []string{"tag-1"}
	recs[0].Links = append(recs[0].Links, Link{Label: "Steam", URL: "https://store.steampowered.com/app/1"})

	batch := store.BeginBatch()
	batch.Update(recs[0])
	batch.Update(recs[0]) // staging twice writes once

	written, failed, err := batch.Commit(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Equal(t, 1, written)

	loaded, err := store.Records(ctx)
	require.NoError(t, err)
	for _, r := range loaded {
		if r.ID == recs[0].ID {
			assert.Equal(t, []string{"tag-1"}, r.TagIDs)
			assert.Len(t, r.Links, 1)
		} else {
			assert.Empty(t, r.TagIDs)
		}
	}
}

func TestBatchCommitReportsMissingRecords(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ghost := &Record{ID: "does-not-exist", Name: "Ghost"}
	batch := store.BeginBatch()
	batch.Update(ghost)

	written, failed, err := batch.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	require.Len(t, failed, 1)
	assert.Equal(t, "does-not-exist", failed[0].RecordID)
}

func TestEmptyBatchCommit(t *testing.T) {
	store := openTestStore(t)
	written, failed, err := store.BeginBatch().Commit(context.Background())
	require.NoError(t, err)
	assert.Zero(t, written)
	assert.Empty(t, failed)
}

func TestCollectStats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertRecords(ctx, []*Record{{Name: "A"}, {Name: "B"}}))
	_, err := store.AddProperty(ctx, KindTag, "Roguelike")
	require.NoError(t, err)
	_, err = store.AddProperty(ctx, KindSeries, "Half-Life")
	require.NoError(t, err)

	stats, err := store.CollectStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Properties[KindTag])
	assert.Equal(t, 1, stats.Properties[KindSeries])
	assert.Equal(t, 0, stats.Properties[KindGenre])
}

func TestReopenExistingDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "library.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.InsertRecords(context.Background(), []*Record{{Name: "A"}}))
	require.NoError(t, store.Close())

	store, err = Open(path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
}
