package match

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptag/internal/catalog"
	"proptag/internal/ident"
	"proptag/internal/library"
	"proptag/internal/platform"
)

type fakeExtractor struct {
	ids map[string]string
}

func (f fakeExtractor) Extract(url string) (string, bool) {
	id, ok := f.ids[url]
	return id, ok
}

func newTestEngine(ids map[string]string, workers int) *Engine {
	return NewEngine(ident.NewResolver(fakeExtractor{ids: ids}), workers, nil)
}

func record(id, name string, platforms ...platform.Platform) *library.Record {
	return &library.Record{ID: id, Name: name, Platforms: platforms}
}

func TestMatchByDeflatedNameAndPlatform(t *testing.T) {
	records := []*library.Record{
		record("1", "Foo Bar", "pc_windows"),
	}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo: Bar (Deluxe Edition)"}, Platforms: []platform.Platform{"pc_windows"}},
	}

	engine := newTestEngine(nil, 1)
	claims, completed := engine.Match(context.Background(), candidates, records, nil)

	require.True(t, completed)
	require.Len(t, claims, 1)
	assert.Equal(t, "1", claims[0].Record.ID)
	assert.Equal(t, ViaName, claims[0].Via)
}

func TestMatchPlatformMismatchRejects(t *testing.T) {
	records := []*library.Record{
		record("1", "Foo Bar", "nintendo_switch"),
	}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo Bar"}, Platforms: []platform.Platform{"pc_windows"}},
	}

	engine := newTestEngine(nil, 1)
	claims, completed := engine.Match(context.Background(), candidates, records, nil)

	require.True(t, completed)
	assert.Empty(t, claims)
}

func TestMatchEmptyPlatformsArePermissive(t *testing.T) {
	records := []*library.Record{
		record("1", "Foo Bar"),
	}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo Bar"}, Platforms: []platform.Platform{"pc_windows"}},
	}

	engine := newTestEngine(nil, 1)
	claims, _ := engine.Match(context.Background(), candidates, records, nil)
	require.Len(t, claims, 1)
}

func TestMatchByIdentifier(t *testing.T) {
	rec := record("1", "Totally Different Name")
	rec.Links = []library.Link{{Label: "Steam", URL: "https://store.example/app/42"}}

	records := []*library.Record{rec}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo Bar"}, SourceURL: "https://catalog.example/games/foo-bar"},
	}

	engine := newTestEngine(map[string]string{
		"https://store.example/app/42":          "42",
		"https://catalog.example/games/foo-bar": "42",
	}, 1)

	claims, completed := engine.Match(context.Background(), candidates, records, nil)
	require.True(t, completed)
	require.Len(t, claims, 1)
	assert.Equal(t, ViaIdentifier, claims[0].Via)
}

func TestIdentifierMismatchSuppressesNameTier(t *testing.T) {
	// The record resolves to id 42, the candidate to id 99. Names are
	// identical, but identifier presence decides the record alone.
	rec := record("1", "Foo Bar")
	rec.Links = []library.Link{{Label: "Steam", URL: "https://store.example/app/42"}}

	records := []*library.Record{rec}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo Bar"}, SourceURL: "https://catalog.example/games/foo-bar"},
	}

	engine := newTestEngine(map[string]string{
		"https://store.example/app/42":          "42",
		"https://catalog.example/games/foo-bar": "99",
	}, 1)

	claims, completed := engine.Match(context.Background(), candidates, records, nil)
	require.True(t, completed)
	assert.Empty(t, claims)
}

func TestRecordWithUnresolvableLinksFallsThroughToNameTier(t *testing.T) {
	rec := record("1", "Foo Bar")
	rec.Links = []library.Link{{Label: "Wiki", URL: "https://wiki.example/foo-bar"}}

	records := []*library.Record{rec}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo Bar"}, SourceURL: "https://catalog.example/games/foo-bar"},
	}

	engine := newTestEngine(map[string]string{
		"https://catalog.example/games/foo-bar": "99",
	}, 1)

	claims, _ := engine.Match(context.Background(), candidates, records, nil)
	require.Len(t, claims, 1)
	assert.Equal(t, ViaName, claims[0].Via)
}

func TestDedupFirstClaimWins(t *testing.T) {
	records := []*library.Record{
		record("1", "Foo Bar"),
	}
	candidates := []catalog.Candidate{
		{Names: []string{"Foo Bar"}, SourceURL: "https://catalog.example/a"},
		{Names: []string{"Foo Bar"}, SourceURL: "https://catalog.example/b"},
	}

	// Sequential workers make claim order deterministic for the assertion;
	// the dedup invariant itself holds at any width.
	engine := newTestEngine(nil, 1)
	claims, completed := engine.Match(context.Background(), candidates, records, nil)

	require.True(t, completed)
	require.Len(t, claims, 1)
	assert.Equal(t, "https://catalog.example/a", claims[0].Candidate.SourceURL)
}

func TestDedupInvariantUnderParallelism(t *testing.T) {
	var records []*library.Record
	for i := 0; i < 50; i++ {
		records = append(records, record(string(rune('a'+i%26))+string(rune('0'+i/26)), "Popular Game"))
	}
	var candidates []catalog.Candidate
	for i := 0; i < 40; i++ {
		candidates = append(candidates, catalog.Candidate{Names: []string{"Popular Game"}})
	}

	engine := newTestEngine(nil, 8)
	claims, completed := engine.Match(context.Background(), candidates, records, nil)
	require.True(t, completed)

	seen := make(map[string]int)
	for _, cl := range claims {
		seen[cl.Record.ID]++
	}
	for id, count := range seen {
		assert.Equal(t, 1, count, "record %s claimed %d times", id, count)
	}
}

func TestCandidateWithNoNamesNeverMatches(t *testing.T) {
	rec := record("1", "Foo Bar")
	rec.Links = []library.Link{{Label: "Steam", URL: "https://store.example/app/42"}}

	records := []*library.Record{rec}
	candidates := []catalog.Candidate{
		{Names: nil, SourceURL: "https://catalog.example/games/foo-bar"},
	}

	engine := newTestEngine(map[string]string{
		"https://store.example/app/42":          "42",
		"https://catalog.example/games/foo-bar": "42",
	}, 1)

	claims, _ := engine.Match(context.Background(), candidates, records, nil)
	assert.Empty(t, claims)
}

func TestMatchCancellationDiscardsEverything(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []*library.Record{record("1", "Foo Bar")}
	candidates := []catalog.Candidate{{Names: []string{"Foo Bar"}}}

	engine := newTestEngine(nil, 4)
	claims, completed := engine.Match(ctx, candidates, records, nil)

	assert.False(t, completed)
	assert.Nil(t, claims)
}

func TestMatchProgressReachesTotal(t *testing.T) {
	var records []*library.Record
	for i := 0; i < 10; i++ {
		records = append(records, record(string(rune('a'+i)), "Nothing Matches This"))
	}
	candidates := make([]catalog.Candidate, 20)
	for i := range candidates {
		candidates[i] = catalog.Candidate{Names: []string{"Some Entry"}}
	}

	var calls atomic.Int64
	var sawTotal atomic.Bool
	engine := newTestEngine(nil, 4)
	_, completed := engine.Match(context.Background(), candidates, records, func(done, total int) {
		calls.Add(1)
		if done == total {
			sawTotal.Store(true)
		}
	})

	require.True(t, completed)
	assert.Equal(t, int64(len(candidates)), calls.Load())
	assert.True(t, sawTotal.Load())
}

func TestMatchNoCandidates(t *testing.T) {
	engine := newTestEngine(nil, 4)
	claims, completed := engine.Match(context.Background(), nil, []*library.Record{record("1", "Foo")}, nil)
	assert.True(t, completed)
	assert.Empty(t, claims)
}
