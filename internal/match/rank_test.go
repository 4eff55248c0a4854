package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proptag/internal/library"
)

func date(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func claimFor(rec *library.Record) Claim {
	return Claim{Record: rec}
}

func TestRankOrdersBySortingNameThenDate(t *testing.T) {
	claims := []Claim{
		claimFor(&library.Record{ID: "3", Name: "Zeta"}),
		claimFor(&library.Record{ID: "1", Name: "The Alpha", SortingName: "Alpha, The", ReleaseDate: date("2005-06-01")}),
		claimFor(&library.Record{ID: "2", Name: "Alpha, The", ReleaseDate: date("2001-01-01")}),
		claimFor(&library.Record{ID: "4", Name: "Alpha, The"}),
	}

	ranked := Rank(claims)

	ids := make([]string, len(ranked))
	for i, cl := range ranked {
		ids[i] = cl.Record.ID
	}
	// "Alpha, The" sorts together via sorting name; undated first, then by
	// date; id breaks the remaining tie deterministically.
	assert.Equal(t, []string{"4", "2", "1", "3"}, ids)
}

func TestRankIsDeterministic(t *testing.T) {
	claims := []Claim{
		claimFor(&library.Record{ID: "b", Name: "Same"}),
		claimFor(&library.Record{ID: "a", Name: "Same"}),
		claimFor(&library.Record{ID: "c", Name: "Same"}),
	}

	first := Rank(claims)
	for i := 0; i < 5; i++ {
		again := Rank(claims)
		require.Equal(t, len(first), len(again))
		for j := range first {
			assert.Equal(t, first[j].Record.ID, again[j].Record.ID)
		}
	}
	assert.Equal(t, "a", first[0].Record.ID)
}

func TestRankDoesNotMutateInput(t *testing.T) {
	claims := []Claim{
		claimFor(&library.Record{ID: "2", Name: "B"}),
		claimFor(&library.Record{ID: "1", Name: "A"}),
	}
	_ = Rank(claims)
	assert.Equal(t, "2", claims[0].Record.ID)
}

func TestRankCaseSensitiveCompare(t *testing.T) {
	claims := []Claim{
		claimFor(&library.Record{ID: "1", Name: "apple"}),
		claimFor(&library.Record{ID: "2", Name: "Banana"}),
	}
	ranked := Rank(claims)
	// Bytewise compare puts uppercase first.
	assert.Equal(t, "2", ranked[0].Record.ID)
}
