package match

import (
	"slices"
	"strings"
)

// Rank orders claims for review: sorting name (or name) ascending, then
// release date ascending with undated records first, then record id so the
// order is a deterministic total order.
func Rank(claims []Claim) []Claim {
	out := slices.Clone(claims)
	slices.SortFunc(out, func(a, b Claim) int {
		if c := strings.Compare(sortName(a), sortName(b)); c != 0 {
			return c
		}
		if c := compareDates(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.Record.ID, b.Record.ID)
	})
	return out
}

func sortName(c Claim) string {
	if strings.TrimSpace(c.Record.SortingName) != "" {
		return c.Record.SortingName
	}
	return c.Record.Name
}

func compareDates(a, b Claim) int {
	da, db := a.Record.ReleaseDate, b.Record.ReleaseDate
	switch {
	case da == nil && db == nil:
		return 0
	case da == nil:
		return -1
	case db == nil:
		return 1
	case da.Before(*db):
		return -1
	case db.Before(*da):
		return 1
	default:
		return 0
	}
}
