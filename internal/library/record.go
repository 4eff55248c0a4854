package library

import (
	"fmt"
	"strings"
	"time"

	"proptag/internal/platform"
)

// PropertyKind selects which association list of a record a grouping
// property is applied to.
type PropertyKind string

const (
	KindTag      PropertyKind = "tag"
	KindGenre    PropertyKind = "genre"
	KindCategory PropertyKind = "category"
	KindFeature  PropertyKind = "feature"
	KindSeries   PropertyKind = "series"
)

// Kinds lists every property kind in display order.
func Kinds() []PropertyKind {
	return []PropertyKind{KindTag, KindGenre, KindCategory, KindFeature, KindSeries}
}

// ParseKind maps a free-form kind name to a PropertyKind. Unrecognized names
// fall back to tag, matching how unmapped catalog properties are imported.
func ParseKind(s string) PropertyKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "genre", "genres":
		return KindGenre
	case "category", "categories":
		return KindCategory
	case "feature", "features":
		return KindFeature
	case "series":
		return KindSeries
	default:
		return KindTag
	}
}

// Link is a labeled URL attached to a record.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Property is a grouping entity (a tag, genre, category, feature or series
// value) identified case-insensitively by name within its kind.
type Property struct {
	ID   string
	Kind PropertyKind
	Name string
}

// Record is one library entry. Association id lists and links are mutated in
// place during an apply and written back through a store batch.
type Record struct {
	ID          string
	Name        string
	SortingName string
	ReleaseDate *time.Time
	Platforms   []platform.Platform
	Links       []Link

	TagIDs      []string
	GenreIDs    []string
	CategoryIDs []string
	FeatureIDs  []string
	SeriesIDs   []string
}

// AssociationIDs returns the id list for the given kind.
func (r *Record) AssociationIDs(kind PropertyKind) []string {
	switch kind {
	case KindGenre:
		return r.GenreIDs
	case KindCategory:
		return r.CategoryIDs
	case KindFeature:
		return r.FeatureIDs
	case KindSeries:
		return r.SeriesIDs
	default:
		return r.TagIDs
	}
}

// AddAssociation appends id to the kind's list. Returns false when the id is
// already present, leaving the record untouched.
func (r *Record) AddAssociation(kind PropertyKind, id string) bool {
	list := r.AssociationIDs(kind)
	for _, existing := range list {
		if existing == id {
			return false
		}
	}
	list = append(list, id)
	switch kind {
	case KindGenre:
		r.GenreIDs = list
	case KindCategory:
		r.CategoryIDs = list
	case KindFeature:
		r.FeatureIDs = list
	case KindSeries:
		r.SeriesIDs = list
	default:
		r.TagIDs = list
	}
	return true
}

// HasLinkTo reports whether the record already links to url, comparing by
// prefix so tracking parameters or sub-pages on an existing link still count.
func (r *Record) HasLinkTo(url string) bool {
	target := strings.TrimSuffix(url, "/")
	if target == "" {
		return false
	}
	for _, l := range r.Links {
		existing := strings.TrimSuffix(l.URL, "/")
		if strings.HasPrefix(existing, target) || strings.HasPrefix(target, existing) {
			return true
		}
	}
	return false
}

// DisplayName returns the sorting name when set, otherwise the name.
func (r *Record) DisplayName() string {
	if strings.TrimSpace(r.SortingName) != "" {
		return r.SortingName
	}
	return r.Name
}

func (r *Record) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, r.ID)
}
