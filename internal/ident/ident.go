// Package ident extracts stable provider identifiers from source URLs so
// external candidates and library records can be cross-referenced exactly.
package ident

import (
	"fmt"
	"regexp"
	"strings"
)

// Extractor turns a source URL into a provider-specific identifier.
// Implementations must be side-effect free and safe for concurrent use.
type Extractor interface {
	Extract(url string) (string, bool)
}

type regexExtractor struct {
	re *regexp.Regexp
}

func (e regexExtractor) Extract(url string) (string, bool) {
	if strings.TrimSpace(url) == "" {
		return "", false
	}
	m := e.re.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var (
	steamRe = regexp.MustCompile(`(?i)steampowered\.com/app/(\d+)`)
	itchRe  = regexp.MustCompile(`(?i)https?://([a-z0-9-]+\.itch\.io/[a-z0-9_-]+)`)
)

// Steam extracts the numeric app id from Steam store URLs.
func Steam() Extractor { return regexExtractor{re: steamRe} }

// Itch extracts the "author.itch.io/game" slug from itch.io game URLs.
func Itch() Extractor { return regexExtractor{re: itchRe} }

// ForProvider returns the extractor for a configured catalog provider.
func ForProvider(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "steam":
		return Steam(), nil
	case "itch", "itchio", "itch.io":
		return Itch(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
