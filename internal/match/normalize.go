package match

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// reTrailingQualifiers matches one or more parenthetical or bracketed groups
// at the end of a name, e.g. "Foo (Deluxe Edition) [EU]".
var reTrailingQualifiers = regexp.MustCompile(`(\s*[(\[][^()\[\]]*[)\]])+\s*$`)

// stripDiacritics removes combining marks after NFD decomposition.
func stripDiacritics(s string) string {
	decomp := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomp))
	for _, r := range decomp {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// deflate removes everything except letters and digits, case-folded, so two
// names differing only in cosmetic formatting produce identical keys.
func deflate(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func normalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Strip trailing edition/region qualifier groups, unless that leaves
	// nothing to compare.
	stripped := reTrailingQualifiers.ReplaceAllString(s, "")
	if strings.TrimSpace(stripped) != "" {
		s = stripped
	}

	// Fold width/compatibility forms (full-width digits etc.)
	s = norm.NFKC.String(s)

	// Remove diacritics (é -> e, ñ -> n, ō -> o)
	s = stripDiacritics(s)

	return deflate(s)
}

// Normalizer memoizes name-to-key computation. The cache is shared across the
// engine's workers; redundant computation on a racing first write is harmless
// since keys are deterministic.
type Normalizer struct {
	mu    sync.RWMutex
	cache map[string]string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{cache: make(map[string]string)}
}

// Key returns the canonical comparison key for a raw display name.
func (n *Normalizer) Key(name string) string {
	n.mu.RLock()
	key, ok := n.cache[name]
	n.mu.RUnlock()
	if ok {
		return key
	}

	key = normalizeName(name)

	n.mu.Lock()
	n.cache[name] = key
	n.mu.Unlock()
	return key
}
