package platform

import "strings"

// Platform is a normalized platform specification id, e.g. "pc_windows".
type Platform string

// aliases maps the names catalog providers and library imports use to the
// specification ids the library stores.
var aliases = map[string]Platform{
	"pc":              "pc_windows",
	"windows":         "pc_windows",
	"pc (windows)":    "pc_windows",
	"pc_windows":      "pc_windows",
	"mac":             "macintosh",
	"macos":           "macintosh",
	"osx":             "macintosh",
	"macintosh":       "macintosh",
	"linux":           "pc_linux",
	"pc_linux":        "pc_linux",
	"ps4":             "sony_playstation4",
	"playstation 4":   "sony_playstation4",
	"ps5":             "sony_playstation5",
	"playstation 5":   "sony_playstation5",
	"xbox one":        "xbox_one",
	"xbox series x/s": "xbox_series",
	"switch":          "nintendo_switch",
	"nintendo switch": "nintendo_switch",
	"android":         "android",
	"ios":             "ios",
}

// Normalize maps a free-form platform name to its specification id. Unknown
// names pass through lowercased so two sources using the same unknown name
// still compare equal.
func Normalize(name string) Platform {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return ""
	}
	if p, ok := aliases[key]; ok {
		return p
	}
	return Platform(key)
}

// NormalizeAll converts a list of free-form names, dropping empties.
func NormalizeAll(names []string) []Platform {
	if len(names) == 0 {
		return nil
	}
	out := make([]Platform, 0, len(names))
	for _, n := range names {
		if p := Normalize(n); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Overlap reports whether two platform sets are compatible. A side with no
// platform information is treated as compatible with anything.
func Overlap(a, b []Platform) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	set := make(map[Platform]struct{}, len(a))
	for _, p := range a {
		set[p] = struct{}{}
	}
	for _, p := range b {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}
