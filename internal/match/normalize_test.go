package match

import (
	"fmt"
	"sync"
	"testing"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Foo Bar", "foobar"},
		{"Foo: Bar (Deluxe Edition)", "foobar"},
		{"Foo Bar (USA) [rev 1]", "foobar"},
		{"FOO   bar!!", "foobar"},
		{"Pokémon", "pokemon"},
		{"Ōkami", "okami"},
		{"Ｆｉｎａｌ Ｆａｎｔａｓｙ", "finalfantasy"},
		{"Half-Life 2", "halflife2"},
		{"(Untitled)", "untitled"},
		{"   ", ""},
		{"", ""},
	}

	for _, tc := range tests {
		result := normalizeName(tc.input)
		if result != tc.expected {
			t.Errorf("normalizeName(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestNormalizeNameBracketGroupsOnlyAtEnd(t *testing.T) {
	// A parenthetical in the middle of the name is part of the name.
	got := normalizeName("Half (Broken) Life")
	want := "halfbrokenlife"
	if got != want {
		t.Errorf("normalizeName = %q, want %q", got, want)
	}
}

func TestNormalizerCaches(t *testing.T) {
	n := NewNormalizer()
	first := n.Key("Foo Bar (Deluxe Edition)")
	second := n.Key("Foo Bar (Deluxe Edition)")
	if first != second || first != "foobar" {
		t.Errorf("cached key mismatch: %q vs %q", first, second)
	}
}

func TestNormalizerConcurrentAccess(t *testing.T) {
	n := NewNormalizer()

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				name := fmt.Sprintf("Game %d (GOTY Edition)", i%20)
				want := fmt.Sprintf("game%d", i%20)
				if got := n.Key(name); got != want {
					t.Errorf("Key(%q) = %q, want %q", name, got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}
