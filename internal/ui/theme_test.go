package ui

import (
	"testing"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/catalog"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 {
		t.Fatalf("ThemeNames() returned %d names, want 3", len(names))
	}
	if names[0] != "Nightfox" || names[1] != "Kanagawa" || names[2] != "Slate" {
		t.Fatalf("ThemeNames() = %v, want [Nightfox Kanagawa Slate]", names)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Unknown"); got != "Nightfox" {
		t.Fatalf("NextTheme(Unknown) = %q, want Nightfox", got)
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("Dracula").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(Dracula).Name = %q, want Nightfox", got)
	}
}

func TestEveryThemeColorsEveryGenre(t *testing.T) {
	for _, name := range ThemeNames() {
		th := GetTheme(name)
		for _, genre := range catalog.FormGenres {
			if th.GenreColors[genre] == "" {
				t.Fatalf("theme %s has no color for %q", name, genre)
			}
		}
	}
}

func TestStars(t *testing.T) {
	cases := map[int]string{
		0:  "☆☆☆☆☆",
		3:  "★★★☆☆",
		5:  "★★★★★",
		9:  "★★★★★",
		-1: "☆☆☆☆☆",
	}
	for in, want := range cases {
		if got := stars(in); got != want {
			t.Fatalf("stars(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRatingSummary(t *testing.T) {
	if got := ratingSummary(bookshelf.Book{}); got != "" {
		t.Fatalf("ratingSummary unrated = %q, want empty", got)
	}
	if got := ratingSummary(bookshelf.Book{AverageRating: 4.333, ReviewCount: 3}); got != "★ 4.3 (3 reviews)" {
		t.Fatalf("ratingSummary = %q", got)
	}
	if got := ratingSummary(bookshelf.Book{AverageRating: 5, ReviewCount: 1}); got != "★ 5.0 (1 review)" {
		t.Fatalf("ratingSummary single = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("  The Left Hand of Darkness ", 12); got != "The Left ..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("Dune", 12); got != "Dune" {
		t.Fatalf("truncate short = %q", got)
	}
}
