package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/five82/folio/internal/bookshelf"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// stars renders a 1..5 rating as filled and empty stars.
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// ratingSummary renders "★ 4.3 (3 reviews)", or "" when unrated.
func ratingSummary(book bookshelf.Book) string {
	if !book.HasRating() {
		return ""
	}
	noun := "reviews"
	if book.ReviewCount == 1 {
		noun = "review"
	}
	return fmt.Sprintf("★ %.1f (%d %s)", book.AverageRating, book.ReviewCount, noun)
}

// formatDate renders a review timestamp, or "" when it did not parse.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
