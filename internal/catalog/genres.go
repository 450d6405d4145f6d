package catalog

// Genres are the filter values accepted by the list endpoint.
var Genres = []string{
	"Fiction",
	"Non-Fiction",
	"Mystery",
	"Science Fiction",
	"Biography",
	"Fantasy",
	"Romance",
	"Thriller",
}

// OtherGenre is accepted when creating or editing a book but is not offered
// as a list filter.
const OtherGenre = "Other"

// FormGenres are the values the book form offers.
var FormGenres = append(append([]string(nil), Genres...), OtherGenre)

// ValidGenre reports whether genre may be saved on a book.
func ValidGenre(genre string) bool {
	for _, g := range FormGenres {
		if g == genre {
			return true
		}
	}
	return false
}

// SortKey selects server-side ordering.
type SortKey string

const (
	SortDefault SortKey = ""
	SortYear    SortKey = "year"
	SortRating  SortKey = "rating"
)

// SortKeys lists the sort options in cycle order.
var SortKeys = []SortKey{SortDefault, SortYear, SortRating}

// Label returns the display name.
func (s SortKey) Label() string {
	switch s {
	case SortYear:
		return "Published Year"
	case SortRating:
		return "Average Rating"
	default:
		return "Newest"
	}
}

// NextSort cycles through SortKeys.
func NextSort(current SortKey) SortKey {
	for i, key := range SortKeys {
		if key == current {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return SortDefault
}

// NextGenre cycles "" (all genres) then each entry of Genres.
func NextGenre(current string) string {
	if current == "" {
		return Genres[0]
	}
	for i, g := range Genres {
		if g == current {
			if i+1 < len(Genres) {
				return Genres[i+1]
			}
			return ""
		}
	}
	return ""
}

// NextFormGenre cycles through FormGenres, starting from the first when
// current is unset.
func NextFormGenre(current string, step int) string {
	n := len(FormGenres)
	for i, g := range FormGenres {
		if g == current {
			return FormGenres[((i+step)%n+n)%n]
		}
	}
	if step < 0 {
		return FormGenres[n-1]
	}
	return FormGenres[0]
}
