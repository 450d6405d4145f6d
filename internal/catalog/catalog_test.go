package catalog

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/folio/internal/bookshelf"
)

func TestApplyReview(t *testing.T) {
	tests := []struct {
		name      string
		avg       float64
		count     int
		rating    int
		wantAvg   float64
		wantCount int
	}{
		{name: "running average", avg: 4.0, count: 3, rating: 5, wantAvg: 4.25, wantCount: 4},
		{name: "first review", avg: 0, count: 0, rating: 3, wantAvg: 3, wantCount: 1},
		{name: "lower rating", avg: 5, count: 1, rating: 1, wantAvg: 3, wantCount: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, count := ApplyReview(tt.avg, tt.count, tt.rating)
			assert.Equal(t, tt.wantAvg, avg)
			assert.Equal(t, tt.wantCount, count)
		})
	}
}

func TestWithReviewPrependsAndPatches(t *testing.T) {
	book := bookshelf.Book{ID: "b1", AverageRating: 4, ReviewCount: 3}
	reviews := []bookshelf.Review{{ID: "old"}}

	gotBook, gotReviews := WithReview(book, reviews, bookshelf.Review{ID: "new", Rating: 5})

	assert.Equal(t, 4.25, gotBook.AverageRating)
	assert.Equal(t, 4, gotBook.ReviewCount)
	require.Len(t, gotReviews, 2)
	assert.Equal(t, "new", gotReviews[0].ID)
	assert.Equal(t, "old", gotReviews[1].ID)
	assert.Equal(t, 3, book.ReviewCount, "input book must not be mutated")
}

func TestRemoveBook(t *testing.T) {
	books := []bookshelf.Book{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	got := RemoveBook(books, "b")
	assert.Equal(t, []bookshelf.Book{{ID: "a"}, {ID: "c"}}, got)
	assert.Len(t, books, 3)
}

func TestPager(t *testing.T) {
	single := Pager{CurrentPage: 1, TotalPages: 1}
	assert.False(t, single.Visible())
	assert.False(t, single.HasPrev())
	assert.False(t, single.HasNext())

	first := Pager{CurrentPage: 1, TotalPages: 3}
	assert.True(t, first.Visible())
	assert.False(t, first.HasPrev())
	assert.True(t, first.HasNext())
	assert.Equal(t, 1, first.Prev())
	assert.Equal(t, 2, first.Next())

	last := Pager{CurrentPage: 3, TotalPages: 3}
	assert.True(t, last.HasPrev())
	assert.False(t, last.HasNext())
	assert.Equal(t, 3, last.Next())
	assert.Equal(t, "Page 3 of 3", last.Label())

	empty := PagerFrom(bookshelf.BookPage{})
	assert.False(t, empty.Visible())
}

func TestListQueryChangeDetection(t *testing.T) {
	q := DefaultQuery()
	assert.False(t, NeedsFetch(q, q))
	assert.False(t, NeedsFetch(q, ListQuery{Page: 0, Search: "  "}), "normalization makes these equal")

	paged := q.WithPage(3)
	assert.True(t, NeedsFetch(q, paged))
	assert.Equal(t, 3, paged.Page)

	filtered := paged.WithFilters("dune", "", SortDefault)
	assert.Equal(t, 1, filtered.Page, "filter change resets the page")
	assert.True(t, NeedsFetch(paged, filtered))

	same := filtered.WithPage(2).WithFilters(" dune ", "", SortDefault)
	assert.Equal(t, 2, same.Page, "unchanged filters keep the page")

	cleared := filtered.Cleared()
	assert.Equal(t, DefaultQuery(), cleared)
	assert.True(t, NeedsFetch(filtered, cleared))
}

func TestListQueryParams(t *testing.T) {
	p := ListQuery{Page: 0, Search: " x ", Genre: "Fantasy", Sort: SortRating}.Params()
	assert.Equal(t, bookshelf.ListQuery{Page: 1, Limit: PageSize, Search: "x", Genre: "Fantasy", Sort: "rating"}, p)
}

func TestGenerationsDiscardStaleResponses(t *testing.T) {
	var g Generations
	first := g.Next()
	second := g.Next()
	assert.False(t, g.Current(first))
	assert.True(t, g.Current(second))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Next()
		}()
	}
	wg.Wait()
	assert.True(t, g.Current(second+50))
}

func TestCycles(t *testing.T) {
	assert.Equal(t, SortYear, NextSort(SortDefault))
	assert.Equal(t, SortRating, NextSort(SortYear))
	assert.Equal(t, SortDefault, NextSort(SortRating))
	assert.Equal(t, "Published Year", SortYear.Label())

	assert.Equal(t, "Fiction", NextGenre(""))
	assert.Equal(t, "Non-Fiction", NextGenre("Fiction"))
	assert.Equal(t, "", NextGenre("Thriller"))

	assert.Equal(t, "Fiction", NextFormGenre("", 1))
	assert.Equal(t, "Other", NextFormGenre("", -1))
	assert.Equal(t, "Other", NextFormGenre("Thriller", 1))
	assert.Equal(t, "Fiction", NextFormGenre("Other", 1))
	assert.Equal(t, "Thriller", NextFormGenre("Other", -1))

	assert.True(t, ValidGenre("Other"))
	assert.False(t, ValidGenre("Poetry"))
	assert.Len(t, Genres, 8)
	assert.Len(t, FormGenres, 9)
}

func TestDeleteFlow(t *testing.T) {
	var f DeleteFlow
	assert.Equal(t, DeleteIdle, f.Phase())

	_, ok := f.Confirm()
	assert.False(t, ok, "cannot confirm from idle")

	require.True(t, f.Request("b1"))
	assert.Equal(t, DeleteConfirming, f.Phase())
	assert.False(t, f.Request("b2"), "confirming only reachable from idle")
	assert.Equal(t, "b1", f.Target())

	require.True(t, f.Cancel())
	assert.Equal(t, DeleteIdle, f.Phase())
	assert.Empty(t, f.Target())

	require.True(t, f.Request("b1"))
	id, ok := f.Confirm()
	require.True(t, ok)
	assert.Equal(t, "b1", id)
	assert.Equal(t, DeleteExecuting, f.Phase())
	assert.False(t, f.Cancel(), "cannot cancel while executing")

	f.Finish("Failed to delete book")
	assert.Equal(t, DeleteConfirming, f.Phase())
	assert.Equal(t, "b1", f.Target())
	assert.Equal(t, "Failed to delete book", f.Err())

	_, ok = f.Confirm()
	require.True(t, ok)
	f.Finish("")
	assert.Equal(t, DeleteIdle, f.Phase())
	assert.False(t, f.Active())
}

func TestBookFormValidate(t *testing.T) {
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	valid := BookForm{Title: "Dune", Author: "Herbert", Description: "Sand", Genre: "Science Fiction", Year: "1965"}
	require.NoError(t, valid.Validate(now))

	tests := []struct {
		name  string
		edit  func(*BookForm)
		field string
	}{
		{name: "missing title", edit: func(f *BookForm) { f.Title = " " }, field: "Title"},
		{name: "missing author", edit: func(f *BookForm) { f.Author = "" }, field: "Author"},
		{name: "missing description", edit: func(f *BookForm) { f.Description = "" }, field: "Description"},
		{name: "missing genre", edit: func(f *BookForm) { f.Genre = "" }, field: "Genre"},
		{name: "unknown genre", edit: func(f *BookForm) { f.Genre = "Poetry" }, field: "Genre"},
		{name: "unset year", edit: func(f *BookForm) { f.Year = "" }, field: "Published year"},
		{name: "year too early", edit: func(f *BookForm) { f.Year = "999" }, field: "Published year"},
		{name: "year in future", edit: func(f *BookForm) { f.Year = "2027" }, field: "Published year"},
		{name: "year not a number", edit: func(f *BookForm) { f.Year = "19x5" }, field: "Published year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := valid
			tt.edit(&form)
			err := form.Validate(now)
			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}

	edge := valid
	edge.Year = "2026"
	require.NoError(t, edge.Validate(now))
	edge.Year = "1000"
	require.NoError(t, edge.Validate(now))

	in := BookForm{Title: " Dune ", Author: "Herbert", Description: "Sand", Genre: "Other", Year: " 1965 "}.BookInput()
	assert.Equal(t, bookshelf.BookInput{Title: "Dune", Author: "Herbert", Description: "Sand", Genre: "Other", PublishedYear: 1965}, in)
}

func TestFormFromBook(t *testing.T) {
	form := FormFromBook(bookshelf.Book{Title: "Dune", PublishedYear: 1965, Genre: "Fiction"})
	assert.Equal(t, "1965", form.Year)
	assert.Equal(t, "", FormFromBook(bookshelf.Book{}).Year)
}

func TestReviewForm(t *testing.T) {
	f := NewReviewForm()
	assert.Equal(t, 5, f.Rating)
	assert.Error(t, f.Validate(), "text required")

	f.Text = "great"
	f.SetRating(9)
	assert.Equal(t, 5, f.Rating)
	f.SetRating(0)
	assert.Equal(t, 1, f.Rating)
	require.NoError(t, f.Validate())
	assert.Equal(t, bookshelf.ReviewInput{BookID: "b1", Rating: 1, ReviewText: "great"}, f.ReviewInput("b1"))
}

func TestAuthForms(t *testing.T) {
	assert.Error(t, LoginForm{Email: "a@x.com"}.Validate())
	require.NoError(t, LoginForm{Email: "a@x.com", Password: "x"}.Validate())

	err := SignupForm{Name: "A", Email: "a@x.com", Password: "12345"}.Validate()
	var fieldErr *FieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "Password must be at least 6 characters", fieldErr.Message)
	require.NoError(t, SignupForm{Name: "A", Email: "a@x.com", Password: "secret"}.Validate())
}
