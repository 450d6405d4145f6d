package catalog

import "github.com/five82/folio/internal/bookshelf"

// ApplyReview folds one new rating into a running average. The result is
// for display only and is never written back to the server.
func ApplyReview(avg float64, count int, rating int) (float64, int) {
	if count < 0 {
		count = 0
	}
	newCount := count + 1
	return (avg*float64(count) + float64(rating)) / float64(newCount), newCount
}

// WithReview returns book and reviews after a successful review submission:
// the review goes first and the book's rating summary is patched.
func WithReview(book bookshelf.Book, reviews []bookshelf.Review, review bookshelf.Review) (bookshelf.Book, []bookshelf.Review) {
	book.AverageRating, book.ReviewCount = ApplyReview(book.AverageRating, book.ReviewCount, review.Rating)
	out := make([]bookshelf.Review, 0, len(reviews)+1)
	out = append(out, review)
	out = append(out, reviews...)
	return book, out
}

// RemoveBook drops the book with id from books, returning a new slice.
func RemoveBook(books []bookshelf.Book, id string) []bookshelf.Book {
	out := make([]bookshelf.Book, 0, len(books))
	for _, b := range books {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
