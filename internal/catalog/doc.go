// Package catalog holds the screen-independent rules of the book catalog:
// genre and sort options, list query change detection, pagination, the
// local rating patch, the delete confirmation flow, and form validation.
// Nothing here performs I/O.
package catalog
