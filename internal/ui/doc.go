// Package ui provides the terminal interface for folio, built on Bubble Tea.
//
// # Architecture Overview
//
// A single root Model owns every screen's state and switches between them by
// route. Screens never talk to the network directly: key handlers return
// tea.Cmds built in commands.go, and the results come back as messages that
// the matching handle* method folds into the model.
//
// # Screens
//
//   - Books: paginated catalog with search, genre filter and sort
//   - Book: detail view with reviews and the review composer
//   - Login and Sign Up
//   - Add Book and Edit Book: the book form
//   - Profile: the user's own books and reviews, with delete confirmation
//
// # Route Guard
//
// Add Book, Edit Book and Profile are protected. While the session store is
// still restoring, a protected screen renders a loading line and waits.
// Once restore settles it either mounts the screen or redirects to Login.
// The guard is re-checked after every message, so logout and a 401 that
// clears the session both move the user off protected screens.
//
// # Stale Responses
//
// Book list requests carry a generation number. Only the response for the
// latest generation is applied, so fast typing in the search box never
// leaves an older result on screen. Detail, edit and delete responses are
// matched on the book id they were issued for.
//
// # Key Handling
//
// ctrl+c always quits. When a text input has focus, keys go to the input and
// only ctrl+s, tab and esc act on the form. Otherwise single-letter bindings
// from keys.go apply; ? shows them all.
//
// # Usage Example
//
//	err := ui.Run(ui.Options{
//	    Context:   ctx,
//	    Client:    client,
//	    Session:   store,
//	    Logger:    logger,
//	    ThemeName: userPrefs.Theme,
//	})
package ui
