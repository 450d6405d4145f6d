// Package bookshelf provides an HTTP client for the book catalog REST API.
//
// # Overview
//
// The client wraps one configured *http.Client rooted at a fixed API base
// path. It exposes a verb per HTTP method (Get, Post, Put, Delete) plus a
// typed call for each catalog endpoint:
//
//   - POST /auth/login, POST /auth/register
//   - GET/POST /books, GET/PUT/DELETE /books/:id, GET /books/user/me
//   - GET /reviews/book/:id, POST /reviews, GET /reviews/user
//
// # Authentication
//
// A TokenSource (normally the session store) is consulted on every request.
// A non-empty token is sent as "Authorization: Bearer <token>"; an empty one
// sends the request unauthenticated. When a request that carried a token
// comes back 401 the unauthorized handler runs so the session can be
// dropped. Requests are never retried.
//
// # Errors
//
// Non-2xx responses return *APIError with the status and the server's
// "message" field, or GenericMessage when the body has none. Transport
// failures return *NetworkError. ErrorMessage picks the text to show a user.
//
// # Wire Types
//
// Ids arrive as "_id". References (addedBy, userId, bookId) arrive either as
// a bare id string or as a populated object depending on the endpoint, so
// UserRef and BookRef decode both shapes.
package bookshelf
