// Package mockapi serves an in-memory copy of the catalog REST API.
//
// It backs cmd/folio-mock for local development and the HTTP-level tests of
// the client and the UI. Routes mirror the real backend under /api, answer
// with the same populated shapes, and enforce ownership on book updates and
// deletes. Deleting a book removes its reviews. Every request is counted in
// folio_mock_requests_total, exposed on /metrics.
package mockapi
