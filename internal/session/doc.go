// Package session holds the authenticated identity shared by every screen.
//
// Store keeps a token and a user profile that are always set or cleared
// together, persists them as TOML under the configured path, and fans out a
// Snapshot to subscribers on each change. Snapshot.Guard maps the state onto
// the three route-guard outcomes used by protected screens.
package session
