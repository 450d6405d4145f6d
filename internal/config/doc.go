// Package config loads folio's configuration.
//
// # Overview
//
// Configuration lives in a small TOML file. Every field is optional and a
// missing file is not an error, so folio runs against a local backend with
// no setup at all.
//
// # Resolution Order
//
//  1. Built-in defaults
//  2. The TOML file (explicit path, else ~/.config/folio/config.toml)
//  3. A .env file in the working directory, loaded into the environment
//  4. FOLIO_API_URL, FOLIO_LOG_LEVEL and FOLIO_SESSION_FILE
//
// Variables already set in the environment win over .env entries.
//
// # TOML Format
//
//	api_url = "http://localhost:5000/api"
//	session_file = "~/.config/folio/session.toml"
//	log_file = "~/.local/state/folio/folio.log"
//	log_level = "info"
//	request_timeout_seconds = 10
//
// api_url includes the API path. Paths get tilde expansion and are made
// absolute.
//
// # Error Handling
//
// Load fails on home directory lookup errors, unreadable files, and TOML
// syntax errors ("parse config: ...").
package config
