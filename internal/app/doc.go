// Package app provides the orchestration layer for folio.
//
// # Overview
//
// This package wires together configuration, logging, the session store, the
// API client and the UI. It is the composition root: every dependency is
// built here and handed down.
//
// # Startup
//
//  1. Load config from ~/.config/folio/config.toml, a .env file and FOLIO_* variables
//  2. Open the JSON-lines log file
//  3. Create the session store backed by the session file
//  4. Create the API client, authenticated from the store
//  5. Start the TUI and block until the user exits or the context ends
//
// The session is restored by the UI itself so the first frame can show the
// restoring state.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()         Read config, .env, env vars
//	       ├─────> logging.New()         File logger
//	       ├─────> session.NewStore()    Token and user, persisted
//	       ├─────> bookshelf.NewClient() Bearer token from the store
//	       └─────> ui.Run()              Start TUI (blocks)
//
// A 401 on a request that carried a token clears the store. The UI sees the
// change on its next message and leaves any protected screen.
//
// # Error Handling
//
// Fatal errors (returned from Open and Run):
//   - Config file present but unreadable or invalid
//   - Log directory cannot be created
//   - API URL is not an absolute http(s) URL
//
// Everything after startup is recoverable: request failures become flash
// messages and log entries.
//
// # Usage Example
//
//	if err := app.Run(ctx, app.Options{}); err != nil {
//		log.Fatalf("folio failed: %v", err)
//	}
//
// The CLI subcommands use Open directly to share the same wiring without
// starting the TUI.
package app
