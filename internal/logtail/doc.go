// Package logtail reads the tail of folio's log file and renders zap JSON
// entries as single readable lines for `folio log`.
package logtail
