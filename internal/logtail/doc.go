// Package logtail reads the end of tote's own log file for the in-app
// diagnostics overlay.
//
// Read keeps a ring buffer of the last N lines so large files are scanned
// once without being held in memory. Level and AtLeast understand the
// key=value lines written by slog's text handler, which is how the
// overlay hides debug chatter by default.
package logtail
