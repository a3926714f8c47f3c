// Package log builds the slog loggers used by boardcrawl.
//
// Every logger is wrapped in a SecureHandler, which masks session cookies and
// credentials passed in attributes and truncates raw page bodies attached for
// diagnostics, so a failed page does not flood the log. Logs go to stderr and
// optionally to a size-rotated file.
package log
