// Package database stores the history of crawl runs in SQLite.
//
// Every finished run, including ones ended by a fatal error or a signal, is
// recorded with its counters and the position it reached, so the operator can
// look up which --beginFromBoard/--beginFromTopic to pass next time. The
// history is informational only; a crawl never reads it to resume.
//
// The pure-Go modernc.org/sqlite driver keeps the binary free of cgo.
package database
