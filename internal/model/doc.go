// Package model defines the data structures shared by the boardcrawl packages.
//
// This package contains the following main types:
//   - Board: A forum section discovered on the board index
//   - Topic: A discussion thread listed inside a board
//   - Kind: The destination stream of a record (messages or topics)
//   - WriteTask: A queued, not yet executed append to a destination file
//   - RunStats: Counters describing one crawl run
//
// Entities are created once, consumed once and never mutated afterwards.
// Positions (board index, topic index) are the unit of resumption, so
// none of these types carry an identifier of their own.
package model
