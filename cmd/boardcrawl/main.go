// Package main provides the entry point for the boardcrawl CLI.
//
// boardcrawl walks every board of a bitcointalk-style forum and appends the
// topic titles and post bodies to one file per board. A run that stops early
// can be resumed with --beginFromBoard and --beginFromTopic.
//
// Usage:
//
//	boardcrawl -o ./corpus
//	boardcrawl --beginFromBoard 12 --beginFromTopic 340
//	boardcrawl history
//
// See --help for all available options.
package main

func main() {
	Execute()
}
