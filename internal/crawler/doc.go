// Package crawler walks a forum from its board index down to every message
// page and hands the extracted records to a write queue.
//
// # Traversal
//
// The Crawler runs three nested loops: boards, topics of a board, and message
// pages of a topic. Every fetch happens on the calling goroutine, so at most
// one request is in flight at any time. The only concurrency is between the
// crawl and the write queue's drain loop.
//
// # Resuming
//
// Options.StartBoard and Options.StartTopic are 0-based positions in the
// flattened board list and in the topic list of the start board. Boards before
// StartBoard are not fetched, topics before StartTopic are skipped on the start
// board only, and every later board starts from its first topic.
//
// # Failures
//
//   - A failure while fetching the board index or a board's topic listing,
//     including a tripped circuit breaker, ends the run.
//   - A failure while fetching a topic's pages skips that topic.
//   - A message page whose posts cannot be extracted contributes no records;
//     the topic continues with its next page.
//
// # Usage
//
//	c := crawler.New(fetcher, forum.NewParser(), queue, rootURL, crawler.Options{
//		OutputDir:  "out",
//		StartBoard: 2,
//	})
//	stats, err := c.Run(ctx)
package crawler
