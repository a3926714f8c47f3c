// Package report renders crawl run summaries.
//
// After a crawl the CLI prints the run's RunStats with one of the writers:
//   - SimpleWriter: plain text for the terminal
//   - MarkdownWriter: Markdown for pasting into issues or notes
//   - JSONWriter: JSON for scripts
//
// The same writers render the run history listed by `boardcrawl history`.
package report
