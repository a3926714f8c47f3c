package model

import "time"

// RunStats summarizes a single crawl run.
// The orchestrator fills the crawl counters, the write queue fills the
// write counters, and the CLI stamps the timing fields.
type RunStats struct {
	// RootURL is the forum index the run started from.
	RootURL string `json:"root_url"`

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// BeginFromBoard and BeginFromTopic are the 1-based resume offsets the
	// run was started with.
	BeginFromBoard int `json:"begin_from_board"`
	BeginFromTopic int `json:"begin_from_topic"`

	// LastBoard and LastTopic are the 1-based position the crawl reached.
	// After a fatal error they are the offsets to resume from.
	LastBoard int `json:"last_board"`
	LastTopic int `json:"last_topic"`

	BoardsTotal     int `json:"boards_total"`
	BoardsProcessed int `json:"boards_processed"`
	TopicsProcessed int `json:"topics_processed"`
	TopicsSkipped   int `json:"topics_skipped"`
	PagesFetched    int `json:"pages_fetched"`

	// PagesFailed counts message pages whose extraction failed and were
	// treated as having no records.
	PagesFailed int `json:"pages_failed"`

	MessagesQueued   int `json:"messages_queued"`
	MessagesFiltered int `json:"messages_filtered"`
	TitlesQueued     int `json:"titles_queued"`

	// Write counters, copied from the write queue after the final drain.
	RecordsWritten int `json:"records_written"`
	RecordsDropped int `json:"records_dropped"`

	// Interrupted is true when the run was cancelled by a signal.
	Interrupted bool `json:"interrupted"`

	// Error is the fatal error that ended the run early, if any.
	Error string `json:"error,omitempty"`
}

// Duration returns how long the run took.
// It returns zero when the run has not finished.
func (s *RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Completed reports whether the run walked the whole board list.
func (s *RunStats) Completed() bool {
	return s.Error == "" && !s.Interrupted
}

// RecordsQueued returns the number of records handed to the write queue.
func (s *RunStats) RecordsQueued() int {
	return s.MessagesQueued + s.TitlesQueued
}

// Run is a crawl run stored in the run history.
type Run struct {
	// ID is the history row id.
	ID int64 `json:"id"`

	// Stats is the summary the run produced.
	Stats RunStats `json:"stats"`
}
