package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/boardcrawl/internal/model"
)

const ruleWidth = 70

// SimpleWriter renders plain-text summaries for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose adds the per-stream record counters.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose adds the detailed record counters to the summary.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write renders the summary of a single run.
func (w *SimpleWriter) Write(stats *model.RunStats) (int, error) {
	var sb strings.Builder

	rule(&sb, "=")
	sb.WriteString("BOARDCRAWL RUN SUMMARY\n")
	rule(&sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Forum:     %s\n", stats.RootURL)
	fmt.Fprintf(&sb, "Started:   %s\n", formatTime(stats.StartedAt))
	fmt.Fprintf(&sb, "Duration:  %s\n", formatDuration(stats.Duration()))
	if stats.Error != "" {
		fmt.Fprintf(&sb, "Status:    %s - %s\n", status(stats), stats.Error)
	} else {
		fmt.Fprintf(&sb, "Status:    %s\n", status(stats))
	}
	sb.WriteString("\n")

	rule(&sb, "-")
	sb.WriteString("PROGRESS\n")
	rule(&sb, "-")
	fmt.Fprintf(&sb, "  Started at board/topic: %s\n", position(stats.BeginFromBoard, stats.BeginFromTopic))
	fmt.Fprintf(&sb, "  Reached board/topic:    %s\n", position(stats.LastBoard, stats.LastTopic))
	fmt.Fprintf(&sb, "  Boards:                 %d of %d\n", stats.BoardsProcessed, stats.BoardsTotal)
	fmt.Fprintf(&sb, "  Topics:                 %d (%d skipped)\n", stats.TopicsProcessed, stats.TopicsSkipped)
	fmt.Fprintf(&sb, "  Pages fetched:          %d (%d unreadable)\n", stats.PagesFetched, stats.PagesFailed)
	sb.WriteString("\n")

	rule(&sb, "-")
	sb.WriteString("RECORDS\n")
	rule(&sb, "-")
	fmt.Fprintf(&sb, "  Queued:   %d\n", stats.RecordsQueued())
	if w.verbose {
		fmt.Fprintf(&sb, "    titles:   %d\n", stats.TitlesQueued)
		fmt.Fprintf(&sb, "    messages: %d\n", stats.MessagesQueued)
		fmt.Fprintf(&sb, "  Filtered: %d\n", stats.MessagesFiltered)
	}
	fmt.Fprintf(&sb, "  Written:  %d\n", stats.RecordsWritten)
	fmt.Fprintf(&sb, "  Dropped:  %d\n", stats.RecordsDropped)
	sb.WriteString("\n")

	if hint := resumeHint(stats); hint != "" {
		fmt.Fprintf(&sb, "Resume with: %s\n\n", hint)
	}
	rule(&sb, "=")

	return io.WriteString(w.output, sb.String())
}

// WriteHistory renders runs as an aligned table.
func (w *SimpleWriter) WriteHistory(runs []model.Run) (int, error) {
	if len(runs) == 0 {
		return io.WriteString(w.output, "No runs recorded.\n")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-5s  %-23s  %-11s  %-9s  %7s  %8s  %s\n",
		"ID", "STARTED", "STATUS", "REACHED", "TOPICS", "WRITTEN", "DURATION")
	for _, run := range runs {
		stats := run.Stats
		fmt.Fprintf(&sb, "%-5d  %-23s  %-11s  %-9s  %7d  %8d  %s\n",
			run.ID,
			formatTime(stats.StartedAt),
			status(&stats),
			position(stats.LastBoard, stats.LastTopic),
			stats.TopicsProcessed,
			stats.RecordsWritten,
			formatDuration(stats.Duration()),
		)
	}
	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, ch string) {
	sb.WriteString(strings.Repeat(ch, ruleWidth))
	sb.WriteString("\n")
}
