package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/boardcrawl/internal/model"
)

// Writer renders run summaries.
type Writer interface {
	// Write renders the summary of a single run.
	Write(stats *model.RunStats) (int, error)

	// WriteHistory renders a list of stored runs, newest first.
	WriteHistory(runs []model.Run) (int, error)
}

// MultiWriter writes to multiple Writers, stopping at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write renders stats with every writer.
func (m *MultiWriter) Write(stats *model.RunStats) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(stats)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory renders runs with every writer.
func (m *MultiWriter) WriteHistory(runs []model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

const timeLayout = "2006-01-02 15:04:05 MST"

// status is the one-word outcome of a run.
func status(stats *model.RunStats) string {
	switch {
	case stats.Interrupted:
		return "Interrupted"
	case stats.Error != "":
		return "Failed"
	default:
		return "Complete"
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// position renders a 1-based board/topic pair.
func position(board, topic int) string {
	return strconv.Itoa(board) + "/" + strconv.Itoa(topic)
}

// resumeHint returns the flags that continue an unfinished run, or "" for a
// completed one.
func resumeHint(stats *model.RunStats) string {
	if stats.Completed() || stats.LastBoard == 0 {
		return ""
	}
	return "--beginFromBoard " + strconv.Itoa(stats.LastBoard) +
		" --beginFromTopic " + strconv.Itoa(max(stats.LastTopic, 1))
}
