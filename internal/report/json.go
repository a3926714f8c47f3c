package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/boardcrawl/internal/model"
)

// JSONWriter renders summaries as JSON.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint is WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
// Output is compact unless an indent option is given.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// runJSON adds the derived fields to a run summary.
type runJSON struct {
	*model.RunStats

	Status         string `json:"status"`
	DurationMillis int64  `json:"duration_ms"`
	RecordsQueued  int    `json:"records_queued"`
	Resume         string `json:"resume,omitempty"`
}

func newRunJSON(stats *model.RunStats) runJSON {
	return runJSON{
		RunStats:       stats,
		Status:         status(stats),
		DurationMillis: stats.Duration().Milliseconds(),
		RecordsQueued:  stats.RecordsQueued(),
		Resume:         resumeHint(stats),
	}
}

// Write renders the summary of a single run.
func (w *JSONWriter) Write(stats *model.RunStats) (int, error) {
	return w.encode(newRunJSON(stats))
}

// WriteHistory renders runs as a JSON array.
func (w *JSONWriter) WriteHistory(runs []model.Run) (int, error) {
	type historyEntry struct {
		ID int64 `json:"id"`
		runJSON
	}
	entries := make([]historyEntry, 0, len(runs))
	for i := range runs {
		entries = append(entries, historyEntry{ID: runs[i].ID, runJSON: newRunJSON(&runs[i].Stats)})
	}
	return w.encode(entries)
}

func (w *JSONWriter) encode(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}
