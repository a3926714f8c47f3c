package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/boardcrawl/internal/model"
)

func completedStats() *model.RunStats {
	started := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	return &model.RunStats{
		RootURL:          "https://bitcointalk.org/",
		StartedAt:        started,
		FinishedAt:       started.Add(90 * time.Second),
		BeginFromBoard:   1,
		BeginFromTopic:   1,
		LastBoard:        3,
		LastTopic:        12,
		BoardsTotal:      3,
		BoardsProcessed:  3,
		TopicsProcessed:  30,
		TopicsSkipped:    1,
		PagesFetched:     80,
		PagesFailed:      2,
		MessagesQueued:   400,
		MessagesFiltered: 5,
		TitlesQueued:     30,
		RecordsWritten:   430,
	}
}

func failedStats() *model.RunStats {
	stats := completedStats()
	stats.BoardsProcessed = 1
	stats.LastBoard = 2
	stats.LastTopic = 5
	stats.Error = "circuit open"
	return stats
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes completed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(completedStats()); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}

		out := buf.String()
		for _, want := range []string{
			"BOARDCRAWL RUN SUMMARY",
			"Forum:     https://bitcointalk.org/",
			"Duration:  1m30s",
			"Status:    Complete",
			"Reached board/topic:    3/12",
			"Topics:                 30 (1 skipped)",
			"Queued:   430",
			"Written:  430",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Resume with") {
			t.Error("completed run should not print a resume hint")
		}
		if strings.Contains(out, "titles:") {
			t.Error("per-stream counters should need verbose")
		}
	})

	t.Run("failed run shows error and resume flags", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(failedStats()); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		if !strings.Contains(out, "Status:    Failed - circuit open") {
			t.Errorf("missing error status:\n%s", out)
		}
		if !strings.Contains(out, "Resume with: --beginFromBoard 2 --beginFromTopic 5") {
			t.Errorf("missing resume hint:\n%s", out)
		}
	})

	t.Run("verbose adds stream counters", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(completedStats()); err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"titles:   30", "messages: 400", "Filtered: 5"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []model.Run{{ID: 2, Stats: *failedStats()}, {ID: 1, Stats: *completedStats()}}
		if _, err := NewSimpleWriter(&buf).WriteHistory(runs); err != nil {
			t.Fatal(err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
		}
		if !strings.HasPrefix(lines[1], "2 ") || !strings.Contains(lines[1], "Failed") {
			t.Errorf("unexpected first row %q", lines[1])
		}
		if !strings.Contains(lines[2], "Complete") {
			t.Errorf("unexpected second row %q", lines[2])
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "No runs recorded.\n" {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("completed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(completedStats()); err != nil {
			t.Fatalf("Write() failed: %v", err)
		}

		out := buf.String()
		for _, want := range []string{"# Boardcrawl Run Summary", "## Progress", "## Records", "✅ Complete", "[!TIP]"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("failed run", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(failedStats()); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		if !strings.Contains(out, "[!CAUTION]") {
			t.Errorf("expected caution alert:\n%s", out)
		}
		if !strings.Contains(out, "--beginFromBoard 2 --beginFromTopic 5") {
			t.Errorf("expected resume flags:\n%s", out)
		}
	})

	t.Run("interrupted run", func(t *testing.T) {
		t.Parallel()

		stats := completedStats()
		stats.Interrupted = true

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(stats); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "[!WARNING]") {
			t.Errorf("expected warning alert:\n%s", buf.String())
		}
	})

	t.Run("history table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []model.Run{{ID: 7, Stats: *completedStats()}}
		if _, err := NewMarkdownWriter(&buf).WriteHistory(runs); err != nil {
			t.Fatal(err)
		}

		out := buf.String()
		if !strings.Contains(out, "# Boardcrawl Run History") || !strings.Contains(out, "3/12") {
			t.Errorf("unexpected history:\n%s", out)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "No runs recorded.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("compact by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(failedStats()); err != nil {
			t.Fatal(err)
		}

		out := strings.TrimSpace(buf.String())
		if strings.Contains(out, "\n") {
			t.Error("expected single-line JSON")
		}

		var got map[string]any
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if got["status"] != "Failed" {
			t.Errorf("status = %v", got["status"])
		}
		if got["last_board"] != float64(2) {
			t.Errorf("last_board = %v", got["last_board"])
		}
		if got["duration_ms"] != float64(90000) {
			t.Errorf("duration_ms = %v", got["duration_ms"])
		}
		if got["resume"] != "--beginFromBoard 2 --beginFromTopic 5" {
			t.Errorf("resume = %v", got["resume"])
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(completedStats()); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "\n  \"root_url\"") {
			t.Errorf("expected indented output:\n%s", buf.String())
		}
	})

	t.Run("history array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		runs := []model.Run{{ID: 3, Stats: *completedStats()}, {ID: 2, Stats: *failedStats()}}
		if _, err := NewJSONWriter(&buf).WriteHistory(runs); err != nil {
			t.Fatal(err)
		}

		var got []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(got) != 2 || got[0]["id"] != float64(3) || got[1]["status"] != "Failed" {
			t.Errorf("unexpected history %v", got)
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*model.RunStats) (int, error) { return 0, errors.New("boom") }
func (failingWriter) WriteHistory([]model.Run) (int, error) { return 0, errors.New("boom") }

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var text, js bytes.Buffer
		mw := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))
		n, err := mw.Write(completedStats())
		if err != nil {
			t.Fatal(err)
		}
		if n != text.Len()+js.Len() {
			t.Errorf("n = %d, want %d", n, text.Len()+js.Len())
		}
		if text.Len() == 0 || js.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var text bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewSimpleWriter(&text))
		if _, err := mw.WriteHistory(nil); err == nil {
			t.Error("expected error")
		}
		if text.Len() != 0 {
			t.Error("writer after the failing one should not run")
		}
	})
}
