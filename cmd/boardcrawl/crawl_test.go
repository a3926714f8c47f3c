package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/boardcrawl/internal/config"
	"github.com/nao1215/boardcrawl/internal/database"
	"github.com/nao1215/boardcrawl/internal/fetch"
	"github.com/nao1215/boardcrawl/internal/model"
	"github.com/nao1215/boardcrawl/internal/writer"
)

const forumIndex = `<html><body><div id="bodyarea">
<div class="tborder"><table>
<tr><td></td><td><b><a href="/index.php?board=1.0">Alpha</a></b></td></tr>
<tr><td></td><td><b><a href="/index.php?board=2.0">Beta</a></b></td></tr>
</table></div>
<div class="tborder"><table><tr><td>Forum Stats</td></tr></table></div>
</div></body></html>`

func boardPage(topics ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div class="tborder"><table class="bordercolor"><tr><td>Subject</td></tr>`)
	for _, topic := range topics {
		id, title, _ := strings.Cut(topic, ":")
		fmt.Fprintf(&sb, `<tr><td></td><td></td><td><a href="/index.php?topic=%s.0">%s</a></td></tr>`, id, title)
	}
	sb.WriteString(`</table></div></body></html>`)
	return sb.String()
}

func topicPage(posts ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><form><table>`)
	for _, post := range posts {
		fmt.Fprintf(&sb, `<tr class="post"><td class="windowbg"><table><tr><td>author</td><td><div class="post">%s</div></td></tr></table></td></tr>`, post)
	}
	sb.WriteString(`</table></form></body></html>`)
	return sb.String()
}

// newForum serves a two-board forum.
func newForum(t *testing.T) *httptest.Server {
	t.Helper()

	boards := map[string]string{
		"1.0": boardPage("10:Genesis block", "11:Halving"),
		"2.0": boardPage("20:Mining rigs"),
	}
	topics := map[string]string{
		"10.0": topicPage("Hello world", "1234567890"),
		"11.0": topicPage("Block reward\n\n\n\nhalves"),
		"20.0": topicPage("ASICs"),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var body string
		switch {
		case q.Get("board") != "":
			body = boards[q.Get("board")]
		case q.Get("topic") != "":
			body = topics[q.Get("topic")]
		default:
			body = forumIndex
		}
		if body == "" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, rootURL string) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.RootURL = rootURL
	cfg.OutputDir = t.TempDir()
	cfg.DBDir = t.TempDir()
	cfg.MinRetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 2 * time.Millisecond
	cfg.MaxRetries = 3
	cfg.Timeout = 5 * time.Second
	cfg.ReportFormat = config.ReportJSON
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestRunCrawl(t *testing.T) {
	t.Parallel()

	t.Run("crawls every board", func(t *testing.T) {
		t.Parallel()

		srv := newForum(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.MetricsAddr = "127.0.0.1:0"

		var out bytes.Buffer
		if err := runCrawl(context.Background(), cfg, discardLogger(), &out); err != nil {
			t.Fatalf("runCrawl() failed: %v", err)
		}

		messages := readFile(t, writer.Destination(cfg.OutputDir, model.KindMessages, "Alpha"))
		if messages != "Hello world\n\nBlock reward\nhalves\n\n" {
			t.Errorf("unexpected Alpha messages %q", messages)
		}
		titles := readFile(t, writer.Destination(cfg.OutputDir, model.KindTopics, "Alpha"))
		if titles != "Genesis block\n\nHalving\n\n" {
			t.Errorf("unexpected Alpha topics %q", titles)
		}
		if got := readFile(t, writer.Destination(cfg.OutputDir, model.KindMessages, "Beta")); got != "ASICs\n\n" {
			t.Errorf("unexpected Beta messages %q", got)
		}

		var summary map[string]any
		if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON summary: %v\n%s", err, out.String())
		}
		if summary["status"] != "Complete" {
			t.Errorf("status = %v", summary["status"])
		}
		if summary["records_written"] != float64(6) {
			t.Errorf("records_written = %v", summary["records_written"])
		}
		if summary["messages_filtered"] != float64(1) {
			t.Errorf("messages_filtered = %v", summary["messages_filtered"])
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		runs, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || !runs[0].Stats.Completed() || runs[0].Stats.RecordsWritten != 6 {
			t.Errorf("unexpected history %+v", runs)
		}
		if runs[0].Stats.StartedAt.IsZero() || runs[0].Stats.Duration() <= 0 {
			t.Error("expected timing to be recorded")
		}
	})

	t.Run("resumes at the given board and topic", func(t *testing.T) {
		t.Parallel()

		srv := newForum(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.BeginFromBoard = 1
		cfg.BeginFromTopic = 2
		cfg.SaveHistory = false
		cfg.ReportFormat = config.ReportNone

		var out bytes.Buffer
		if err := runCrawl(context.Background(), cfg, discardLogger(), &out); err != nil {
			t.Fatalf("runCrawl() failed: %v", err)
		}
		if out.Len() != 0 {
			t.Errorf("expected no summary, got %s", out.String())
		}

		titles := readFile(t, writer.Destination(cfg.OutputDir, model.KindTopics, "Alpha"))
		if titles != "Halving\n\n" {
			t.Errorf("unexpected Alpha topics %q", titles)
		}
		if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); !errors.Is(err, os.ErrNotExist) {
			t.Error("history should not be written with SaveHistory disabled")
		}
	})

	t.Run("stops when the index keeps failing", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		cfg := testConfig(t, srv.URL+"/")
		cfg.ReportFormat = config.ReportText

		var out bytes.Buffer
		err := runCrawl(context.Background(), cfg, discardLogger(), &out)
		if !errors.Is(err, fetch.ErrCircuitOpen) {
			t.Fatalf("expected ErrCircuitOpen, got %v", err)
		}
		if !strings.Contains(out.String(), "Status:    Failed") {
			t.Errorf("expected failed summary:\n%s", out.String())
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()
		last, err := db.LastRun(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if last == nil || last.Stats.Error == "" {
			t.Errorf("expected the failed run to be recorded, got %+v", last)
		}
	})

	t.Run("cancelled context marks the run interrupted", func(t *testing.T) {
		t.Parallel()

		srv := newForum(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.ReportFormat = config.ReportJSON

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		err := runCrawl(ctx, cfg, discardLogger(), &out)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}

		var summary map[string]any
		if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
			t.Fatalf("invalid JSON summary: %v", err)
		}
		if summary["interrupted"] != true {
			t.Errorf("interrupted = %v", summary["interrupted"])
		}
	})
}

func TestRunListing(t *testing.T) {
	t.Parallel()

	t.Run("boards", func(t *testing.T) {
		t.Parallel()

		srv := newForum(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.PrintBoards = true

		var out bytes.Buffer
		if err := runListing(context.Background(), cfg, discardLogger(), &out); err != nil {
			t.Fatalf("runListing() failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 boards, got:\n%s", out.String())
		}
		if !strings.HasPrefix(lines[1], "1 ") || !strings.Contains(lines[1], "Alpha") {
			t.Errorf("unexpected line %q", lines[1])
		}
		if !strings.Contains(lines[2], srv.URL+"/index.php?board=2.0") {
			t.Errorf("unexpected line %q", lines[2])
		}
	})

	t.Run("topics of the selected board", func(t *testing.T) {
		t.Parallel()

		srv := newForum(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.PrintTopics = true
		cfg.BeginFromBoard = 2

		var out bytes.Buffer
		if err := runListing(context.Background(), cfg, discardLogger(), &out); err != nil {
			t.Fatalf("runListing() failed: %v", err)
		}
		if !strings.Contains(out.String(), "# Beta (board 2, 1 topics)") || !strings.Contains(out.String(), "Mining rigs") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("board beyond the list", func(t *testing.T) {
		t.Parallel()

		srv := newForum(t)
		cfg := testConfig(t, srv.URL+"/")
		cfg.PrintTopics = true
		cfg.BeginFromBoard = 9

		if err := runListing(context.Background(), cfg, discardLogger(), io.Discard); err == nil {
			t.Error("expected error for missing board")
		}
	})
}
