package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/boardcrawl/internal/config"
	"github.com/nao1215/boardcrawl/internal/crawler"
	"github.com/nao1215/boardcrawl/internal/database"
	"github.com/nao1215/boardcrawl/internal/fetch"
	"github.com/nao1215/boardcrawl/internal/forum"
	"github.com/nao1215/boardcrawl/internal/metrics"
	"github.com/nao1215/boardcrawl/internal/model"
	"github.com/nao1215/boardcrawl/internal/report"
	"github.com/nao1215/boardcrawl/internal/transport"
	"github.com/nao1215/boardcrawl/internal/writer"
)

// runCrawl crawls the forum and prints the run summary to out.
//
// The crawl and the write queue run in one errgroup. The queue ignores
// cancellation so that, whatever ends the crawl, it is stopped only after the
// crawl has returned and its final drain completes before runCrawl does.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	set, err := cfg.HeuristicSet()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
	}

	client, cleanup, err := newHTTPClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fetcher, err := newFetcher(client, cfg, logger, m)
	if err != nil {
		return err
	}

	queue := writer.NewQueue(
		writer.WithDrainInterval(cfg.DrainInterval),
		writer.WithWriteRetries(cfg.WriteRetries),
		writer.WithWriteRetryDelay(cfg.WriteRetryDelay),
		writer.WithLogger(logger),
		writer.WithMetrics(m),
	)

	c := crawler.New(fetcher, forum.NewParser(), queue, cfg.RootURL, crawler.Options{
		StartBoard:      cfg.StartBoard(),
		StartTopic:      cfg.StartTopic(),
		OutputDir:       cfg.OutputDir,
		BoardPageSize:   cfg.BoardPageSize,
		TopicPageSize:   cfg.TopicPageSize,
		MaxListingPages: cfg.MaxListingPages,
		Heuristics:      set,
		Logger:          logger,
		Metrics:         m,
	})

	logger.Info("starting crawl",
		"root", cfg.RootURL,
		"output", cfg.OutputDir,
		"beginFromBoard", cfg.BeginFromBoard,
		"beginFromTopic", cfg.BeginFromTopic,
		"heuristics", set.String())

	startedAt := time.Now()
	var (
		stats    *model.RunStats
		crawlErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	serverCtx, stopServer := context.WithCancel(gctx)

	g.Go(func() error {
		return queue.Run(context.WithoutCancel(gctx))
	})
	g.Go(func() error {
		defer stopServer()
		defer queue.Stop()
		stats, crawlErr = c.Run(gctx)
		return nil
	})
	if m != nil {
		g.Go(func() error {
			if err := m.Serve(serverCtx, cfg.MetricsAddr); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	groupErr := g.Wait()
	stopServer()

	stats.StartedAt = startedAt
	stats.FinishedAt = time.Now()
	qs := queue.Stats()
	stats.RecordsWritten = int(qs.Written)
	stats.RecordsDropped = int(qs.Dropped)

	if groupErr != nil && crawlErr == nil {
		crawlErr = groupErr
		stats.Error = groupErr.Error()
	}

	if cfg.SaveHistory {
		saveHistory(cfg.DBDir, stats, logger)
	}

	if err := writeReport(out, cfg.ReportFormat, cfg.Verbose, stats); err != nil {
		logger.Warn("failed to print run summary", "error", err)
	}

	if crawlErr != nil {
		logResumeHint(logger, stats, crawlErr)
		return crawlErr
	}
	return nil
}

// newHTTPClient returns the client selected by cfg and a cleanup function
// that releases the embedded Tor daemon, if one was started.
func newHTTPClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*http.Client, func(), error) {
	opts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithCookie(cfg.Cookie),
		transport.WithHeaders(cfg.Headers),
	}

	switch {
	case cfg.UseTor:
		logger.Info("starting embedded Tor daemon", "timeout", cfg.TorStartupTimeout)
		tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := tor.Start(ctx); err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			logger.Info("stopping embedded Tor daemon")
			if err := tor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}
		client, err := tor.NewHTTPClient(opts...)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Info("embedded Tor is ready", "socks", tor.SocksAddr())
		return client, cleanup, nil

	case cfg.ProxyAddress != "":
		if err := transport.CheckProxy(ctx, cfg.ProxyAddress); err != nil {
			return nil, nil, fmt.Errorf("proxy check failed for %s: %w", cfg.ProxyAddress, err)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
		opts = append(opts, transport.WithProxy(cfg.ProxyAddress))
	}

	client, err := transport.NewHTTPClient(opts...)
	if err != nil {
		return nil, nil, err
	}
	return client, func() {}, nil
}

func newFetcher(client *http.Client, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*fetch.Fetcher, error) {
	fetcher, err := fetch.New(client,
		fetch.WithRetryWindow(cfg.MinRetryDelay, cfg.MaxRetryDelay),
		fetch.WithMaxRetries(cfg.MaxRetries),
		fetch.WithRequestInterval(cfg.RequestInterval),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
		fetch.WithLogger(logger),
		fetch.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	return fetcher, nil
}

// saveHistory records stats. Failures are logged; they never fail the run.
func saveHistory(dbDir string, stats *model.RunStats, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open run history", "dir", dbDir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(context.Background(), stats)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Debug("run recorded", "id", id, "db", db.Path())
}

// newReportWriter returns the writer for format, or nil for "none".
func newReportWriter(out io.Writer, format string, verbose bool) report.Writer {
	switch format {
	case config.ReportMarkdown:
		return report.NewMarkdownWriter(out)
	case config.ReportJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint())
	case config.ReportNone:
		return nil
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(verbose))
	}
}

func writeReport(out io.Writer, format string, verbose bool, stats *model.RunStats) error {
	w := newReportWriter(out, format, verbose)
	if w == nil {
		return nil
	}
	_, err := w.Write(stats)
	return err
}

// logResumeHint logs why the run stopped and the flags that continue it.
func logResumeHint(logger *slog.Logger, stats *model.RunStats, err error) {
	attrs := []any{
		"error", err,
		"board", stats.LastBoard,
		"topic", stats.LastTopic,
	}
	if stats.LastBoard > 0 {
		attrs = append(attrs, "resume", fmt.Sprintf("--beginFromBoard %d --beginFromTopic %d",
			stats.LastBoard, max(stats.LastTopic, 1)))
	}

	switch {
	case stats.Interrupted:
		logger.Warn("crawl interrupted", attrs...)
	case errors.Is(err, fetch.ErrCircuitOpen):
		logger.Error("crawl stopped after too many consecutive failures", attrs...)
	default:
		logger.Error("crawl stopped", attrs...)
	}
}
