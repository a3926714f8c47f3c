package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/boardcrawl/internal/fetch"
	"github.com/nao1215/boardcrawl/internal/heuristics"
	"github.com/nao1215/boardcrawl/internal/metrics"
	"github.com/nao1215/boardcrawl/internal/model"
	"github.com/nao1215/boardcrawl/internal/pagination"
	"github.com/nao1215/boardcrawl/internal/writer"
)

// Sink accepts write tasks without waiting for them to be persisted.
type Sink interface {
	Enqueue(task model.WriteTask) error
}

// Options controls a crawl run.
type Options struct {
	// StartBoard is the 0-based index of the first board to crawl.
	StartBoard int

	// StartTopic is the 0-based index of the first topic to crawl on the
	// start board. Later boards always start from their first topic.
	StartTopic int

	// OutputDir is the base directory of the messages/ and topics/ files.
	OutputDir string

	// BoardPageSize and TopicPageSize are the number of items per listing
	// page and per topic page. Zero selects the forum defaults.
	BoardPageSize int
	TopicPageSize int

	// MaxListingPages caps the listing pages read per board. Zero reads all.
	MaxListingPages int

	// Heuristics selects the filter and transform pipelines per record
	// stream. Nil selects heuristics.DefaultSet().
	Heuristics *heuristics.Set

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Crawler walks boards, topics and message pages sequentially.
type Crawler struct {
	*Lister

	sink        Sink
	opts        Options
	topicCursor pagination.Cursor
	heuristics  *heuristics.Set
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates a Crawler for the forum at rootURL.
func New(fetcher Fetcher, parser Parser, sink Sink, rootURL string, opts Options) *Crawler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TopicPageSize <= 0 {
		opts.TopicPageSize = pagination.TopicPageSize
	}
	if opts.Heuristics == nil {
		opts.Heuristics = heuristics.DefaultSet()
	}
	if opts.StartBoard < 0 {
		opts.StartBoard = 0
	}
	if opts.StartTopic < 0 {
		opts.StartTopic = 0
	}

	return &Crawler{
		Lister:      NewLister(fetcher, parser, rootURL, opts.BoardPageSize, opts.MaxListingPages, opts.Logger),
		sink:        sink,
		opts:        opts,
		topicCursor: pagination.NewCursor(opts.TopicPageSize),
		heuristics:  opts.Heuristics,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// Run crawls from the configured start position to the end of the board
// list. The returned stats are always non-nil and describe how far the run got,
// even when an error is returned.
func (c *Crawler) Run(ctx context.Context) (*model.RunStats, error) {
	stats := &model.RunStats{
		RootURL:        c.rootURL,
		BeginFromBoard: c.opts.StartBoard + 1,
		BeginFromTopic: c.opts.StartTopic + 1,
		LastBoard:      c.opts.StartBoard + 1,
		LastTopic:      c.opts.StartTopic + 1,
	}

	boards, err := c.Boards(ctx)
	if err != nil {
		return c.fail(stats, err)
	}
	stats.BoardsTotal = len(boards)

	if c.opts.StartBoard >= len(boards) {
		c.logger.Warn("start board is beyond the board list",
			"start_board", c.opts.StartBoard+1,
			"boards", len(boards))
		return stats, nil
	}

	var trip isolatedTrip
	for bi := c.opts.StartBoard; bi < len(boards); bi++ {
		if err := ctx.Err(); err != nil {
			return c.fail(stats, err)
		}

		board := boards[bi]
		startTopic := 0
		if bi == c.opts.StartBoard {
			startTopic = c.opts.StartTopic
		}
		stats.LastBoard = bi + 1
		stats.LastTopic = startTopic + 1

		c.logger.Info("processing board",
			"board", board.Name,
			"index", bi+1,
			"total", len(boards))

		if err := c.crawlBoard(ctx, bi, board, startTopic, &trip, stats); err != nil {
			trip.rewind(stats, err)
			return c.fail(stats, fmt.Errorf("board %d/%d %q: %w", bi+1, len(boards), board.Name, err))
		}
		stats.BoardsProcessed++
	}

	c.logger.Info("crawl finished",
		"boards", stats.BoardsProcessed,
		"topics", stats.TopicsProcessed,
		"skipped", stats.TopicsSkipped)

	return stats, nil
}

func (c *Crawler) fail(stats *model.RunStats, err error) (*model.RunStats, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		stats.Interrupted = true
	}
	stats.Error = err.Error()
	return stats, err
}

// isolatedTrip remembers the topic whose breaker trip was skipped. It is
// cleared once a fetch succeeds again.
type isolatedTrip struct {
	pending bool
	board   int
	topic   int
}

func (t *isolatedTrip) set(board, topic int) {
	t.pending = true
	t.board = board
	t.topic = topic
}

func (t *isolatedTrip) clear() {
	t.pending = false
}

// rewind moves the resume position back to the skipped topic when err is a
// second trip of a breaker that never closed.
func (t *isolatedTrip) rewind(stats *model.RunStats, err error) {
	if !t.pending || !fetch.IsCircuitOpen(err) {
		return
	}
	stats.LastBoard = t.board + 1
	stats.LastTopic = t.topic + 1
}

// crawlBoard processes the topics of one board. Listing failures, sink
// failures and a breaker that trips again after an isolated trip are
// returned; other topic failures are isolated.
func (c *Crawler) crawlBoard(ctx context.Context, bi int, board model.Board, startTopic int, trip *isolatedTrip, stats *model.RunStats) error {
	topics, err := c.Topics(ctx, board)
	if err != nil {
		return err
	}
	trip.clear()

	if startTopic > 0 && startTopic >= len(topics) {
		c.logger.Warn("start topic is beyond the topic list",
			"board", board.Name,
			"start_topic", startTopic+1,
			"topics", len(topics))
	}

	for ti := startTopic; ti < len(topics); ti++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		topic := topics[ti]
		stats.LastTopic = ti + 1

		c.logger.Info("processing topic",
			"board", board.Name,
			"topic", topic.Title,
			"index", ti+1,
			"total", len(topics))

		fetched := stats.PagesFetched
		err := c.crawlTopic(ctx, board, topic, stats)
		if stats.PagesFetched > fetched {
			trip.clear()
		}

		switch {
		case err == nil:
			stats.TopicsProcessed++
		case errors.Is(err, ErrSinkRejected), ctx.Err() != nil:
			return err
		case fetch.IsCircuitOpen(err) && trip.pending:
			c.logger.Error("circuit still open after skipping a topic, stopping",
				"board", board.Name,
				"topic", topic.Title,
				"resume_board", trip.board+1,
				"resume_topic", trip.topic+1,
				"error", err)
			return err
		default:
			if fetch.IsCircuitOpen(err) {
				trip.set(bi, ti)
			}
			stats.TopicsSkipped++
			c.metrics.IncTopicsSkipped()
			c.logger.Warn("skipping topic",
				"board", board.Name,
				"topic", topic.Title,
				"index", ti+1,
				"circuit_open", fetch.IsCircuitOpen(err),
				"error", err)
		}
	}

	return nil
}

// crawlTopic queues the title and the messages of every page of topic.
func (c *Crawler) crawlTopic(ctx context.Context, board model.Board, topic model.Topic, stats *model.RunStats) error {
	first, err := c.fetcher.Fetch(ctx, topic.RootURL)
	if err != nil {
		return err
	}
	stats.PagesFetched++

	total := pagination.TotalPages(c.parser.PageLinkCount(first.Doc))
	c.logger.Debug("processing page", "topic", topic.Title, "page", 1, "total", total)

	queued, err := c.queueTitle(board, topic)
	if err != nil {
		return err
	}
	if queued {
		stats.TitlesQueued++
	}

	if err := c.queueMessages(board, first, stats); err != nil {
		return err
	}

	for i := 1; i < total; i++ {
		pageURL, err := c.topicCursor.PageURL(topic.RootURL, i)
		if err != nil {
			return err
		}

		c.logger.Debug("processing page", "topic", topic.Title, "page", i+1, "total", total)

		page, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("page %d/%d: %w", i+1, total, err)
		}
		stats.PagesFetched++

		if err := c.queueMessages(board, page, stats); err != nil {
			return err
		}
	}

	return nil
}

// queueTitle reports whether the title passed the topic filters.
func (c *Crawler) queueTitle(board model.Board, topic model.Topic) (bool, error) {
	title, ok := c.heuristics.Process(heuristics.StreamTopics, topic.Title)
	if !ok {
		return false, nil
	}
	if err := c.enqueue(model.KindTopics, board, title); err != nil {
		return false, err
	}
	c.metrics.AddRecordsQueued(model.KindTopics.String(), 1)
	return true, nil
}

// queueMessages extracts the posts of page. An extraction failure is logged
// with the page body, in full at Debug level, and counts as a page without
// records.
func (c *Crawler) queueMessages(board model.Board, page *fetch.Page, stats *model.RunStats) error {
	messages, err := c.parser.Messages(page.Doc)
	if err != nil {
		stats.PagesFailed++
		c.logger.Warn("failed to extract messages, page skipped",
			"url", page.URL,
			"error", err,
			"body", string(page.Raw))
		c.logger.Debug("unparsed page body", "url", page.URL, "body", string(page.Raw))
		return nil
	}

	queued, filtered := 0, 0
	for _, m := range messages {
		text, ok := c.heuristics.Process(heuristics.StreamMessages, m)
		if !ok {
			filtered++
			continue
		}
		if err := c.enqueue(model.KindMessages, board, text); err != nil {
			return err
		}
		queued++
	}

	stats.MessagesQueued += queued
	stats.MessagesFiltered += filtered
	c.metrics.AddRecordsQueued(model.KindMessages.String(), queued)
	c.metrics.AddRecordsFiltered(filtered)
	return nil
}

func (c *Crawler) enqueue(kind model.Kind, board model.Board, content string) error {
	task := model.WriteTask{
		Filename: writer.Destination(c.opts.OutputDir, kind, board.Name),
		Content:  content,
	}
	if err := c.sink.Enqueue(task); err != nil {
		return fmt.Errorf("%w: %w", ErrSinkRejected, err)
	}
	return nil
}
