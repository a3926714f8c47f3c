package crawler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/boardcrawl/internal/fetch"
	"github.com/nao1215/boardcrawl/internal/model"
	"github.com/nao1215/boardcrawl/internal/pagination"
)

// Fetcher downloads and parses a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Parser extracts records from parsed pages.
type Parser interface {
	Boards(doc *goquery.Document) ([]model.Board, error)
	Topics(doc *goquery.Document) ([]model.Topic, error)
	Messages(doc *goquery.Document) ([]string, error)
	PageLinkCount(doc *goquery.Document) int
}

// Lister retrieves the board list and the topic list of a board.
type Lister struct {
	fetcher         Fetcher
	parser          Parser
	rootURL         string
	cursor          pagination.Cursor
	maxListingPages int
	logger          *slog.Logger
}

// NewLister creates a Lister for the forum at rootURL. boardPageSize is the
// number of topics per listing page; maxListingPages caps the listing pages
// read per board, 0 meaning all.
func NewLister(fetcher Fetcher, parser Parser, rootURL string, boardPageSize, maxListingPages int, logger *slog.Logger) *Lister {
	if logger == nil {
		logger = slog.Default()
	}
	if boardPageSize <= 0 {
		boardPageSize = pagination.BoardPageSize
	}
	return &Lister{
		fetcher:         fetcher,
		parser:          parser,
		rootURL:         rootURL,
		cursor:          pagination.NewCursor(boardPageSize),
		maxListingPages: maxListingPages,
		logger:          logger,
	}
}

// Boards returns the flattened board list of the forum index.
func (l *Lister) Boards(ctx context.Context) ([]model.Board, error) {
	page, err := l.fetcher.Fetch(ctx, l.rootURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board index: %w", err)
	}

	boards, err := l.parser.Boards(page.Doc)
	if err != nil {
		l.logger.Debug("board index extraction failed", "body", string(page.Raw))
		return nil, fmt.Errorf("failed to extract boards: %w", err)
	}
	return boards, nil
}

// Topics returns every topic of board, reading all of its listing pages in
// order.
func (l *Lister) Topics(ctx context.Context, board model.Board) ([]model.Topic, error) {
	first, err := l.fetcher.Fetch(ctx, board.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch topic listing of %q: %w", board.Name, err)
	}

	topics, err := l.extractTopics(first)
	if err != nil {
		return nil, err
	}

	total := pagination.TotalPages(l.parser.PageLinkCount(first.Doc))
	if l.maxListingPages > 0 && total > l.maxListingPages {
		l.logger.Debug("limiting listing pages", "board", board.Name, "pages", total, "limit", l.maxListingPages)
		total = l.maxListingPages
	}

	urls, err := l.cursor.Remaining(board.URL, total)
	if err != nil {
		return nil, fmt.Errorf("failed to build listing page URLs of %q: %w", board.Name, err)
	}

	for i, pageURL := range urls {
		l.logger.Debug("fetching listing page", "board", board.Name, "page", i+2, "total", total)

		page, err := l.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch listing page %d of %q: %w", i+2, board.Name, err)
		}
		more, err := l.extractTopics(page)
		if err != nil {
			return nil, err
		}
		topics = append(topics, more...)
	}

	return topics, nil
}

func (l *Lister) extractTopics(page *fetch.Page) ([]model.Topic, error) {
	topics, err := l.parser.Topics(page.Doc)
	if err != nil {
		l.logger.Debug("topic listing extraction failed", "url", page.URL, "body", string(page.Raw))
		return nil, fmt.Errorf("failed to extract topics from %s: %w", page.URL, err)
	}
	return topics, nil
}
