package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/nao1215/boardcrawl/internal/config"
	"github.com/nao1215/boardcrawl/internal/crawler"
	"github.com/nao1215/boardcrawl/internal/forum"
)

// runListing prints the board list, or the topics of the --beginFromBoard
// board, with the 1-based positions the resume flags take.
func runListing(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	client, cleanup, err := newHTTPClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	fetcher, err := newFetcher(client, cfg, logger, nil)
	if err != nil {
		return err
	}
	lister := crawler.NewLister(fetcher, forum.NewParser(), cfg.RootURL,
		cfg.BoardPageSize, cfg.MaxListingPages, logger)

	boards, err := lister.Boards(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if cfg.PrintBoards {
		fmt.Fprintln(tw, "BOARD\tNAME\tURL")
		for i, b := range boards {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, b.Name, b.URL)
		}
		return tw.Flush()
	}

	if cfg.StartBoard() >= len(boards) {
		return fmt.Errorf("board %d does not exist (the forum has %d boards)", cfg.BeginFromBoard, len(boards))
	}
	board := boards[cfg.StartBoard()]

	topics, err := lister.Topics(ctx, board)
	if err != nil {
		return err
	}

	fmt.Fprintf(tw, "# %s (board %d, %d topics)\n", board.Name, cfg.BeginFromBoard, len(topics))
	fmt.Fprintln(tw, "TOPIC\tTITLE\tURL")
	for i, t := range topics {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, t.Title, t.RootURL)
	}
	return tw.Flush()
}
