package report

import (
	"io"
	"strconv"

	"github.com/nao1215/boardcrawl/internal/model"
	"github.com/nao1215/markdown"
)

// MarkdownWriter renders summaries as GitHub-flavored Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the summary of a single run.
func (w *MarkdownWriter) Write(stats *model.RunStats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Boardcrawl Run Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Forum", "`" + stats.RootURL + "`"},
			{"Started", formatTime(stats.StartedAt)},
			{"Duration", formatDuration(stats.Duration())},
			{"Status", statusText(stats)},
		},
	})
	md.PlainText("")

	md.H2("Progress")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Started at board/topic", position(stats.BeginFromBoard, stats.BeginFromTopic)},
			{"Reached board/topic", position(stats.LastBoard, stats.LastTopic)},
			{"Boards processed", strconv.Itoa(stats.BoardsProcessed) + " of " + strconv.Itoa(stats.BoardsTotal)},
			{"Topics processed", strconv.Itoa(stats.TopicsProcessed)},
			{"Topics skipped", strconv.Itoa(stats.TopicsSkipped)},
			{"Pages fetched", strconv.Itoa(stats.PagesFetched)},
			{"Unreadable pages", strconv.Itoa(stats.PagesFailed)},
		},
	})
	md.PlainText("")

	md.H2("Records")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Stream", "Count"},
		Rows: [][]string{
			{"Titles queued", strconv.Itoa(stats.TitlesQueued)},
			{"Messages queued", strconv.Itoa(stats.MessagesQueued)},
			{"Messages filtered", strconv.Itoa(stats.MessagesFiltered)},
			{"Written", strconv.Itoa(stats.RecordsWritten)},
			{"Dropped", strconv.Itoa(stats.RecordsDropped)},
		},
	})
	md.PlainText("")

	w.writeAlert(md, stats)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats *model.RunStats) {
	resume := ""
	if hint := resumeHint(stats); hint != "" {
		resume = " Resume with `" + hint + "`."
	}
	switch {
	case stats.Interrupted:
		md.Warningf("The run was interrupted.%s", resume)
	case stats.Error != "":
		md.Cautionf("The run stopped early: %s.%s", stats.Error, resume)
	case stats.RecordsDropped > 0:
		md.Importantf("%d records could not be written.", stats.RecordsDropped)
	default:
		md.Tip("Every board was crawled.")
	}
	md.PlainText("")
}

// WriteHistory renders runs as a Markdown table.
func (w *MarkdownWriter) WriteHistory(runs []model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Boardcrawl Run History")
	md.PlainText("")

	if len(runs) == 0 {
		md.Note("No runs recorded.")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		stats := run.Stats
		rows = append(rows, []string{
			strconv.FormatInt(run.ID, 10),
			formatTime(stats.StartedAt),
			statusText(&stats),
			position(stats.LastBoard, stats.LastTopic),
			strconv.Itoa(stats.TopicsProcessed),
			strconv.Itoa(stats.RecordsWritten),
			formatDuration(stats.Duration()),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Status", "Reached", "Topics", "Written", "Duration"},
		Rows:   rows,
	})

	return len(md.String()), md.Build()
}

func statusText(stats *model.RunStats) string {
	switch {
	case stats.Interrupted:
		return "⚠️ Interrupted"
	case stats.Error != "":
		return "❌ Failed - " + stats.Error
	default:
		return "✅ Complete"
	}
}
