package forum

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/boardcrawl/internal/model"
)

// CSS selectors for the SMF layout.
const (
	boardGroupSelector   = "div#bodyarea>div.tborder>table"
	topicTableSelector   = "div.tborder>table.bordercolor"
	messageFormSelector  = "form>table"
	messageTableSelector = "tr[class] td.windowbg>table, tr[class] td.windowbg2>table"
	pageLinkSelector     = "td>a.navPages"
)

// Parser extracts records from forum pages.
type Parser struct{}

// NewParser returns a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// Boards returns the boards listed on the forum index in document order.
//
// A board whose row is followed by a "Child Boards" row is replaced by its
// children; boards without children are listed themselves. The last table of
// the index holds forum statistics and is skipped.
func (p *Parser) Boards(doc *goquery.Document) ([]model.Board, error) {
	groups := doc.Find(boardGroupSelector)
	if groups.Length() < 2 {
		return nil, fmt.Errorf("%w: board index has %d groups", ErrUnexpectedMarkup, groups.Length())
	}

	boards := make([]model.Board, 0)
	groups.Slice(0, groups.Length()-1).Each(func(_ int, group *goquery.Selection) {
		boards = append(boards, boardsFromGroup(doc, group)...)
	})

	if len(boards) == 0 {
		return nil, fmt.Errorf("%w: no boards on index", ErrUnexpectedMarkup)
	}
	return boards, nil
}

// boardsFromGroup flattens one category table.
func boardsFromGroup(doc *goquery.Document, group *goquery.Selection) []model.Board {
	boards := make([]model.Board, 0)
	var parent *model.Board

	group.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.ChildrenFiltered("td")

		if cells.Length() >= 2 {
			link := cells.Eq(1).Find("b>a").First()
			if link.Length() == 0 {
				return
			}
			if parent != nil {
				boards = append(boards, *parent)
			}
			b := newBoard(doc, link)
			parent = &b
			return
		}

		children := make([]model.Board, 0)
		cells.First().Find("a").Each(func(_ int, a *goquery.Selection) {
			if strings.TrimSpace(a.Text()) == "" {
				return
			}
			children = append(children, newBoard(doc, a))
		})
		if len(children) == 0 {
			return
		}

		// The parent is excluded once its children are known.
		parent = nil
		boards = append(boards, children...)
	})

	if parent != nil {
		boards = append(boards, *parent)
	}
	return boards
}

func newBoard(doc *goquery.Document, a *goquery.Selection) model.Board {
	href, _ := a.Attr("href")
	return model.Board{
		Name: strings.TrimSpace(a.Text()),
		URL:  resolve(doc, href),
	}
}

// Topics returns the topics listed on one page of a board.
func (p *Parser) Topics(doc *goquery.Document) ([]model.Topic, error) {
	table := doc.Find(topicTableSelector).Last()
	if table.Length() == 0 {
		return nil, fmt.Errorf("%w: no topic table", ErrUnexpectedMarkup)
	}

	topics := make([]model.Topic, 0)
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			return
		}
		a := tr.Find("td").Eq(2).Find("a").First()
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		topics = append(topics, model.Topic{
			Title:   strings.TrimSpace(a.Text()),
			RootURL: resolve(doc, href),
		})
	})

	return topics, nil
}

// Messages returns the text of every post on a topic page. Quotes,
// signatures and links nested inside a post are removed.
func (p *Parser) Messages(doc *goquery.Document) ([]string, error) {
	form := doc.Find(messageFormSelector).First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("%w: no message form", ErrUnexpectedMarkup)
	}

	tables := form.Find(messageTableSelector)
	if tables.Length() == 0 {
		return nil, fmt.Errorf("%w: no posts on topic page", ErrUnexpectedMarkup)
	}

	messages := make([]string, 0, tables.Length())
	tables.Each(func(_ int, table *goquery.Selection) {
		post := table.Find("tr").First().Find("td").Eq(1).Find("div.post").First()
		if post.Length() == 0 {
			return
		}
		post = post.Clone()
		post.Find("div,a").Remove()
		messages = append(messages, post.Text())
	})

	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: posts without bodies", ErrUnexpectedMarkup)
	}
	return messages, nil
}

// PageLinkCount returns the highest page number among the navigation links of
// a listing, or 0 when the listing has no navigation links.
func (p *Parser) PageLinkCount(doc *goquery.Document) int {
	highest := 0
	doc.Find(pageLinkSelector).Each(func(_ int, a *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(a.Text()))
		if err == nil && n > highest {
			highest = n
		}
	})
	return highest
}

// resolve makes href absolute against the document URL when it is known.
func resolve(doc *goquery.Document, href string) string {
	href = strings.TrimSpace(href)
	if doc.Url == nil || href == "" {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return doc.Url.ResolveReference(u).String()
}
