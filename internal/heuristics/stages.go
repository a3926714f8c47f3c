package heuristics

import (
	"fmt"
	"regexp"
	"strings"
)

// RecordSeparator terminates every record in a destination file.
const RecordSeparator = "\n\n"

type transformFunc struct {
	name string
	fn   func(string) string
}

func (t transformFunc) Apply(text string) string { return t.fn(text) }
func (t transformFunc) Name() string             { return t.name }

// Trim removes leading and trailing whitespace.
func Trim() Transform {
	return transformFunc{name: "trim", fn: strings.TrimSpace}
}

// blankLines matches a line break followed by one or more whitespace-only lines.
var blankLines = regexp.MustCompile(`\r?\n(?:[ \t]*\r?\n)+`)

// CollapseBlankLines replaces every run of blank lines with a single line break,
// so a record never contains the blank line used as record separator.
func CollapseBlankLines() Transform {
	return transformFunc{name: "collapse-blank-lines", fn: func(s string) string {
		return blankLines.ReplaceAllString(s, "\n")
	}}
}

// AppendSeparator terminates the record with RecordSeparator.
func AppendSeparator() Transform {
	return transformFunc{name: "append-separator", fn: func(s string) string {
		return s + RecordSeparator
	}}
}

// digitsFilter rejects records that are exactly n ASCII digits after trimming.
type digitsFilter struct {
	n  int
	re *regexp.Regexp
}

// RejectDigits returns a filter that rejects a record whose trimmed text is
// exactly n ASCII digits. Such posts are spam or placeholders.
func RejectDigits(n int) Filter {
	return &digitsFilter{
		n:  n,
		re: regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, n)),
	}
}

func (f *digitsFilter) Accept(text string) bool {
	return !f.re.MatchString(strings.TrimSpace(text))
}

func (f *digitsFilter) Name() string {
	return fmt.Sprintf("reject-%d-digits", f.n)
}
