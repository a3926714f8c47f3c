package writer

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/boardcrawl/internal/model"
)

// fileExt is the extension of every destination file.
const fileExt = ".txt"

// Destination returns the file that collects records of kind for a board:
// <base>/<kind>/<board name>.txt.
func Destination(base string, kind model.Kind, boardName string) string {
	return filepath.Join(base, kind.String(), SafeName(boardName)+fileExt)
}

// SafeName turns a board name into a single path element. The name is NFC
// normalized so visually identical names map to one file, path separators and
// control characters become underscores, and an empty result becomes "_".
func SafeName(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r == '/' || r == '\\' || r == 0:
			b.WriteRune('_')
		case unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "_"
	}
	return out
}
