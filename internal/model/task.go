package model

import "fmt"

// Kind identifies which per-board file a record is appended to.
type Kind string

const (
	// KindMessages is the stream of forum post bodies.
	KindMessages Kind = "messages"

	// KindTopics is the stream of topic titles.
	KindTopics Kind = "topics"
)

// Kinds returns every destination kind in a stable order.
func Kinds() []Kind {
	return []Kind{KindMessages, KindTopics}
}

// String returns the kind as used in directory names.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindMessages, KindTopics:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown record kind %q", s)
	}
}

// WriteTask is a queued append of Content to the file at Filename.
// Tasks for the same Filename must be applied in the order they were enqueued.
type WriteTask struct {
	Filename string
	Content  string
}
