package heuristics

import (
	"fmt"
	"sort"
	"strings"
)

// Filter decides whether a record is kept.
type Filter interface {
	// Accept reports whether the record should be kept.
	Accept(text string) bool

	// Name returns the registry name of the filter.
	Name() string
}

// Transform rewrites a record.
type Transform interface {
	// Apply returns the rewritten record. It must not have side effects.
	Apply(text string) string

	// Name returns the registry name of the transform.
	Name() string
}

// Stream identifies a record stream with its own pipeline. Stream values are
// the names of the record kinds in package model.
type Stream string

const (
	// StreamMessages is the stream of message bodies.
	StreamMessages Stream = "messages"

	// StreamTopics is the stream of topic titles.
	StreamTopics Stream = "topics"
)

// Pipeline is the filter stage and transform stage of one stream.
type Pipeline struct {
	filters    []Filter
	transforms []Transform
}

// NewPipeline creates a pipeline from ordered filters and transforms.
func NewPipeline(filters []Filter, transforms []Transform) *Pipeline {
	return &Pipeline{
		filters:    append([]Filter(nil), filters...),
		transforms: append([]Transform(nil), transforms...),
	}
}

// Process runs text through the pipeline.
// It returns false when a filter rejected the record; the returned string is
// then empty.
func (p *Pipeline) Process(text string) (string, bool) {
	if p == nil {
		return text, true
	}
	for _, f := range p.filters {
		if !f.Accept(text) {
			return "", false
		}
	}
	for _, t := range p.transforms {
		text = t.Apply(text)
	}
	return text, true
}

// FilterNames returns the names of the filters in order.
func (p *Pipeline) FilterNames() []string {
	names := make([]string, len(p.filters))
	for i, f := range p.filters {
		names[i] = f.Name()
	}
	return names
}

// TransformNames returns the names of the transforms in order.
func (p *Pipeline) TransformNames() []string {
	names := make([]string, len(p.transforms))
	for i, t := range p.transforms {
		names[i] = t.Name()
	}
	return names
}

// String describes the pipeline for logging.
func (p *Pipeline) String() string {
	return fmt.Sprintf("filters=[%s] transforms=[%s]",
		strings.Join(p.FilterNames(), ","),
		strings.Join(p.TransformNames(), ","))
}

// Set holds the pipeline of every stream.
type Set struct {
	pipelines map[Stream]*Pipeline
}

// NewSet creates a Set from per-stream pipelines.
// Streams without a pipeline pass records through unchanged.
func NewSet(pipelines map[Stream]*Pipeline) *Set {
	s := &Set{pipelines: make(map[Stream]*Pipeline, len(pipelines))}
	for stream, p := range pipelines {
		s.pipelines[stream] = p
	}
	return s
}

// Pipeline returns the pipeline of stream, or nil when none is configured.
func (s *Set) Pipeline(stream Stream) *Pipeline {
	if s == nil {
		return nil
	}
	return s.pipelines[stream]
}

// Process runs text through the pipeline of stream.
func (s *Set) Process(stream Stream, text string) (string, bool) {
	return s.Pipeline(stream).Process(text)
}

// String describes the pipeline of every stream, sorted by stream name.
func (s *Set) String() string {
	if s == nil {
		return ""
	}
	streams := make([]string, 0, len(s.pipelines))
	for stream, p := range s.pipelines {
		if p != nil {
			streams = append(streams, string(stream))
		}
	}
	sort.Strings(streams)

	parts := make([]string, 0, len(streams))
	for _, name := range streams {
		parts = append(parts, name+": "+s.pipelines[Stream(name)].String())
	}
	return strings.Join(parts, "; ")
}

// DefaultSet returns the stage lists used by the forum crawler:
// message bodies drop 10-digit placeholders, are trimmed, have their blank
// lines collapsed and end with a record separator; topic titles are trimmed
// and end with a record separator.
func DefaultSet() *Set {
	return NewSet(map[Stream]*Pipeline{
		StreamMessages: NewPipeline(
			[]Filter{RejectDigits(10)},
			[]Transform{Trim(), CollapseBlankLines(), AppendSeparator()},
		),
		StreamTopics: NewPipeline(
			nil,
			[]Transform{Trim(), AppendSeparator()},
		),
	})
}
