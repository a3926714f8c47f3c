package heuristics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nao1215/boardcrawl/internal/model"
)

// ErrUnknownStage is returned when a configured stage name is not registered.
var ErrUnknownStage = errors.New("unknown heuristic stage")

var filterRegistry = map[string]func() Filter{
	"reject-10-digits": func() Filter { return RejectDigits(10) },
}

var transformRegistry = map[string]func() Transform{
	"trim":                 Trim,
	"collapse-blank-lines": CollapseBlankLines,
	"append-separator":     AppendSeparator,
}

// FilterNames returns the registered filter names, sorted.
func FilterNames() []string {
	return sortedKeys(filterRegistry)
}

// TransformNames returns the registered transform names, sorted.
func TransformNames() []string {
	return sortedKeys(transformRegistry)
}

// BuildPipeline resolves filter and transform names into a Pipeline.
func BuildPipeline(filterNames, transformNames []string) (*Pipeline, error) {
	filters := make([]Filter, 0, len(filterNames))
	for _, name := range filterNames {
		newFilter, ok := filterRegistry[name]
		if !ok {
			return nil, fmt.Errorf("%w: filter %q (known: %v)", ErrUnknownStage, name, FilterNames())
		}
		filters = append(filters, newFilter())
	}

	transforms := make([]Transform, 0, len(transformNames))
	for _, name := range transformNames {
		newTransform, ok := transformRegistry[name]
		if !ok {
			return nil, fmt.Errorf("%w: transform %q (known: %v)", ErrUnknownStage, name, TransformNames())
		}
		transforms = append(transforms, newTransform())
	}

	return NewPipeline(filters, transforms), nil
}

// StageNames lists the filter and transform names of one stream.
type StageNames struct {
	Filters    []string `yaml:"filters,omitempty"`
	Transforms []string `yaml:"transforms,omitempty"`
}

// BuildSet builds a Set from per-stream stage names.
// Streams missing from names keep their DefaultSet pipeline.
func BuildSet(names map[Stream]StageNames) (*Set, error) {
	defaults := DefaultSet()
	pipelines := make(map[Stream]*Pipeline, len(model.Kinds()))
	for _, kind := range model.Kinds() {
		pipelines[Stream(kind)] = defaults.Pipeline(Stream(kind))
	}

	for stream, stages := range names {
		if _, err := model.ParseKind(string(stream)); err != nil {
			return nil, fmt.Errorf("%w: stream: %w", ErrUnknownStage, err)
		}
		p, err := BuildPipeline(stages.Filters, stages.Transforms)
		if err != nil {
			return nil, fmt.Errorf("stream %s: %w", stream, err)
		}
		pipelines[stream] = p
	}

	return NewSet(pipelines), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
