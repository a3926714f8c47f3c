package writer

import (
	"path/filepath"
	"testing"

	"github.com/nao1215/boardcrawl/internal/model"
)

func TestDestination(t *testing.T) {
	t.Parallel()

	got := Destination("out", model.KindMessages, "Mining")
	want := filepath.Join("out", "messages", "Mining.txt")
	if got != want {
		t.Errorf("Destination() = %q, want %q", got, want)
	}

	got = Destination("out", model.KindTopics, "Mining")
	want = filepath.Join("out", "topics", "Mining.txt")
	if got != want {
		t.Errorf("Destination() = %q, want %q", got, want)
	}
}

func TestSafeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "Bitcoin Discussion", want: "Bitcoin Discussion"},
		{name: "surrounding space", in: "  Mining  ", want: "Mining"},
		{name: "slash", in: "Hardware/Software", want: "Hardware_Software"},
		{name: "backslash", in: `a\b`, want: "a_b"},
		{name: "control", in: "a\tb\nc", want: "a_b_c"},
		{name: "empty", in: "", want: "_"},
		{name: "dot dot", in: "..", want: "_"},
		{name: "decomposed accent", in: "Franc\u0327ais", want: "Fran\u00e7ais"},
		{name: "cyrillic", in: "Русский (Russian)", want: "Русский (Russian)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := SafeName(tt.in); got != tt.want {
				t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
