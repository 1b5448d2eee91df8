package search

import (
	"strings"
	"testing"
)

func TestSnippetShortTextUnchanged(t *testing.T) {
	if got := snippet("  Review hover states.  "); got != "Review hover states." {
		t.Errorf("snippet = %q", got)
	}
}

func TestSnippetTruncatesOnWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 60)
	got := snippet(long)

	if len(got) > snippetLength+len("…") {
		t.Errorf("snippet too long: %d bytes", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("snippet missing ellipsis: %q", got)
	}
	if strings.HasSuffix(strings.TrimSuffix(got, "…"), " ") {
		t.Errorf("snippet ends mid-space: %q", got)
	}
}

func TestFirstNonBlank(t *testing.T) {
	if got := firstNonBlank("", "  ", "hit", "later"); got != "hit" {
		t.Errorf("firstNonBlank = %q", got)
	}
	if got := firstNonBlank("", "   "); got != "" {
		t.Errorf("firstNonBlank = %q, want empty", got)
	}
}
