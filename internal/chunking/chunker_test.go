package chunking

import (
	"strings"
	"testing"
)

func TestChunkCoversDocument(t *testing.T) {
	text := strings.Repeat("This is a sentence about contracts and parties. ", 500)
	c := New(Config{MaxChars: 2000, MinChars: 200, OverlapChars: 0, MaxChunksPerDocument: 50})
	chunks := c.Chunk(text, StrategyFixedSize)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	total := 0
	for _, ch := range chunks {
		total += len(ch.Text)
	}
	if total < len(text) {
		t.Fatalf("chunk coverage too small: got %d want >= %d", total, len(text))
	}
}

func TestPreservedSpanNotBisected(t *testing.T) {
	text := "As held in Smith v. Jones, 123 F.2d 456, the rule applies."
	spans := findPreservedSpans(text)
	if len(spans) == 0 {
		t.Fatal("expected at least one preserved span")
	}
	idx := strings.Index(text, "Jones")
	snapped, inside := snapOutOfSpan(idx, spans)
	if !inside {
		t.Fatal("expected position inside a preserved span")
	}
	if snapped <= idx {
		t.Fatal("expected snap to move forward past the span")
	}
}

func TestMaxChunksCapEnforced(t *testing.T) {
	text := strings.Repeat("Paragraph text here.\n\n", 200)
	c := New(Config{MaxChars: 50, MinChars: 10, MaxChunksPerDocument: 5})
	chunks := c.Chunk(text, StrategyParagraphAware)
	if len(chunks) > 5 {
		t.Fatalf("expected at most 5 chunks, got %d", len(chunks))
	}
}
