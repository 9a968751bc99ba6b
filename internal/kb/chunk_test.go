package kb

import (
	"strings"
	"testing"
)

func TestChunkTextShortTextSingleChunk(t *testing.T) {
	got := ChunkText("short article", 1000, 100)
	if len(got) != 1 || got[0] != "short article" {
		t.Fatalf("got %v", got)
	}
}

func TestChunkTextBreaksAtSentenceBoundary(t *testing.T) {
	// Two sentences; the boundary sits within the 200-char search window past
	// the chunk size, so the first chunk ends at the period.
	first := strings.Repeat("a", 90) + "."
	second := " " + strings.Repeat("b", 300) + "."
	got := ChunkText(first+second, 80, 10)
	if len(got) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(got))
	}
	if !strings.HasSuffix(got[0], ".") {
		t.Fatalf("first chunk does not end at sentence boundary: %q", got[0])
	}
}

func TestChunkTextOverlap(t *testing.T) {
	// No sentence boundaries at all: chunks are cut at exactly chunkSize and
	// step back by the overlap.
	text := strings.Repeat("x", 250)
	got := ChunkText(text, 100, 20)
	if len(got) < 3 {
		t.Fatalf("got %d chunks, want at least 3", len(got))
	}
	if len(got[0]) != 100 {
		t.Fatalf("first chunk length = %d, want 100", len(got[0]))
	}
	// Consecutive chunks share the overlap region.
	if got[0][80:] != got[1][:20] {
		t.Fatalf("overlap mismatch: %q vs %q", got[0][80:], got[1][:20])
	}
}

func TestChunkTextCoversAllContent(t *testing.T) {
	var sentences []string
	for i := 0; i < 40; i++ {
		sentences = append(sentences, "Sentence number "+strings.Repeat("x", i%7)+" ends here.")
	}
	text := strings.Join(sentences, " ")
	chunks := ChunkText(text, 200, 50)
	joined := strings.Join(chunks, " ")
	if !strings.Contains(joined, "ends here.") {
		t.Fatal("content lost")
	}
	for _, c := range chunks {
		if c != strings.TrimSpace(c) {
			t.Fatalf("untrimmed chunk: %q", c)
		}
		if c == "" {
			t.Fatal("empty chunk emitted")
		}
	}
	// Tail content survives chunking.
	last := sentences[len(sentences)-1]
	if !strings.Contains(joined, last) {
		t.Fatalf("tail sentence missing: %q", last)
	}
}

func TestChunkTextBadParamsUseDefaults(t *testing.T) {
	text := strings.Repeat("y", 1500)
	got := ChunkText(text, 0, -5)
	if len(got) < 2 {
		t.Fatalf("defaults not applied, got %d chunks", len(got))
	}
}
