package utils

import (
	"strings"
	"testing"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("short", 100, 10)
	if len(chunks) != 1 || chunks[0] != "short" {
		t.Errorf("got %v", chunks)
	}
}

func TestSplitTextChunksWithOverlap(t *testing.T) {
	text := strings.Repeat("a", 250)
	chunks := SplitText(text, 100, 20)

	// step = 80: [0,100) [80,180) [160,250)
	if len(chunks) != 3 {
		t.Fatalf("len = %d, want 3", len(chunks))
	}
	for i, c := range chunks[:len(chunks)-1] {
		if len(c) != 100 {
			t.Errorf("chunk %d len = %d, want 100", i, len(c))
		}
	}
}

func TestSplitTextOverlapGreaterThanChunk(t *testing.T) {
	text := strings.Repeat("b", 50)
	chunks := SplitText(text, 10, 15)

	if len(chunks) != 5 {
		t.Errorf("len = %d, want 5 (step falls back to chunk size)", len(chunks))
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under max", "hello", 50, "hello"},
		{"exactly max", strings.Repeat("x", 50), 50, strings.Repeat("x", 50)},
		{"over max", strings.Repeat("x", 51), 50, strings.Repeat("x", 50) + "..."},
		{"multibyte", "héllo wörld", 5, "héllo" + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateWithEllipsis(tt.in, tt.max); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
