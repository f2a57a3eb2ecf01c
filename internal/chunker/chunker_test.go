package chunker

import (
	"errors"
	"strings"
	"testing"

	"github.com/vippawar1104/RAG-agent/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c, err := New(DefaultChunkSize, DefaultChunkOverlap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Size() != 1000 || c.Overlap() != 200 {
			t.Errorf("expected 1000/200, got %d/%d", c.Size(), c.Overlap())
		}
	})

	invalid := []struct {
		name          string
		size, overlap int
	}{
		{"zero size", 0, 0},
		{"negative size", -5, 0},
		{"negative overlap", 100, -1},
		{"overlap equals size", 100, 100},
		{"overlap exceeds size", 100, 150},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.size, tt.overlap)
			if !errors.Is(err, domain.ErrInvalidChunking) {
				t.Errorf("expected ErrInvalidChunking, got %v", err)
			}
		})
	}
}

func TestChunk_EmptyText(t *testing.T) {
	chunks, err := Chunk("doc", "", 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestChunk_InvalidSizeIsError(t *testing.T) {
	if _, err := Chunk("doc", "text", 0, 0); err == nil {
		t.Error("expected error for chunk size 0")
	}
}

func TestChunk_2500Characters(t *testing.T) {
	text := strings.Repeat("a", 2500)

	chunks, err := Chunk("doc", text, 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantStarts := []int{0, 800, 1600, 2400}
	if len(chunks) != len(wantStarts) {
		t.Fatalf("expected %d chunks, got %d", len(wantStarts), len(chunks))
	}
	for i, want := range wantStarts {
		if chunks[i].Start != want {
			t.Errorf("chunk %d: expected start %d, got %d", i, want, chunks[i].Start)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, chunks[i].Index)
		}
	}
	if got := len(chunks[3].Content); got != 100 {
		t.Errorf("expected last chunk length 100, got %d", got)
	}
}

func TestChunk_ShortText(t *testing.T) {
	chunks, err := Chunk("doc", "hello", 1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Content != "hello" {
		t.Fatalf("expected single chunk 'hello', got %+v", chunks)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 97)

	first, _ := Chunk("doc", text, 300, 50)
	second, _ := Chunk("doc", text, 300, 50)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Content != second[i].Content || first[i].Start != second[i].Start || first[i].End != second[i].End {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunk_CoversText(t *testing.T) {
	sizes := []struct{ size, overlap int }{
		{10, 0}, {10, 3}, {7, 6}, {1000, 200}, {1, 0},
	}
	text := strings.Repeat("0123456789", 53) + "xyz"
	runes := []rune(text)

	for _, s := range sizes {
		chunks, err := Chunk("doc", text, s.size, s.overlap)
		if err != nil {
			t.Fatalf("size %d overlap %d: %v", s.size, s.overlap, err)
		}

		covered := 0
		for i, c := range chunks {
			if c.Start > covered {
				t.Fatalf("size %d overlap %d: gap before chunk %d at %d", s.size, s.overlap, i, c.Start)
			}
			if c.Content != string(runes[c.Start:c.End]) {
				t.Fatalf("size %d overlap %d: chunk %d content does not match its span", s.size, s.overlap, i)
			}
			if c.End > covered {
				covered = c.End
			}
		}
		if covered != len(runes) {
			t.Errorf("size %d overlap %d: covered %d of %d", s.size, s.overlap, covered, len(runes))
		}
	}
}

func TestSplit_MultiByte(t *testing.T) {
	c, _ := New(3, 1)
	doc := &domain.Document{ID: "doc", Content: "héllo wörld"}

	chunks := c.Split(doc)
	if chunks[0].Content != "hél" {
		t.Errorf("expected rune-based window 'hél', got %q", chunks[0].Content)
	}
	if chunks[1].Start != 2 || chunks[1].Content != "llo" {
		t.Errorf("expected second window 'llo' at 2, got %q at %d", chunks[1].Content, chunks[1].Start)
	}
}

func TestSplit_Metadata(t *testing.T) {
	c, _ := New(4, 0)
	doc := &domain.Document{
		ID:       "doc",
		Content:  "abcdefgh",
		Metadata: map[string]any{"path": "/a.txt"},
	}

	chunks := c.Split(doc)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	meta := chunks[1].Metadata
	if meta["path"] != "/a.txt" || meta[MetaChunkIndex] != 1 || meta[MetaCharStart] != 4 || meta[MetaCharEnd] != 8 {
		t.Errorf("unexpected metadata: %v", meta)
	}
	if _, ok := doc.Metadata[MetaChunkIndex]; ok {
		t.Error("document metadata must not be mutated")
	}
	if chunks[1].ID() != "doc:1" {
		t.Errorf("expected id doc:1, got %s", chunks[1].ID())
	}
}
