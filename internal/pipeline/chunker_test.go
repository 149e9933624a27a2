package pipeline

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkDocument(t *testing.T) {
	tests := []struct {
		name         string
		content      string
		maxChunkSize int
		wantChunks   int
	}{
		{
			name:         "empty content",
			content:      "",
			maxChunkSize: 1000,
			wantChunks:   0,
		},
		{
			name:         "single paragraph",
			content:      "This is a single paragraph of text.",
			maxChunkSize: 1000,
			wantChunks:   1,
		},
		{
			name:         "multiple paragraphs within limit",
			content:      "First paragraph.\n\nSecond paragraph.\n\nThird paragraph.",
			maxChunkSize: 1000,
			wantChunks:   1,
		},
		{
			name:         "paragraphs exceed limit",
			content:      strings.Repeat("word ", 100) + "\n\n" + strings.Repeat("word ", 100),
			maxChunkSize: 600,
			wantChunks:   2,
		},
		{
			name:         "limit counts runes not bytes",
			content:      strings.Repeat("字", 300) + "\n\n" + strings.Repeat("字", 300),
			maxChunkSize: 700,
			wantChunks:   1,
		},
		{
			name:         "new section starts a chunk",
			content:      "# Header 1\nContent under header 1.\n\n# Header 2\nContent under header 2.",
			maxChunkSize: 1000,
			wantChunks:   2,
		},
		{
			name:         "header only sections are skipped",
			content:      "# Header\n\n# Another\n\nbody",
			maxChunkSize: 1000,
			wantChunks:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := ChunkDocument(tt.content, tt.maxChunkSize)
			if len(chunks) != tt.wantChunks {
				t.Errorf("ChunkDocument() returned %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			for i, c := range chunks {
				if c.ID != i {
					t.Errorf("chunk %d has ID %d", i, c.ID)
				}
			}
		})
	}
}

func TestChunkSections(t *testing.T) {
	chunks := ChunkDocument("intro\n\n# Revenue\ngrew 15%\n\nmore\n\n## Risks\nsupply", 1000)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	want := []struct{ section, content string }{
		{"", "intro"},
		{"Revenue", "grew 15%\n\nmore"},
		{"Risks", "supply"},
	}
	for i, w := range want {
		if chunks[i].Section != w.section || chunks[i].Content != w.content {
			t.Errorf("chunk %d = (%q, %q), want (%q, %q)", i, chunks[i].Section, chunks[i].Content, w.section, w.content)
		}
	}
}

func TestSelectReference(t *testing.T) {
	chunks := []Chunk{
		{ID: 0, Content: "intro"},
		{ID: 1, Content: "grew 15%", Section: "Revenue"},
		{ID: 2, Content: strings.Repeat("x", 200), Section: "Appendix"},
	}

	all, truncated := SelectReference(chunks, 0)
	if truncated {
		t.Error("unlimited selection reported truncation")
	}
	if !strings.Contains(all, "## Revenue\n\ngrew 15%") {
		t.Errorf("missing section label in %q", all)
	}

	capped, truncated := SelectReference(chunks, 50)
	if !truncated {
		t.Error("expected truncation")
	}
	if strings.Contains(capped, "Appendix") {
		t.Errorf("capped reference kept the oversized chunk: %q", capped)
	}
	if utf8.RuneCountInString(capped) > 50 {
		t.Errorf("capped reference is %d runes", utf8.RuneCountInString(capped))
	}
}

func TestEstimateTokens(t *testing.T) {
	// Rough estimate: 4 chars per token
	text := "This is a test string with some words."
	tokens := EstimateTokens(text)

	// 39 characters / 4 = ~9-10 tokens
	if tokens < 5 || tokens > 15 {
		t.Errorf("EstimateTokens() = %d, want roughly 9-10", tokens)
	}
}
