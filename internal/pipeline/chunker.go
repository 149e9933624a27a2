package pipeline

import (
	"strings"
	"unicode/utf8"
)

// Chunk is a piece of reference material
type Chunk struct {
	ID      int
	Content string
	// Heading the chunk falls under, if any
	Section string
}

// ChunkDocument splits content on blank lines into chunks of at most
// maxChunkSize runes. A paragraph longer than the limit becomes its own chunk.
func ChunkDocument(content string, maxChunkSize int) []Chunk {
	if maxChunkSize <= 0 {
		maxChunkSize = 1500 // ~375 tokens
	}

	var chunks []Chunk
	var current strings.Builder
	var currentSize int
	var section, chunkSection string

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			ID:      len(chunks),
			Content: current.String(),
			Section: chunkSection,
		})
		current.Reset()
		currentSize = 0
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if strings.HasPrefix(para, "#") {
			lines := strings.SplitN(para, "\n", 2)
			section = strings.TrimSpace(strings.TrimLeft(lines[0], "#"))
			if len(lines) == 1 {
				continue
			}
			para = strings.TrimSpace(lines[1])
		}

		size := utf8.RuneCountInString(para)
		if currentSize > 0 && (currentSize+size+2 > maxChunkSize || section != chunkSection) {
			flush()
		}

		if currentSize == 0 {
			chunkSection = section
		} else {
			current.WriteString("\n\n")
			currentSize += 2
		}
		current.WriteString(para)
		currentSize += size
	}
	flush()

	return chunks
}

// SelectReference joins chunks in order until maxRunes would be exceeded,
// labelling each with its section. It reports whether anything was dropped.
func SelectReference(chunks []Chunk, maxRunes int) (string, bool) {
	var b strings.Builder
	used := 0
	lastSection := ""

	for i, c := range chunks {
		piece := c.Content
		if c.Section != "" && c.Section != lastSection {
			piece = "## " + c.Section + "\n\n" + piece
		}
		size := utf8.RuneCountInString(piece) + 2
		if maxRunes > 0 && used+size > maxRunes {
			return strings.TrimSpace(b.String()), i < len(chunks)
		}
		b.WriteString(piece)
		b.WriteString("\n\n")
		used += size
		lastSection = c.Section
	}

	return strings.TrimSpace(b.String()), false
}

// EstimateTokens estimates token count (rough: 4 chars per token)
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}
