package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adrg/frontmatter"
)

const previewRunes = 500

// ErrUnsupportedFormat is returned for files that are not plain text or markdown
var ErrUnsupportedFormat = errors.New("unsupported document format")

var formats = map[string]string{
	".md":       "markdown",
	".markdown": "markdown",
	".txt":      "text",
	".text":     "text",
}

// Document is reference material handed to the agent
type Document struct {
	Content  string
	Preview  string
	Metadata Metadata
}

// Metadata contains document metadata
type Metadata struct {
	Title         string    `json:"title"`
	SourcePath    string    `json:"source_path"`
	SourceFormat  string    `json:"source_format"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	WordCount     int       `json:"word_count"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// FileSizeHuman returns human-readable file size
func (m Metadata) FileSizeHuman() string {
	bytes := m.FileSizeBytes
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// Supported reports whether Load accepts the file's extension
func Supported(path string) bool {
	_, ok := formats[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads a markdown or text file. Markdown frontmatter is stripped and its
// title, if any, becomes the document title.
func Load(path string) (*Document, error) {
	format, ok := formats[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%s: not valid UTF-8 text", path)
	}

	content := raw
	var meta struct {
		Title string `yaml:"title"`
	}
	if format == "markdown" {
		body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
		if err != nil {
			return nil, fmt.Errorf("parse frontmatter: %w", err)
		}
		content = body
	}

	text := strings.TrimSpace(string(content))

	title := meta.Title
	if title == "" {
		title = firstHeading(text)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return &Document{
		Content: text,
		Preview: preview(text),
		Metadata: Metadata{
			Title:         title,
			SourcePath:    path,
			SourceFormat:  format,
			FileSizeBytes: info.Size(),
			WordCount:     len(strings.Fields(text)),
			LoadedAt:      time.Now(),
		},
	}, nil
}

func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}
	return ""
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewRunes]) + "..."
}
