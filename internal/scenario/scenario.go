package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// FileName is the scenario file inside each scenario directory
const FileName = "SCENARIO.md"

// Metadata is the lightweight index entry loaded at startup
type Metadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Template the scenario prefers; empty means the configured default
	Template string `yaml:"template,omitempty"`
	Path     string `yaml:"-"` // Full path to SCENARIO.md
	DirPath  string `yaml:"-"` // Directory containing the scenario
}

// Scenario is the full scenario loaded on demand
type Scenario struct {
	Metadata
	Body string // Markdown instructions appended to the formatter prompt
}

// Parse splits scenario source into frontmatter and body
func Parse(source []byte) (*Scenario, error) {
	var meta Metadata
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return &Scenario{
		Metadata: meta,
		Body:     strings.TrimSpace(string(body)),
	}, nil
}

// LoadMetadata reads a scenario file keeping only its frontmatter
func LoadMetadata(path string) (*Metadata, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &s.Metadata, nil
}

// Load reads a scenario file. The directory name stands in for a missing name.
func Load(path string) (*Scenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	s, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s.Path = path
	s.DirPath = filepath.Dir(path)
	if s.Name == "" {
		s.Name = filepath.Base(s.DirPath)
	}
	return s, nil
}

// LoadFull reads the entire scenario including body
func LoadFull(meta *Metadata) (*Scenario, error) {
	s, err := Load(meta.Path)
	if err != nil {
		return nil, err
	}
	s.Metadata = *meta
	return s, nil
}

// Marshal renders a scenario back into SCENARIO.md form
func (s *Scenario) Marshal() ([]byte, error) {
	front, err := yaml.Marshal(s.Metadata)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")
	b.WriteString(s.Body)
	b.WriteString("\n")
	return b.Bytes(), nil
}

// Save writes the scenario to <dir>/<name>/SCENARIO.md
func Save(dir string, s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}

	content, err := s.Marshal()
	if err != nil {
		return err
	}

	scenarioDir := filepath.Join(dir, s.Name)
	if err := os.MkdirAll(scenarioDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(scenarioDir, FileName)
	if err := os.WriteFile(path, content, 0644); err != nil {
		return err
	}

	s.Path = path
	s.DirPath = scenarioDir
	return nil
}
