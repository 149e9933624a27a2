package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// HomeEnv overrides the config directory
const HomeEnv = "CHATPPT_HOME"

type Config struct {
	Provider string `yaml:"provider"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url,omitempty"`

	Templates TemplatesConfig `yaml:"templates"`
	Output    OutputConfig    `yaml:"output"`
	Agent     AgentConfig     `yaml:"agent"`
	Log       LogConfig       `yaml:"log"`
}

type TemplatesConfig struct {
	// YAML catalog; empty or missing means the bundled templates
	Catalog   string `yaml:"catalog,omitempty"`
	Default   string `yaml:"default,omitempty"`
	Scenarios string `yaml:"scenarios,omitempty"`
	// Unknown layout labels fail the build instead of falling back
	Strict bool `yaml:"strict"`
}

type OutputConfig struct {
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"`
	// Inline images as data URIs in HTML output
	EmbedImages bool `yaml:"embed_images"`
}

type AgentConfig struct {
	MaxTurns    int     `yaml:"max_turns"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: "ollama",
		Model:    "llama3.1:8b",
		Templates: TemplatesConfig{
			Default: "MasterTemplate",
		},
		Output: OutputConfig{
			Dir:    "outputs",
			Format: "html",
		},
		Agent: AgentConfig{
			MaxTurns:    10,
			MaxTokens:   4096,
			Temperature: 0.5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "chatppt"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LogPath is where the TUI writes its log
func LogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatppt.log"), nil
}

func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config file. It returns nil, nil when there is none yet.
// Sections missing from the file keep their defaults.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadOrDefault is Load falling back to DefaultConfig
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = DefaultConfig()
		cfg.applyEnvOverrides()
	}
	return cfg, nil
}

func (c *Config) Save() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// applyEnvOverrides fills the API key from the provider's environment
// variable when the file has none, and lets CHATPPT_MODEL pick the model.
func (c *Config) applyEnvOverrides() {
	if c.APIKey == "" {
		if info := GetProvider(c.Provider); info != nil && info.APIKeyEnv != "" {
			c.APIKey = os.Getenv(info.APIKeyEnv)
		}
	}
	if model := os.Getenv("CHATPPT_MODEL"); model != "" {
		c.Model = model
	}
	if level := os.Getenv("CHATPPT_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
}

// ResolvePath makes a config-relative path absolute
func ResolvePath(p string) (string, error) {
	if p == "" || filepath.IsAbs(p) {
		return p, nil
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[2:]), nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, p), nil
}
