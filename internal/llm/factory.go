package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/config"
)

// NewProvider creates a provider from config
func NewProvider(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	opts := []Option{WithLogger(logger)}

	switch cfg.Provider {
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, opts...), nil

	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("groq requires an API key")
		}
		return NewGroqProvider(cfg.APIKey, cfg.Model, append(opts, WithBaseURL(cfg.BaseURL))...), nil

	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai requires an API key")
		}
		return NewOpenAIProvider(cfg.APIKey, cfg.Model, append(opts, WithBaseURL(cfg.BaseURL))...), nil

	case "anthropic":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic requires an API key")
		}
		return NewAnthropicProvider(cfg.APIKey, cfg.Model, append(opts, WithBaseURL(cfg.BaseURL))...), nil

	case "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter requires an API key")
		}
		return NewOpenRouterProvider(cfg.APIKey, cfg.Model, append(opts, WithBaseURL(cfg.BaseURL))...), nil

	case "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("custom provider requires base_url")
		}
		return NewCustomProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, opts...), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
