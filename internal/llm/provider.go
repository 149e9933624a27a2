package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Provider is the interface all LLM providers must implement
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a completion request and returns the full response
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Stream sends a completion request and streams the response
	Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error)

	// Ping checks if the provider is reachable
	Ping(ctx context.Context) error
}

// ErrUnauthorized is returned when the provider rejects the API key
var ErrUnauthorized = errors.New("invalid API key")

// CompletionRequest represents a request to the LLM
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Message represents a chat message
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// CompletionResponse represents the full response
type CompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage tracks token usage
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// StreamEvent represents a streaming chunk or completion
type StreamEvent struct {
	Chunk string
	Done  bool
	Error error
	Usage *Usage
}

// APIError is a non-2xx reply from a provider
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, strings.TrimSpace(e.Body))
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == 401 {
		return ErrUnauthorized
	}
	return nil
}

// NewRequest creates a simple completion request
func NewRequest(model string, systemPrompt, userPrompt string) *CompletionRequest {
	return &CompletionRequest{
		Model: model,
		Messages: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleUser, Content: userPrompt},
		},
		MaxTokens:   2048,
		Temperature: 0.7,
	}
}

// Collect drains a stream into a single string
func Collect(events <-chan StreamEvent) (string, error) {
	return CollectFunc(events, nil)
}

// CollectFunc drains a stream like Collect, handing each chunk to onChunk
// as it arrives
func CollectFunc(events <-chan StreamEvent, onChunk func(string)) (string, error) {
	var b strings.Builder
	for ev := range events {
		if ev.Error != nil {
			return b.String(), ev.Error
		}
		if ev.Chunk != "" {
			b.WriteString(ev.Chunk)
			if onChunk != nil {
				onChunk(ev.Chunk)
			}
		}
		if ev.Done {
			break
		}
	}
	return b.String(), nil
}
