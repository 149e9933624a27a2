package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const anthropicVersion = "2023-06-01"

type AnthropicProvider struct {
	transport
	model string
}

func NewAnthropicProvider(apiKey, model string, opts ...Option) *AnthropicProvider {
	if model == "" {
		model = "claude-3-5-sonnet-20241022"
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicVersion,
	}
	return &AnthropicProvider{
		transport: newTransport("anthropic", "https://api.anthropic.com/v1", headers, opts),
		model:     model,
	}
}

func (a *AnthropicProvider) Name() string {
	return "anthropic"
}

func (a *AnthropicProvider) Ping(ctx context.Context) error {
	return a.ping(ctx, "/models")
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// request moves system messages into the top-level system field
func (a *AnthropicProvider) request(req *CompletionRequest, stream bool) (anthropicRequest, string) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var system []string
	var messages []anthropicMessage
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		messages = append(messages, anthropicMessage{Role: m.Role, Content: m.Content})
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	return anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      strings.Join(system, "\n\n"),
		Messages:    messages,
		Temperature: req.Temperature,
		Stream:      stream,
	}, model
}

func (a *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	apiReq, model := a.request(req, false)

	var apiResp anthropicResponse
	if err := a.complete(ctx, "/messages", apiReq, &apiResp); err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, fmt.Errorf("no response from Anthropic")
	}

	return &CompletionResponse{
		Content:      text.String(),
		Model:        model,
		FinishReason: apiResp.StopReason,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.InputTokens,
			CompletionTokens: apiResp.Usage.OutputTokens,
			TotalTokens:      apiResp.Usage.InputTokens + apiResp.Usage.OutputTokens,
		},
	}, nil
}

func (a *AnthropicProvider) Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error) {
	apiReq, _ := a.request(req, true)

	return a.stream(ctx, "/messages", apiReq, func(line []byte) (StreamEvent, bool) {
		data, ok := sseData(line)
		if !ok {
			return StreamEvent{}, false
		}

		var event anthropicStreamEvent
		if err := json.Unmarshal(data, &event); err != nil {
			return StreamEvent{}, false
		}

		switch event.Type {
		case "content_block_delta":
			return StreamEvent{Chunk: event.Delta.Text}, true
		case "message_stop":
			return StreamEvent{Done: true}, true
		case "error":
			msg := "stream error"
			if event.Error != nil {
				msg = event.Error.Message
			}
			return StreamEvent{Error: fmt.Errorf("anthropic: %s", msg)}, true
		}
		return StreamEvent{}, false
	})
}
