package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// OpenAIProvider speaks the OpenAI chat completions API. Groq, OpenRouter
// and custom endpoints use the same wire format under a different base URL.
type OpenAIProvider struct {
	transport
	model string
}

func newOpenAICompatible(name, baseURL, apiKey, model string, opts []Option) *OpenAIProvider {
	headers := map[string]string{}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	return &OpenAIProvider{
		transport: newTransport(name, baseURL, headers, opts),
		model:     model,
	}
}

func NewOpenAIProvider(apiKey, model string, opts ...Option) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return newOpenAICompatible("openai", "https://api.openai.com/v1", apiKey, model, opts)
}

func NewGroqProvider(apiKey, model string, opts ...Option) *OpenAIProvider {
	if model == "" {
		model = "llama-3.1-70b-versatile"
	}
	return newOpenAICompatible("groq", "https://api.groq.com/openai/v1", apiKey, model, opts)
}

func NewOpenRouterProvider(apiKey, model string, opts ...Option) *OpenAIProvider {
	if model == "" {
		model = "meta-llama/llama-3.1-70b-instruct"
	}
	return newOpenAICompatible("openrouter", "https://openrouter.ai/api/v1", apiKey, model, opts)
}

// NewCustomProvider targets any OpenAI-compatible server; the key is optional
func NewCustomProvider(baseURL, apiKey, model string, opts ...Option) *OpenAIProvider {
	return newOpenAICompatible("custom", baseURL, apiKey, model, opts)
}

func (o *OpenAIProvider) Name() string {
	return o.name
}

func (o *OpenAIProvider) Ping(ctx context.Context) error {
	return o.ping(ctx, "/models")
}

// OpenAI-compatible request/response types
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Stream      bool            `json:"stream"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type openAIStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (o *OpenAIProvider) request(req *CompletionRequest, stream bool) (openAIRequest, string) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	return openAIRequest{
		Model:       model,
		Messages:    toOpenAIMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}, model
}

func (o *OpenAIProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	apiReq, model := o.request(req, false)

	var apiResp openAIResponse
	if err := o.complete(ctx, "/chat/completions", apiReq, &apiResp); err != nil {
		return nil, err
	}

	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", o.name)
	}

	return &CompletionResponse{
		Content:      apiResp.Choices[0].Message.Content,
		Model:        model,
		FinishReason: apiResp.Choices[0].FinishReason,
		Usage: Usage{
			PromptTokens:     apiResp.Usage.PromptTokens,
			CompletionTokens: apiResp.Usage.CompletionTokens,
			TotalTokens:      apiResp.Usage.TotalTokens,
		},
	}, nil
}

func (o *OpenAIProvider) Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error) {
	apiReq, _ := o.request(req, true)

	return o.stream(ctx, "/chat/completions", apiReq, func(line []byte) (StreamEvent, bool) {
		data, ok := sseData(line)
		if !ok {
			return StreamEvent{}, false
		}
		if string(data) == "[DONE]" {
			return StreamEvent{Done: true}, true
		}

		var chunk openAIStreamResponse
		if err := json.Unmarshal(data, &chunk); err != nil || len(chunk.Choices) == 0 {
			return StreamEvent{}, false
		}

		choice := chunk.Choices[0]
		return StreamEvent{
			Chunk: choice.Delta.Content,
			Done:  choice.FinishReason != nil,
		}, true
	})
}

func toOpenAIMessages(msgs []Message) []openAIMessage {
	result := make([]openAIMessage, len(msgs))
	for i, m := range msgs {
		result[i] = openAIMessage{Role: m.Role, Content: m.Content}
	}
	return result
}
