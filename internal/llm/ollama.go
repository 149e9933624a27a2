package llm

import (
	"context"
	"encoding/json"
)

const defaultOllamaHost = "http://localhost:11434"

type OllamaProvider struct {
	transport
	model string
}

func NewOllamaProvider(host, model string, opts ...Option) *OllamaProvider {
	if host == "" {
		host = defaultOllamaHost
	}
	return &OllamaProvider{
		transport: newTransport("ollama", host, nil, opts),
		model:     model,
	}
}

func (o *OllamaProvider) Name() string {
	return "ollama"
}

func (o *OllamaProvider) Ping(ctx context.Context) error {
	return o.ping(ctx, "/api/tags")
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model           string        `json:"model"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason,omitempty"`
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
}

func (o *OllamaProvider) request(req *CompletionRequest, stream bool) ollamaChatRequest {
	model := req.Model
	if model == "" {
		model = o.model
	}
	return ollamaChatRequest{
		Model:    model,
		Messages: convertMessages(req.Messages),
		Stream:   stream,
		Options: &ollamaOptions{
			Temperature: req.Temperature,
			NumPredict:  req.MaxTokens,
		},
	}
}

func (o *OllamaProvider) Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error) {
	var resp ollamaChatResponse
	if err := o.complete(ctx, "/api/chat", o.request(req, false), &resp); err != nil {
		return nil, err
	}

	return &CompletionResponse{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		FinishReason: resp.DoneReason,
		Usage: Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		},
	}, nil
}

// Stream reads Ollama's newline-delimited JSON chunks
func (o *OllamaProvider) Stream(ctx context.Context, req *CompletionRequest) (<-chan StreamEvent, error) {
	return o.stream(ctx, "/api/chat", o.request(req, true), func(line []byte) (StreamEvent, bool) {
		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return StreamEvent{Error: err}, true
		}
		if chunk.Done {
			return StreamEvent{
				Chunk: chunk.Message.Content,
				Done:  true,
				Usage: &Usage{
					PromptTokens:     chunk.PromptEvalCount,
					CompletionTokens: chunk.EvalCount,
					TotalTokens:      chunk.PromptEvalCount + chunk.EvalCount,
				},
			}, true
		}
		return StreamEvent{Chunk: chunk.Message.Content}, true
	})
}

func convertMessages(msgs []Message) []ollamaMessage {
	result := make([]ollamaMessage, len(msgs))
	for i, m := range msgs {
		result[i] = ollamaMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return result
}
