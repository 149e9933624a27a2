package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shengjie8329/ChatPPT/internal/llm"
	"github.com/shengjie8329/ChatPPT/internal/prompts"
)

// ErrEmptyReply is returned when the model answers with nothing usable
var ErrEmptyReply = errors.New("empty reply from model")

const defaultMaxTurns = 10

// Options configures a ConversationAgent
type Options struct {
	Name         string
	Model        string
	SessionID    string
	SystemPrompt string
	// Exchanges (user + assistant) kept in history; 0 means the default
	MaxTurns    int
	MaxTokens   int
	Temperature float64
	Logger      *zap.Logger
}

// ConversationAgent keeps one session's chat history with the model
type ConversationAgent struct {
	provider llm.Provider
	opts     Options
	logger   *zap.Logger

	mu      sync.Mutex
	history []llm.Message
}

// New creates an agent. Without a system prompt it uses the formatter prompt;
// without a session id it generates one.
func New(provider llm.Provider, opts Options) *ConversationAgent {
	if opts.Name == "" {
		opts.Name = "conversation"
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = prompts.BuildFormatterPrompt("", "")
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaultMaxTurns
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ConversationAgent{
		provider: provider,
		opts:     opts,
		logger: logger.With(
			zap.String("agent", opts.Name),
			zap.String("session", opts.SessionID),
		),
	}
}

func (a *ConversationAgent) Name() string {
	return a.opts.Name
}

func (a *ConversationAgent) SessionID() string {
	return a.opts.SessionID
}

// ChatWithHistory sends input along with the session history and returns the
// reply with any surrounding code fence removed. The exchange is recorded
// only when the call succeeds.
func (a *ConversationAgent) ChatWithHistory(ctx context.Context, input string) (string, error) {
	return a.exchange(ctx, input, func(req *llm.CompletionRequest) (string, int, error) {
		resp, err := a.provider.Complete(ctx, req)
		if err != nil {
			return "", 0, err
		}
		return resp.Content, resp.Usage.TotalTokens, nil
	})
}

// StreamWithHistory is ChatWithHistory over the provider's stream. onChunk
// sees the raw reply text as it arrives, fences included.
func (a *ConversationAgent) StreamWithHistory(ctx context.Context, input string, onChunk func(string)) (string, error) {
	return a.exchange(ctx, input, func(req *llm.CompletionRequest) (string, int, error) {
		events, err := a.provider.Stream(ctx, req)
		if err != nil {
			return "", 0, err
		}
		content, err := llm.CollectFunc(events, onChunk)
		return content, 0, err
	})
}

type sendFunc func(req *llm.CompletionRequest) (content string, tokens int, err error)

func (a *ConversationAgent) exchange(ctx context.Context, input string, send sendFunc) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty input")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	messages := make([]llm.Message, 0, len(a.history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.opts.SystemPrompt})
	messages = append(messages, a.history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: input})

	a.logger.Debug("chat request", zap.Int("history", len(a.history)), zap.Int("input_len", len(input)))

	content, tokens, err := send(&llm.CompletionRequest{
		Model:       a.opts.Model,
		Messages:    messages,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s agent: %w", a.opts.Name, err)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s agent: %w", a.opts.Name, err)
	}

	reply := StripFence(content)
	if reply == "" {
		return "", ErrEmptyReply
	}

	a.history = append(a.history,
		llm.Message{Role: llm.RoleUser, Content: input},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	a.trim()

	a.logger.Debug("chat reply",
		zap.Int("reply_len", len(reply)),
		zap.Int("total_tokens", tokens),
	)

	return reply, nil
}

// History returns a copy of the recorded messages
func (a *ConversationAgent) History() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]llm.Message(nil), a.history...)
}

// Reset clears the session history
func (a *ConversationAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// trim drops the oldest exchanges beyond MaxTurns. Caller holds mu.
func (a *ConversationAgent) trim() {
	limit := a.opts.MaxTurns * 2
	if len(a.history) <= limit {
		return
	}
	a.history = append([]llm.Message(nil), a.history[len(a.history)-limit:]...)
}

// StripFence returns the body of a fenced block when the reply is wrapped in
// one, or when prose surrounds a single fenced block holding the deck.
func StripFence(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	lines := strings.Split(content, "\n")
	start, end := -1, -1
	for i, line := range lines {
		if !strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		end = i
		break
	}

	if start < 0 || end < 0 {
		return content
	}

	inner := strings.TrimSpace(strings.Join(lines[start+1:end], "\n"))
	if start == 0 && end == len(lines)-1 {
		return inner
	}
	if strings.Contains("\n"+inner, "\n#") {
		return inner
	}
	return content
}
