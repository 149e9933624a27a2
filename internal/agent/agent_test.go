package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shengjie8329/ChatPPT/internal/llm"
)

// fakeProvider records requests and replies from a script
type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []*llm.CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	reply := fmt.Sprintf("reply %d", len(f.requests))
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return &llm.CompletionResponse{Content: reply}, nil
}

// Stream sends the next scripted reply split into words
func (f *fakeProvider) Stream(ctx context.Context, req *llm.CompletionRequest) (<-chan llm.StreamEvent, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	words := strings.SplitAfter(resp.Content, " ")
	events := make(chan llm.StreamEvent, len(words)+1)
	for _, w := range words {
		events <- llm.StreamEvent{Chunk: w}
	}
	events <- llm.StreamEvent{Done: true}
	close(events)
	return events, nil
}

func (f *fakeProvider) Ping(ctx context.Context) error { return nil }

func TestNewDefaults(t *testing.T) {
	a := New(&fakeProvider{}, Options{})

	assert.Equal(t, "conversation", a.Name())
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), New(&fakeProvider{}, Options{}).SessionID())
	assert.Contains(t, a.opts.SystemPrompt, "[Layout Name]")
}

func TestChatWithHistory(t *testing.T) {
	p := &fakeProvider{replies: []string{"```markdown\n# Weekly\n## Done [Title and Content]\n- shipped\n```"}}
	a := New(p, Options{SessionID: "test_user", SystemPrompt: "sys", Model: "m"})

	reply, err := a.ChatWithHistory(context.Background(), "write a weekly report")
	require.NoError(t, err)
	assert.Equal(t, "# Weekly\n## Done [Title and Content]\n- shipped", reply)

	_, err = a.ChatWithHistory(context.Background(), "shorter please")
	require.NoError(t, err)

	require.Len(t, p.requests, 2)
	second := p.requests[1]
	assert.Equal(t, "m", second.Model)
	require.Len(t, second.Messages, 4)
	assert.Equal(t, llm.Message{Role: llm.RoleSystem, Content: "sys"}, second.Messages[0])
	assert.Equal(t, "write a weekly report", second.Messages[1].Content)
	assert.Equal(t, reply, second.Messages[2].Content)
	assert.Equal(t, llm.Message{Role: llm.RoleUser, Content: "shorter please"}, second.Messages[3])

	assert.Len(t, a.History(), 4)
}

func TestChatHistoryTrimmed(t *testing.T) {
	p := &fakeProvider{}
	a := New(p, Options{MaxTurns: 2})

	for i := 0; i < 5; i++ {
		_, err := a.ChatWithHistory(context.Background(), fmt.Sprintf("turn %d", i))
		require.NoError(t, err)
	}

	history := a.History()
	require.Len(t, history, 4)
	assert.Equal(t, "turn 3", history[0].Content)
	assert.Equal(t, "reply 5", history[3].Content)
}

func TestChatErrorLeavesHistory(t *testing.T) {
	p := &fakeProvider{err: errors.New("boom")}
	a := New(p, Options{})

	_, err := a.ChatWithHistory(context.Background(), "hi")
	assert.ErrorContains(t, err, "boom")
	assert.Empty(t, a.History())

	_, err = a.ChatWithHistory(context.Background(), "   ")
	assert.Error(t, err)
}

func TestChatEmptyReply(t *testing.T) {
	a := New(&fakeProvider{replies: []string{"```\n```"}}, Options{})

	_, err := a.ChatWithHistory(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyReply)
	assert.Empty(t, a.History())
}

func TestStreamWithHistory(t *testing.T) {
	raw := "```markdown\n# Weekly\n## Done [Title and Content]\n- shipped the parser\n```"
	p := &fakeProvider{replies: []string{raw}}
	a := New(p, Options{SystemPrompt: "sys"})

	var chunks []string
	reply, err := a.StreamWithHistory(context.Background(), "write a weekly report", func(c string) {
		chunks = append(chunks, c)
	})
	require.NoError(t, err)

	assert.Equal(t, "# Weekly\n## Done [Title and Content]\n- shipped the parser", reply)
	assert.Greater(t, len(chunks), 1)
	assert.Equal(t, raw, strings.Join(chunks, ""))

	history := a.History()
	require.Len(t, history, 2)
	assert.Equal(t, reply, history[1].Content)

	// follow-ups carry the streamed exchange
	_, err = a.ChatWithHistory(context.Background(), "shorter")
	require.NoError(t, err)
	assert.Len(t, p.requests[1].Messages, 4)
}

func TestStreamWithHistoryErrors(t *testing.T) {
	a := New(&fakeProvider{err: errors.New("boom")}, Options{})
	_, err := a.StreamWithHistory(context.Background(), "hi", nil)
	assert.ErrorContains(t, err, "boom")
	assert.Empty(t, a.History())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(&fakeProvider{}, Options{}).StreamWithHistory(ctx, "hi", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReset(t *testing.T) {
	a := New(&fakeProvider{}, Options{})
	_, err := a.ChatWithHistory(context.Background(), "hi")
	require.NoError(t, err)

	a.Reset()
	assert.Empty(t, a.History())
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "  # Deck\n## A\n", want: "# Deck\n## A"},
		{name: "wrapped", input: "```markdown\n# Deck\n```", want: "# Deck"},
		{name: "prose around deck", input: "Here you go:\n```\n# Deck\n## A\n```\nEnjoy!", want: "# Deck\n## A"},
		{name: "prose around code", input: "Run:\n```\nls -la\n```\ndone", want: "Run:\n```\nls -la\n```\ndone"},
		{name: "unclosed fence", input: "```\n# Deck", want: "```\n# Deck"},
		{name: "empty", input: "  ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFence(tt.input))
		})
	}
}
