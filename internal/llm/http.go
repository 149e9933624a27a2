package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 5 * time.Minute

// Option configures a provider
type Option func(*transport)

// WithBaseURL points a provider at another endpoint
func WithBaseURL(url string) Option {
	return func(t *transport) {
		if url != "" {
			t.baseURL = url
		}
	}
}

// WithHTTPClient replaces the default client
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) {
		if c != nil {
			t.client = c
		}
	}
}

// WithLogger sets the request logger
func WithLogger(logger *zap.Logger) Option {
	return func(t *transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// transport is the HTTP plumbing shared by every provider
type transport struct {
	name    string
	baseURL string
	headers map[string]string
	client  *http.Client
	logger  *zap.Logger
}

func newTransport(name, baseURL string, headers map[string]string, opts []Option) transport {
	t := transport{
		name:    name,
		baseURL: baseURL,
		headers: headers,
		client:  &http.Client{Timeout: defaultTimeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

func (t transport) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// do sends the request and turns non-2xx replies into an APIError.
// The caller closes the returned body.
func (t transport) do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", t.name, err)
	}

	t.logger.Debug("llm request",
		zap.String("provider", t.name),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &APIError{Provider: t.name, StatusCode: resp.StatusCode, Body: string(body)}
	}
	return resp, nil
}

// postJSON sends payload as JSON and returns the open response
func (t transport) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := t.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return t.do(req)
}

// complete posts payload and decodes the JSON reply into out
func (t transport) complete(ctx context.Context, path string, payload, out any) error {
	resp, err := t.postJSON(ctx, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", t.name, err)
	}
	return nil
}

// ping issues a GET and only checks the status
func (t transport) ping(ctx context.Context, path string) error {
	req, err := t.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	resp, err := t.do(req)
	if err != nil {
		return fmt.Errorf("cannot connect to %s at %s: %w", t.name, t.baseURL, err)
	}
	resp.Body.Close()
	return nil
}

// lineHandler turns one line of a streamed body into an event.
// ok is false for lines that carry nothing.
type lineHandler func(line []byte) (ev StreamEvent, ok bool)

// stream posts payload and feeds each response line through handle until an
// event with Done or Error is produced, the body ends, or ctx is cancelled.
func (t transport) stream(ctx context.Context, path string, payload any, handle lineHandler) (<-chan StreamEvent, error) {
	resp, err := t.postJSON(ctx, path, payload)
	if err != nil {
		return nil, err
	}

	events := make(chan StreamEvent)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		send := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			ev, ok := handle(line)
			if !ok {
				continue
			}
			if !send(ev) || ev.Done || ev.Error != nil {
				return
			}
		}

		if err := scanner.Err(); err != nil {
			send(StreamEvent{Error: err})
			return
		}
		send(StreamEvent{Done: true})
	}()

	return events, nil
}

// sseData strips the "data:" prefix of a server-sent event line
func sseData(line []byte) ([]byte, bool) {
	data, ok := bytes.CutPrefix(line, []byte("data:"))
	if !ok {
		return nil, false
	}
	return bytes.TrimSpace(data), true
}
