// Package openai is a client for the OpenAI Chat Completions API that
// keeps a bounded conversation history. The API is stateless between
// requests, so the client resends the relevant history — system
// directive plus completed user/assistant pairs — on every call, and
// optionally trims the oldest pairs against an estimated token budget.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const defaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Client holds one conversation with the API. All methods that read or
// mutate the conversation serialize on an internal mutex held for the
// full network round trip, so a client supports at most one exchange
// in flight; concurrent callers block. The client performs no retries
// and no internal timeouts — the http.Client's timeout governs.
type Client struct {
	apiKey        string
	model         Model
	endpoint      string
	http          *http.Client
	charsPerToken int

	mu                sync.Mutex
	session           session
	tokenLimitEnabled bool
	maxTokens         int
}

// Option configures a Client at construction.
type Option func(*Client)

// WithModel selects the chat model; default is DefaultModel.
func WithModel(m Model) Option {
	return func(c *Client) { c.model = m }
}

// WithHTTPClient replaces the underlying HTTP client (timeouts,
// transport, proxies are the caller's concern).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithEndpoint overrides the Chat Completions URL. Used for proxies
// and tests.
func WithEndpoint(url string) Option {
	return func(c *Client) { c.endpoint = url }
}

// WithCharsPerToken overrides the chars-per-token ratio used by the
// token budget estimator.
func WithCharsPerToken(n int) Option {
	return func(c *Client) { c.charsPerToken = n }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:        apiKey,
		model:         DefaultModel,
		endpoint:      defaultEndpoint,
		http:          &http.Client{Timeout: 60 * time.Second},
		charsPerToken: defaultCharsPerToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- wire types ---

type chatRequest struct {
	Model    Model     `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

type chatChoice struct {
	Message Message `json:"message"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendPrompt sends a one-off prompt without reading or altering the
// conversation history. Useful for point queries and health checks;
// nothing is stored after the call returns.
func (c *Client) SendPrompt(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.send(ctx, []Message{{Role: RoleUser, Content: prompt}})
}

// SetSystemInstructions sets or replaces the system directive (tone,
// rules, style). It is always sent as the first message of the
// conversation; calling again discards the previous instructions.
func (c *Client) SetSystemInstructions(instructions string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.session.setSystem(instructions)
}

// SendUserMessage sends a user message with the full conversation
// context. The message is appended speculatively, the token limit is
// enforced if enabled, and the snapshot goes to the API. A valid reply
// commits the pair; any failure — transport, API error, malformed
// body — rolls the speculative entry back so only complete pairs ever
// remain in history.
func (c *Client) SendUserMessage(ctx context.Context, message string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	mark := c.session.appendSpeculativeUser(message)

	if c.tokenLimitEnabled {
		c.session.enforceTokenLimit(c.maxTokens, c.charsPerToken)
	}

	reply, err := c.send(ctx, c.session.snapshot())
	if err != nil {
		c.session.rollback(mark)
		return "", err
	}

	c.session.commitAssistant(reply)
	return reply, nil
}

// History returns the current conversation: system instructions (if
// set) followed by every completed user/assistant pair. The slice is a
// copy and can be serialized or persisted by the caller; the client
// itself keeps nothing across process restarts.
func (c *Client) History() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.session.snapshot()
}

// EnableTokenLimit turns on automatic history trimming. Before each
// send, oldest pairs are evicted until the estimated token count of
// the outgoing payload fits maxTokens. The system message is exempt.
func (c *Client) EnableTokenLimit(maxTokens int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokenLimitEnabled = true
	c.maxTokens = maxTokens
}

// DisableTokenLimit turns trimming off; the full history is sent
// regardless of size.
func (c *Client) DisableTokenLimit() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tokenLimitEnabled = false
}

// send posts the message list and extracts the assistant reply from
// the first choice. Callers must hold c.mu.
func (c *Client) send(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Model: c.model, Messages: messages})
	if err != nil {
		return "", fmt.Errorf("openai: marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai: building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai: sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai: reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return "", parseAPIError(resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("openai: unmarshaling response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", ErrMalformedResponse
	}
	return chatResp.Choices[0].Message.Content, nil
}

// parseAPIError builds an APIError from an error body, substituting
// placeholders for whatever the body failed to provide.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Code: unknownCode, Message: unknownMessage}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return apiErr
	}
	if errResp.Error.Code != "" {
		apiErr.Code = errResp.Error.Code
	}
	if errResp.Error.Message != "" {
		apiErr.Message = errResp.Error.Message
	}
	return apiErr
}
