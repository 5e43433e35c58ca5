package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const slackAPIURL = "https://slack.com/api/"

// Slack sends messages through the Slack Web API. The default channel
// is optional; SendToDefaultChannel fails when it was not configured.
type Slack struct {
	botToken       string
	defaultChannel string
	baseURL        string
	http           *http.Client
}

func NewSlack(botToken, defaultChannel string) *Slack {
	return &Slack{
		botToken:       botToken,
		defaultChannel: defaultChannel,
		baseURL:        slackAPIURL,
		http:           &http.Client{Timeout: 30 * time.Second},
	}
}

// SendToChannel posts a message to a channel or conversation ID.
func (s *Slack) SendToChannel(ctx context.Context, channelID, text string) error {
	return s.postMessage(ctx, channelID, text)
}

// SendToDefaultChannel posts to the channel set at construction.
func (s *Slack) SendToDefaultChannel(ctx context.Context, text string) error {
	if s.defaultChannel == "" {
		return errors.New("slack: default channel not configured")
	}
	return s.postMessage(ctx, s.defaultChannel, text)
}

// SendToUser opens (or reuses) a direct-message conversation with the
// user and posts the message there.
func (s *Slack) SendToUser(ctx context.Context, userID, text string) error {
	conversationID, err := s.openConversation(ctx, userID)
	if err != nil {
		return err
	}
	return s.postMessage(ctx, conversationID, text)
}

// --- Slack Web API plumbing ---

type slackResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel struct {
		ID string `json:"id"`
	} `json:"channel"`
}

func (s *Slack) postMessage(ctx context.Context, channelID, text string) error {
	payload := map[string]string{"channel": channelID, "text": text}
	_, err := s.post(ctx, "chat.postMessage", payload)
	return err
}

func (s *Slack) openConversation(ctx context.Context, userID string) (string, error) {
	resp, err := s.post(ctx, "conversations.open", map[string]string{"users": userID})
	if err != nil {
		return "", fmt.Errorf("slack: opening DM with %s: %w", userID, err)
	}
	if resp.Channel.ID == "" {
		return "", fmt.Errorf("slack: conversations.open returned no channel for user %s", userID)
	}
	return resp.Channel.ID, nil
}

// post sends one Web API call. Slack signals failure both via HTTP
// status and via "ok":false in a 200 body, so both are checked.
func (s *Slack) post(ctx context.Context, endpoint string, payload any) (*slackResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack: calling %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("slack: reading %s response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("slack: %s status %d: %s", endpoint, resp.StatusCode, respBody)
	}

	var slackResp slackResponse
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return nil, fmt.Errorf("slack: decoding %s response: %w", endpoint, err)
	}
	if !slackResp.OK {
		return nil, fmt.Errorf("slack: %s failed: %s", endpoint, slackResp.Error)
	}
	return &slackResp, nil
}
