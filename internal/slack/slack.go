package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pep299/meeting-summarizer/internal/report"
	"github.com/pep299/meeting-summarizer/internal/summary"
)

const defaultAPIURL = "https://slack.com/api/chat.postMessage"

// Client handles Slack notifications
type Client struct {
	botToken   string
	channel    string
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a new Slack client
func NewClient(botToken, channel string) *Client {
	return &Client{
		botToken: botToken,
		channel:  channel,
		apiURL:   defaultAPIURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithAPIURL points the client at a different chat.postMessage endpoint
func (c *Client) WithAPIURL(url string) *Client {
	c.apiURL = url
	return c
}

// Configured reports whether a bot token is set. The channel may still come
// from the request.
func (c *Client) Configured() bool {
	return c != nil && c.botToken != ""
}

// ChatPostMessageRequest represents a Slack chat.postMessage request
type ChatPostMessageRequest struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

// SendSummary posts a rendered meeting summary. An empty channel uses the
// client's default.
func (c *Client) SendSummary(ctx context.Context, env *summary.Envelope, source, channel string) error {
	if env == nil {
		return errors.New("envelope is required")
	}
	if channel == "" {
		channel = c.channel
	}
	return c.sendMessage(ctx, report.Slack(env.Summary, source), channel)
}

// sendMessage sends a message to the specified Slack channel
func (c *Client) sendMessage(ctx context.Context, text string, channel string) error {
	if c.botToken == "" {
		return errors.New("slack bot token is not configured")
	}
	if channel == "" {
		return errors.New("slack channel is not configured")
	}

	req := ChatPostMessageRequest{
		Channel:   channel,
		Text:      text,
		Username:  "Meeting Summarizer",
		IconEmoji: ":memo:",
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.botToken)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return nil
}
