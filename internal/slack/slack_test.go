package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pep299/meeting-summarizer/internal/summary"
)

func newSlackServer(t *testing.T, reply string, received *ChatPostMessageRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if received != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(received))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewClient(t *testing.T) {
	client := NewClient("xoxb-test", "#meetings")

	require.NotNil(t, client)
	assert.Equal(t, "xoxb-test", client.botToken)
	assert.Equal(t, "#meetings", client.channel)
	assert.Equal(t, defaultAPIURL, client.apiURL)
	assert.NotNil(t, client.httpClient)
	assert.True(t, client.Configured())

	assert.False(t, NewClient("", "#meetings").Configured())
	assert.True(t, NewClient("xoxb-test", "").Configured())

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}

func TestSendSummary(t *testing.T) {
	var received ChatPostMessageRequest
	server := newSlackServer(t, `{"ok":true}`, &received)
	client := NewClient("xoxb-test", "#meetings").WithAPIURL(server.URL)

	env := &summary.Envelope{
		OK:      true,
		Summary: summary.Sanitize(map[string]any{"tldr": "Ship Friday", "decisions": []any{"ship by Friday"}}),
	}

	require.NoError(t, client.SendSummary(context.Background(), env, "standup.pdf", ""))

	assert.Equal(t, "#meetings", received.Channel)
	assert.Equal(t, "Meeting Summarizer", received.Username)
	assert.Contains(t, received.Text, "Ship Friday")
	assert.Contains(t, received.Text, "• ship by Friday")
	assert.Contains(t, received.Text, "standup.pdf")
}

func TestSendSummaryChannelOverride(t *testing.T) {
	var received ChatPostMessageRequest
	server := newSlackServer(t, `{"ok":true}`, &received)
	client := NewClient("xoxb-test", "#meetings").WithAPIURL(server.URL)

	env := &summary.Envelope{OK: true, Summary: summary.Sanitize(nil)}
	require.NoError(t, client.SendSummary(context.Background(), env, "", "#eng-leads"))
	assert.Equal(t, "#eng-leads", received.Channel)
}

func TestSendSummaryWithoutDefaultChannel(t *testing.T) {
	var received ChatPostMessageRequest
	server := newSlackServer(t, `{"ok":true}`, &received)
	client := NewClient("xoxb-test", "").WithAPIURL(server.URL)

	env := &summary.Envelope{OK: true, Summary: summary.Sanitize(nil)}
	require.NoError(t, client.SendSummary(context.Background(), env, "", "#eng-leads"))
	assert.Equal(t, "#eng-leads", received.Channel)
}

func TestSendSummaryAPIError(t *testing.T) {
	server := newSlackServer(t, `{"ok":false,"error":"channel_not_found"}`, nil)
	client := NewClient("xoxb-test", "#missing").WithAPIURL(server.URL)

	err := client.SendSummary(context.Background(), &summary.Envelope{OK: true}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")
}

func TestSendSummaryHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("xoxb-test", "#meetings").WithAPIURL(server.URL)
	err := client.SendSummary(context.Background(), &summary.Envelope{OK: true}, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSendRequiresConfiguration(t *testing.T) {
	env := &summary.Envelope{OK: true}

	err := NewClient("", "#meetings").SendSummary(context.Background(), env, "", "")
	assert.ErrorContains(t, err, "token")

	err = NewClient("xoxb-test", "").SendSummary(context.Background(), env, "", "")
	assert.ErrorContains(t, err, "channel")

	err = NewClient("xoxb-test", "#meetings").SendSummary(context.Background(), nil, "", "")
	assert.Error(t, err)
}
