package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMessages struct {
	recent []model.Message
	err    error
}

func (f *fakeMessages) Insert(ctx context.Context, m model.Message) error { return nil }

func (f *fakeMessages) ListRecent(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	return f.recent, f.err
}

func (f *fakeMessages) InsertAILog(ctx context.Context, l model.AILog) error { return nil }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

func newTestClient(t *testing.T, msgs *fakeMessages, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOpts{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "openai/gpt-4o-mini",
	}, msgs)
}

func TestGenerateBuildsHistory(t *testing.T) {
	var got chatRequest
	msgs := &fakeMessages{recent: []model.Message{
		{Role: model.RoleCustomer, Content: "Bonjour"},
		{Role: model.RoleAgent, Content: "Bonjour, comment puis-je vous aider ?"},
	}}
	c := newTestClient(t, msgs, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Oui, en stock. "}}]}`))
	})

	reply, err := c.Generate(context.Background(), "Avez-vous ce sac ?", "conv-1")
	require.NoError(t, err)
	assert.Equal(t, "Oui, en stock.", reply)

	// system prompt + 2 history turns + current message
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "Avez-vous ce sac ?", got.Messages[3].Content)
}

func TestGenerateErrorStatus(t *testing.T) {
	c := newTestClient(t, &fakeMessages{}, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	})

	_, err := c.Generate(context.Background(), "hello", "conv-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestGenerateNoChoices(t *testing.T) {
	c := newTestClient(t, &fakeMessages{}, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Generate(context.Background(), "hello", "conv-1")
	assert.Error(t, err)
}
