package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/repository"
)

const systemPrompt = `Tu es le 'Concierge Bobotcho', assistant d'une marque ivoirienne de luxe accessible.
Ton ton est poli, chaleureux et expert; utilise toujours le vouvoiement et réponds en français.
Sois bref. N'invente jamais de caractéristiques techniques ou de prix.`

type ClientOpts struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxHistory int
}

// Client calls an OpenAI-compatible chat-completions endpoint, feeding it
// the recent conversation history as context.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxHistory int
	http       *http.Client
	messages   repository.MessagesRepository
}

func NewClient(opts ClientOpts, messages repository.MessagesRepository) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = 10
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		model:      opts.Model,
		maxHistory: opts.MaxHistory,
		http:       &http.Client{Timeout: opts.Timeout},
		messages:   messages,
	}
}

var _ Generator = (*Client)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (c *Client) Generate(ctx context.Context, message, conversationID string) (string, error) {
	msgs := []chatMessage{{Role: "system", Content: systemPrompt}}

	history, err := c.messages.ListRecent(ctx, conversationID, c.maxHistory)
	if err == nil {
		for _, m := range history {
			role := "assistant"
			if m.Role == model.RoleCustomer {
				role = "user"
			}
			msgs = append(msgs, chatMessage{Role: role, Content: m.Content})
		}
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: message})

	payload := map[string]any{
		"model":       c.model,
		"messages":    msgs,
		"temperature": 0.7,
		"max_tokens":  500,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return "", fmt.Errorf("llm status=%d body=%s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}
