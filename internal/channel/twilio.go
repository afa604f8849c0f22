package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobotcho/wacommerce/internal/util"
)

var ErrChannelUnavailable = fmt.Errorf("channel unavailable (breaker open)")

// TwilioChannel talks to a Twilio-compatible WhatsApp API: the classic
// Messages endpoint for sends and the Content API for template lifecycle.
type TwilioChannel struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
	br         *MicroBreaker
}

type TwilioOpts struct {
	BaseURL       string
	AccountSID    string
	AuthToken     string
	FromNumber    string
	Timeout       time.Duration
	FailThreshold int
	OpenFor       time.Duration
}

func NewTwilioChannel(opts TwilioOpts) *TwilioChannel {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = 5
	}
	if opts.OpenFor <= 0 {
		opts.OpenFor = 15 * time.Second
	}

	return &TwilioChannel{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		accountSID: opts.AccountSID,
		authToken:  opts.AuthToken,
		from:       util.WhatsAppAddress(opts.FromNumber),
		client:     &http.Client{Timeout: opts.Timeout},
		br:         NewMicroBreaker(opts.FailThreshold, opts.OpenFor),
	}
}

var _ Channel = (*TwilioChannel)(nil)

type sidResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

func (c *TwilioChannel) SendFreeform(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", util.WhatsAppAddress(to))
	form.Set("Body", body)

	return c.postMessage(ctx, form)
}

func (c *TwilioChannel) SendTemplate(ctx context.Context, to, contentSID string, variables map[string]string) (string, error) {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", util.WhatsAppAddress(to))
	form.Set("ContentSid", contentSID)

	if len(variables) > 0 {
		b, err := json.Marshal(variables)
		if err != nil {
			return "", fmt.Errorf("marshal content variables: %w", err)
		}
		form.Set("ContentVariables", string(b))
	}

	return c.postMessage(ctx, form)
}

func (c *TwilioChannel) postMessage(ctx context.Context, form url.Values) (string, error) {
	path := fmt.Sprintf("/2010-04-01/Accounts/%s/Messages.json", c.accountSID)

	var out sidResponse
	if err := c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()), &out); err != nil {
		return "", err
	}
	return out.SID, nil
}

func (c *TwilioChannel) CreateContent(ctx context.Context, name, body, language string, variables []string) (string, error) {
	text := map[string]any{"body": body}
	if len(variables) > 0 {
		vars := make(map[string]string, len(variables))
		for i, v := range variables {
			vars[fmt.Sprintf("%d", i+1)] = v
		}
		text["variables"] = vars
	}

	payload := map[string]any{
		"friendly_name": name,
		"language":      language,
		"types":         map[string]any{"twilio/text": text},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var out sidResponse
	if err := c.do(ctx, http.MethodPost, "/v1/Content", "application/json", bytes.NewReader(b), &out); err != nil {
		return "", err
	}
	return out.SID, nil
}

func (c *TwilioChannel) SubmitApproval(ctx context.Context, contentSID, name, category string) error {
	payload := map[string]string{
		"name":     name,
		"category": strings.ToLower(category),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/v1/Content/%s/ApprovalRequests/whatsapp", contentSID)
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(b), nil)
}

func (c *TwilioChannel) FetchApprovalStatus(ctx context.Context, contentSID string) (string, error) {
	path := fmt.Sprintf("/v1/Content/%s/ApprovalRequests", contentSID)

	var out struct {
		WhatsApp struct {
			Status string `json:"status"`
		} `json:"whatsapp"`
	}
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return "", err
	}
	return out.WhatsApp.Status, nil
}

func (c *TwilioChannel) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	if !c.br.TryAcquire() {
		return ErrChannelUnavailable
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	res, err := c.client.Do(req)
	if err != nil {
		c.br.OnFailure()
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		c.br.OnFailure()
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("channel %s %s: status=%d body=%s", method, path, res.StatusCode, strings.TrimSpace(string(msg)))
	}

	c.br.OnSuccess()

	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
