package gateway

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"

	"comercia-backend/pkg/api"
)

// Client is the widget side of the remote boundary: three independent JSON
// endpoints with no retries and no timeout beyond the transport default.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string) *Client {
	return &Client{client: resty.New().SetBaseURL(baseURL)}
}

// CreateSession asks the backend to issue a new session id.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var out api.SessionResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(struct{}{}).
		SetResult(&out).
		Post("/session")
	if err != nil {
		return "", fmt.Errorf("session request failed: %w", err)
	}
	if resp.IsError() || out.SessionID == "" {
		return "", fmt.Errorf("session boundary returned %s", resp.Status())
	}
	return out.SessionID, nil
}

// Chat relays one user turn. Any transport or server error is returned as-is;
// the caller owns the apology path.
func (c *Client) Chat(ctx context.Context, req api.ChatRequest) (string, error) {
	var out api.ChatResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		Post("/chat")
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("chat boundary returned %s", resp.Status())
	}
	return out.Response, nil
}

// Transcribe sends an encoded recording and returns the transcript, which
// the backend leaves empty when transcription fails.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	var out api.TranscribeResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(api.TranscribeRequest{Audio: base64.StdEncoding.EncodeToString(audio)}).
		SetResult(&out).
		Post("/transcribe")
	if err != nil {
		return "", fmt.Errorf("transcribe request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcribe boundary returned %s", resp.Status())
	}
	return out.Text, nil
}
