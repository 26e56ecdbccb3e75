// Package notification delivers best-effort push notifications. Nothing in
// here may ever fail a send or roll back a write: failures are logged and
// dropped.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Expo push gateway the mobile client registers with.
const DefaultEndpoint = "https://exp.host/--/api/v2/push/send"

const maxBodyLen = 200

// Push is one notification addressed to a device token.
type Push struct {
	Token    string `json:"token"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body"`
}

// Bridge performs the actual delivery of a push notification.
type Bridge interface {
	Send(ctx context.Context, p Push) error
}

// ExpoBridge posts Expo-format payloads over HTTP.
type ExpoBridge struct {
	endpoint string
	client   *http.Client
}

var _ Bridge = (*ExpoBridge)(nil)

func NewExpoBridge(endpoint string) *ExpoBridge {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &ExpoBridge{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type expoPayload struct {
	To       string `json:"to"`
	Sound    string `json:"sound"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body"`
}

func (b *ExpoBridge) Send(ctx context.Context, p Push) error {
	raw, err := json.Marshal(expoPayload{
		To:       p.Token,
		Sound:    "default",
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Body:     p.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("push gateway returned %s", resp.Status)
	}
	return nil
}

// CleanBody trims the notification body and caps it at 200 characters.
func CleanBody(body string) string {
	trimmed := strings.TrimSpace(body)
	runes := []rune(trimmed)
	if len(runes) > maxBodyLen {
		return string(runes[:maxBodyLen])
	}
	return trimmed
}
