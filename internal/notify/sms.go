package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SmsGateway шлёт сообщения через HTTP-шлюз SMS-провайдера.
type SmsGateway struct {
	url    string
	apiKey string
	sender string
	hc     *http.Client
}

func NewSmsGateway(url, apiKey, sender string) *SmsGateway {
	return &SmsGateway{
		url:    url,
		apiKey: apiKey,
		sender: sender,
		hc:     &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *SmsGateway) Send(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(map[string]string{
		"sender":   g.sender,
		"receiver": to,
		"message":  body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", g.apiKey)

	resp, err := g.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway: %s: %s", resp.Status, string(b))
	}
	return nil
}
