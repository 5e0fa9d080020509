package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// SMSNotifier posts a short message to an HTTP SMS gateway.
type SMSNotifier struct {
	URL    string
	Token  string
	Client *http.Client
}

func (n *SMSNotifier) Channel() string { return "sms" }

func (n *SMSNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.InspectorPhone == "" {
		return nil
	}
	payload, err := json.Marshal(map[string]string{
		"to":      ev.InspectorPhone,
		"message": ev.Subject(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms gateway: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
