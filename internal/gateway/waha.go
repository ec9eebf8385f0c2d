package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Syauqi-N/Bot-Saham/internal/bot"
)

// Client sends text messages through a WAHA gateway.
type Client struct {
	BaseURL string
	Session string
	APIKey  string
	HTTP    *http.Client
}

// NewClient creates a WAHA client with a bounded request timeout.
func NewClient(baseURL, session, apiKey string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Session: session,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// SendText delivers text to chatID, appending the attribution footer when
// the message does not already end with it. Delivery is at most once; the
// caller logs and moves on when this fails.
func (c *Client) SendText(chatID, text string) error {
	if text != "" && !strings.HasSuffix(strings.TrimRight(text, " \n"), bot.Footer) {
		text = strings.TrimRight(text, " \n") + "\n\n" + bot.Footer
	}

	payload := map[string]string{
		"chatId":  chatID,
		"text":    text,
		"session": c.Session,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", c.BaseURL+"/api/sendText", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("waha sendText: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
