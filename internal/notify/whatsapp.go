// Package notify holds the one-shot outbound senders: a WhatsApp client
// (Twilio message API) and a transactional email client (Resend). Both are
// soft dependencies — missing credentials return ErrNotConfigured and callers
// log and move on rather than failing the enclosing operation.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ErrNotConfigured marks a sender whose credentials are absent.
var ErrNotConfigured = errors.New("notify: not configured")

const twilioBaseURL = "https://api.twilio.com"

type WhatsAppClient struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpc      *http.Client
}

func NewWhatsApp(accountSID, authToken, from string) *WhatsAppClient {
	return &WhatsAppClient{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioBaseURL,
		httpc:      http.DefaultClient,
	}
}

func (c *WhatsAppClient) Configured() bool {
	return c.accountSID != "" && c.authToken != "" && c.from != ""
}

// Send delivers one template message to a phone number. The whatsapp: address
// prefix is added here so callers deal in plain E.164 numbers.
func (c *WhatsAppClient) Send(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	form := url.Values{}
	form.Set("From", whatsAppAddr(c.from))
	form.Set("To", whatsAppAddr(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("whatsapp send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("whatsapp send: decode response: %w", err)
	}
	return nil
}

func whatsAppAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
