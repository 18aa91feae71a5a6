package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const resendBaseURL = "https://api.resend.com"

type EmailClient struct {
	apiKey  string
	from    string
	baseURL string
	httpc   *http.Client
}

func NewEmail(apiKey, from string) *EmailClient {
	return &EmailClient{
		apiKey:  apiKey,
		from:    from,
		baseURL: resendBaseURL,
		httpc:   http.DefaultClient,
	}
}

func (c *EmailClient) Configured() bool { return c.apiKey != "" }

// Send delivers one HTML email. Failures are for the caller to log; they are
// never a reason to fail the request that triggered the email.
func (c *EmailClient) Send(ctx context.Context, to, subject, html string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload := map[string]string{
		"from":    c.from,
		"to":      to,
		"subject": subject,
		"html":    html,
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("email send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("email send: decode response: %w", err)
	}
	return nil
}
