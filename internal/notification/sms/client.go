// Package sms sends dispatch alerts over the Twilio messaging API.
package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"crisisnet_backend/platform/config"
	"crisisnet_backend/platform/logger"
	"crisisnet_backend/platform/phone"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// Client is a thin Twilio messaging client. A nil client (unconfigured
// credentials) silently drops sends, so callers never branch on setup.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	http       *http.Client
	log        *logger.Logger
}

// NewClient builds the SMS client, or nil when credentials are absent.
func NewClient(cfg config.SMSConfig, log *logger.Logger) *Client {
	if cfg.GetTwilioAccountSID() == "" || cfg.GetTwilioAuthToken() == "" {
		return nil
	}
	return &Client{
		accountSID: cfg.GetTwilioAccountSID(),
		authToken:  cfg.GetTwilioAuthToken(),
		from:       cfg.GetTwilioFromNumber(),
		baseURL:    twilioAPIBase,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// SendMessage delivers one SMS. Undialable numbers are skipped without
// error; delivery failures are returned for the caller to log.
func (c *Client) SendMessage(ctx context.Context, phoneNumber, message string) error {
	if c == nil {
		return nil
	}
	if !phone.IsDialable(phoneNumber) {
		return nil
	}
	to := phone.NormalizeE164(phoneNumber)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms send failed with status %d: %s", resp.StatusCode, string(body))
	}

	c.log.Info("sms sent", "to", to)
	return nil
}
