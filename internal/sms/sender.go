// Package sms sends customer notifications through the messaging
// provider. Delivery is always best effort: callers log failures and
// carry on.
package sms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Sender interface {
	Send(ctx context.Context, phone, message string) error
	ProviderID() string
}

// Config carries the messaging-service credentials. Empty credentials
// select the demo-mode sender.
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Enabled reports whether real delivery is configured.
func (c Config) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// NewSender returns a Twilio-backed sender, or the demo-mode no-op when
// credentials are absent.
func NewSender(cfg Config) Sender {
	if !cfg.Enabled() {
		return &DemoSender{}
	}
	return NewTwilioSender(cfg)
}

// TwilioSender delivers messages through the Twilio Messages API.
type TwilioSender struct {
	cfg     Config
	baseURL string
	http    *http.Client
}

func NewTwilioSender(cfg Config) *TwilioSender {
	return &TwilioSender{
		cfg:     cfg,
		baseURL: "https://api.twilio.com",
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *TwilioSender) ProviderID() string {
	return "twilio"
}

func (s *TwilioSender) Send(ctx context.Context, phone, message string) error {
	if phone == "" || message == "" {
		return errors.New("phone and message are required")
	}

	form := url.Values{}
	form.Set("To", NormalizePhone(phone))
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", message)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("sms provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// DemoSender logs instead of sending. Used when messaging credentials
// are not configured.
type DemoSender struct{}

func (s *DemoSender) ProviderID() string {
	return "demo"
}

func (s *DemoSender) Send(ctx context.Context, phone, message string) error {
	slog.InfoContext(ctx, "SMS sent (demo mode, messaging not configured)",
		"phone", phone,
		"message", message)
	return nil
}

// NormalizePhone converts local numbers with a leading zero to the
// international +90 form expected by the provider.
func NormalizePhone(phone string) string {
	if strings.HasPrefix(phone, "0") {
		return "+90" + phone[1:]
	}
	return phone
}
