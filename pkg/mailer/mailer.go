package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/logger"
)

const sendPath = "/v3/mail/send"

// Message is a single transactional email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid sender when an API key is configured, otherwise a
// sender that only logs the message.
func New(cfg config.SendgridConfig, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return &LogSender{logg: logg}
	}
	return NewSendGrid(cfg, &http.Client{Timeout: 10 * time.Second})
}

// SendGrid posts messages to the v3 mail send endpoint.
type SendGrid struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       address
}

type address struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

func NewSendGrid(cfg config.SendgridConfig, httpClient *http.Client) *SendGrid {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.sendgrid.com"
	}
	return &SendGrid{
		httpClient: httpClient,
		baseURL:    base,
		apiKey:     cfg.APIKey,
		from:       address{Email: cfg.DefaultFrom, Name: cfg.FromName},
	}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	payload, err := buildRequest(s.from, msg)
	if err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding sendgrid request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid returned %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}
	return nil
}

// buildRequest puts each recipient in its own personalization so customers
// never see the admin copy address.
func buildRequest(from address, msg Message) (sendRequest, error) {
	if strings.TrimSpace(msg.Subject) == "" {
		return sendRequest{}, errors.New("email subject is required")
	}
	req := sendRequest{From: from, Subject: msg.Subject}
	seen := map[string]struct{}{}
	for _, to := range msg.To {
		email := strings.ToLower(strings.TrimSpace(to))
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		req.Personalizations = append(req.Personalizations, personalization{To: []address{{Email: email}}})
	}
	if len(req.Personalizations) == 0 {
		return sendRequest{}, errors.New("email recipient is required")
	}
	if msg.Text != "" {
		req.Content = append(req.Content, content{Type: "text/plain", Value: msg.Text})
	}
	if msg.HTML != "" {
		req.Content = append(req.Content, content{Type: "text/html", Value: msg.HTML})
	}
	if len(req.Content) == 0 {
		return sendRequest{}, errors.New("email body is required")
	}
	return req, nil
}

// LogSender records messages in the log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		})
		s.logg.Info(ctx, "mailer.skipped_no_provider")
	}
	return nil
}
