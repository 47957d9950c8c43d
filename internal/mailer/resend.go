package mailer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers messages through the Resend API.
type ResendSender struct {
	client *resend.Client
}

// ResendOption configures a ResendSender.
type ResendOption func(*resendConfig)

type resendConfig struct {
	httpClient *http.Client
	baseURL    string
}

// WithHTTPClient sets the client used for API calls.
func WithHTTPClient(c *http.Client) ResendOption {
	return func(cfg *resendConfig) {
		cfg.httpClient = c
	}
}

// WithBaseURL points the sender at another API endpoint.
func WithBaseURL(u string) ResendOption {
	return func(cfg *resendConfig) {
		cfg.baseURL = u
	}
}

// NewResendSender creates a sender for apiKey. Returns ErrMissingAPIKey
// when the key is empty.
func NewResendSender(apiKey string, opts ...ResendOption) (*ResendSender, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := resendConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var client *resend.Client
	if cfg.httpClient != nil {
		client = resend.NewCustomClient(cfg.httpClient, apiKey)
	} else {
		client = resend.NewClient(apiKey)
	}

	if cfg.baseURL != "" {
		u, err := url.Parse(cfg.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		if u.Path == "" || u.Path[len(u.Path)-1] != '/' {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	return &ResendSender{client: client}, nil
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		ReplyTo: msg.ReplyTo,
		Headers: msg.Headers,
	}
	for _, t := range msg.Tags {
		req.Tags = append(req.Tags, resend.Tag{Name: t.Name, Value: t.Value})
	}

	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSend, err)
	}
	return sent.Id, nil
}

// Compile-time interface check.
var _ Sender = (*ResendSender)(nil)
