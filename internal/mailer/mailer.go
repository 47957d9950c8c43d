// Package mailer delivers newsletter messages through a mail API.
package mailer

import (
	"context"
	"errors"
	"net/mail"
	"net/url"
)

// APIKeyEnv names the environment variable holding the mail API credential.
const APIKeyEnv = "RESEND_API_KEY"

// Sentinel errors for mail delivery.
var (
	ErrMissingAPIKey = errors.New(APIKeyEnv + " not set")
	ErrSend          = errors.New("failed to send email")
	ErrInvalidInput  = errors.New("invalid message")
)

// Message is one outbound email.
type Message struct {
	From    string
	To      []string
	Subject string
	HTML    string
	ReplyTo string
	Headers map[string]string
	Tags    []Tag
}

// Tag is a provider-side label used for analytics.
type Tag struct {
	Name  string
	Value string
}

// Validate checks the fields every provider requires.
func (m *Message) Validate() error {
	switch {
	case m == nil:
		return ErrInvalidInput
	case m.From == "":
		return errors.Join(ErrInvalidInput, errors.New("missing sender"))
	case len(m.To) == 0:
		return errors.Join(ErrInvalidInput, errors.New("missing recipient"))
	case m.Subject == "":
		return errors.Join(ErrInvalidInput, errors.New("missing subject"))
	}
	return nil
}

// Sender delivers a message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (id string, err error)
}

// HeaderParams are the per-recipient values of the list headers.
type HeaderParams struct {
	Token          string // Unsubscribe token
	Newsletter     string // Issue id, e.g. newsletter-2025-01
	UnsubscribeURL string // One-click endpoint; ?token= is added
	ReplyTo        string // Address for the mailto unsubscribe fallback
	ListID         string // e.g. newsletter.example.com
	FeedbackDomain string
}

// NewsletterHeaders builds the bulk-mail headers: RFC 2369/8058 unsubscribe
// (one-click HTTPS plus mailto), RFC 2919 List-Id and the markers mailbox
// providers use for reputation.
func NewsletterHeaders(p HeaderParams) map[string]string {
	h := map[string]string{
		"List-Unsubscribe-Post": "List-Unsubscribe=One-Click",
		"Precedence":            "bulk",
		"X-Entity-Ref-ID":       p.Newsletter,
		"Auto-Submitted":        "auto-generated",
	}

	var targets []string
	if p.UnsubscribeURL != "" {
		targets = append(targets, "<"+UnsubscribeLink(p.UnsubscribeURL, p.Token)+">")
	}
	if addr := bareAddress(p.ReplyTo); addr != "" {
		targets = append(targets, "<mailto:"+addr+"?subject=Unsubscribe>")
	}
	if len(targets) > 0 {
		h["List-Unsubscribe"] = joinTargets(targets)
	}
	if p.ListID != "" {
		h["List-Id"] = "<" + p.ListID + ">"
	}
	if p.FeedbackDomain != "" {
		h["Feedback-ID"] = "newsletter:" + p.Newsletter + ":" + p.FeedbackDomain
	}
	return h
}

// NewsletterTags labels a message with its issue.
func NewsletterTags(newsletter string) []Tag {
	return []Tag{
		{Name: "newsletter", Value: newsletter},
		{Name: "type", Value: "newsletter"},
	}
}

// UnsubscribeLink adds the token query parameter to base.
func UnsubscribeLink(base, token string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

// bareAddress strips a display name: "Ann <a@example.com>" -> "a@example.com".
func bareAddress(s string) string {
	if s == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(s); err == nil {
		return addr.Address
	}
	return s
}

func joinTargets(targets []string) string {
	out := targets[0]
	for _, t := range targets[1:] {
		out += ", " + t
	}
	return out
}
