package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vidrobox-backend/pkg/errors"
	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.resend.com"
	defaultTimeout = 15 * time.Second
	errorBodyLimit = 512
)

// Attachment is a file sent alongside a message. Content is raw bytes; the
// client base64-encodes it on the wire.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Message is one transactional email.
type Message struct {
	To          []string
	Subject     string
	HTML        string
	Text        string
	ReplyTo     string
	Attachments []Attachment
}

// Sender delivers a message and returns the provider id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client talks to a Resend-compatible HTTP email API.
type Client struct {
	http    *resty.Client
	from    string
	replyTo string
}

var _ Sender = (*Client)(nil)

// Option configures optional client behavior.
type Option func(*resty.Client)

// WithHTTPClient swaps the transport, mostly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(r *resty.Client) {
		if client != nil && client.Transport != nil {
			r.SetTransport(client.Transport)
		}
	}
}

// NewClient builds the client from config. It fails when no API key is set;
// callers check cfg.Enabled first.
func NewClient(cfg config.EmailConfig, opts ...Option) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("email api key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	r := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return &Client{http: r, from: cfg.From, replyTo: cfg.ReplyTo}, nil
}

type sendAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type sendRequest struct {
	From        string           `json:"from"`
	To          []string         `json:"to"`
	Subject     string           `json:"subject"`
	HTML        string           `json:"html"`
	Text        string           `json:"text,omitempty"`
	ReplyTo     string           `json:"reply_to,omitempty"`
	Attachments []sendAttachment `json:"attachments,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send posts the message. A 2xx response without an id counts as a failure.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "email client not configured")
	}
	if len(msg.To) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "email recipient is required")
	}

	payload := sendRequest{
		From:    c.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: firstNonEmpty(msg.ReplyTo, c.replyTo),
	}
	for _, att := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, sendAttachment{
			Filename:    att.Filename,
			Content:     base64.StdEncoding.EncodeToString(att.Content),
			ContentType: att.ContentType,
		})
	}

	var out sendResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeEmailFailed, err, "send email request")
	}
	if resp.IsError() {
		body := strings.TrimSpace(resp.String())
		body = truncate(body, errorBodyLimit)
		return "", pkgerrors.Wrap(pkgerrors.CodeEmailFailed, fmt.Errorf("status %d: %s", resp.StatusCode(), body), "email provider rejected message")
	}
	if strings.TrimSpace(out.ID) == "" {
		return "", pkgerrors.New(pkgerrors.CodeEmailFailed, "email provider returned no message id")
	}
	return out.ID, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
