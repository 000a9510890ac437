package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultMaxBytes = 10 << 20
	defaultTimeout  = 20 * time.Second
)

// File is a downloaded remote object.
type File struct {
	Body        []byte
	ContentType string
}

// Getter downloads remote files such as invoices and photos.
type Getter interface {
	Get(ctx context.Context, url string) (File, error)
}

// Client downloads files over HTTP with a size cap.
type Client struct {
	http     *resty.Client
	maxBytes int64
}

var _ Getter = (*Client)(nil)

func NewClient(maxBytes int64, timeout time.Duration) *Client {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:     resty.New().SetTimeout(timeout),
		maxBytes: maxBytes,
	}
}

// Get fetches url. Responses larger than the cap are rejected.
func (c *Client) Get(ctx context.Context, url string) (File, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return File{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	raw := resp.RawBody()
	defer func() { _ = raw.Close() }()

	if resp.StatusCode() != http.StatusOK {
		return File{}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode())
	}

	body, err := io.ReadAll(io.LimitReader(raw, c.maxBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", url, err)
	}
	if int64(len(body)) > c.maxBytes {
		return File{}, fmt.Errorf("fetch %s: larger than %d bytes", url, c.maxBytes)
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	return File{Body: body, ContentType: contentType}, nil
}
