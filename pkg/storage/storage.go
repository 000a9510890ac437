package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType  string
	Public       bool
	CacheControl string
}

// Object is a stored blob and the stable URL it is served from.
type Object struct {
	Key string
	URL string
}

// Uploader writes blobs to durable object storage.
type Uploader interface {
	Put(ctx context.Context, key string, body []byte, opts PutOptions) (Object, error)
}

// JoinKey joins key segments with the configured prefix, skipping blanks.
func JoinKey(prefix string, parts ...string) string {
	clean := make([]string, 0, len(parts)+1)
	if p := strings.Trim(prefix, "/ "); p != "" {
		clean = append(clean, p)
	}
	for _, part := range parts {
		if part = strings.Trim(part, "/ "); part != "" {
			clean = append(clean, part)
		}
	}
	return strings.Join(clean, "/")
}

// PublicURL builds "<base>/<bucket>/<escaped key>" when bucket is set, or
// "<base>/<escaped key>" otherwise (custom domains bound to a bucket).
func PublicURL(base, bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	escaped := strings.Join(segments, "/")
	base = strings.TrimRight(base, "/")
	if bucket == "" {
		return fmt.Sprintf("%s/%s", base, escaped)
	}
	return fmt.Sprintf("%s/%s/%s", base, bucket, escaped)
}
