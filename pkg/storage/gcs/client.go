package gcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storagev1 "google.golang.org/api/storage/v1"
)

const pingTimeout = 5 * time.Second

// Client uploads budget documents to a Google Cloud Storage bucket.
type Client struct {
	svc           *storagev1.Service
	bucket        string
	publicBaseURL string
}

var _ storage.Uploader = (*Client)(nil)

// NewClient authenticates with inline JSON credentials, a credentials file, or
// application default credentials, in that order.
func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger, extra ...option.ClientOption) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	opts := []option.ClientOption{option.WithScopes(storagev1.DevstorageReadWriteScope)}
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	opts = append(opts, extra...)

	svc, err := storagev1.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs service: %w", err)
	}

	client := &Client{svc: svc, bucket: cfg.BucketName, publicBaseURL: cfg.PublicBaseURL}
	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.BucketName), "gcs client initialized")
	}
	return client, nil
}

// Ping checks the bucket is reachable with the current credentials.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.svc == nil {
		return errors.New("gcs client not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.svc.Buckets.Get(c.bucket).Context(ctx).Do(); err != nil {
		return err
	}
	return nil
}

// Put uploads body under key and returns its public URL.
func (c *Client) Put(ctx context.Context, key string, body []byte, opts storage.PutOptions) (storage.Object, error) {
	if key == "" {
		return storage.Object{}, errors.New("object key is required")
	}
	contentType := opts.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	call := c.svc.Objects.Insert(c.bucket, &storagev1.Object{
		Name:         key,
		ContentType:  contentType,
		CacheControl: opts.CacheControl,
	}).Media(bytes.NewReader(body), googleapi.ContentType(contentType)).Context(ctx)
	if opts.Public {
		call = call.PredefinedAcl("publicRead")
	}

	obj, err := call.Do()
	if err != nil {
		return storage.Object{}, fmt.Errorf("gcs insert %s: %w", key, err)
	}
	return storage.Object{Key: obj.Name, URL: storage.PublicURL(c.publicBaseURL, c.bucket, obj.Name)}, nil
}
