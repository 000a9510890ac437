package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type objectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *awss3.HeadBucketInput, optFns ...func(*awss3.Options)) (*awss3.HeadBucketOutput, error)
}

// Client uploads budget documents to S3 or an S3-compatible store (R2, MinIO).
type Client struct {
	api           objectAPI
	bucket        string
	publicBaseURL string
	skipACL       bool
}

var _ storage.Uploader = (*Client)(nil)

// NewClient loads AWS credentials from the default chain.
func NewClient(ctx context.Context, cfg config.S3Config, logg *logger.Logger) (*Client, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	api := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	client := newWithAPI(api, cfg)
	if _, err := api.HeadBucket(ctx, &awss3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("s3 health check failed: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "bucket", cfg.Bucket), "s3 client initialized")
	}
	return client, nil
}

func newWithAPI(api objectAPI, cfg config.S3Config) *Client {
	return &Client{
		api:           api,
		bucket:        cfg.Bucket,
		publicBaseURL: publicBase(cfg),
		skipACL:       cfg.SkipACL,
	}
}

// publicBase prefers the configured CDN/custom domain, then the endpoint
// (path style), then the regional virtual-hosted URL.
func publicBase(cfg config.S3Config) string {
	if cfg.PublicBaseURL != "" {
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
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

	input := &awss3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	}
	if opts.CacheControl != "" {
		input.CacheControl = aws.String(opts.CacheControl)
	}
	if opts.Public && !c.skipACL {
		input.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return storage.Object{}, fmt.Errorf("s3 put %s: %w", key, err)
	}
	return storage.Object{Key: key, URL: storage.PublicURL(c.publicBaseURL, "", key)}, nil
}
