package multipart

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/validation"
)

const (
	// DefaultPartSize is the part size used when Config.PartSize is zero.
	DefaultPartSize int64 = 5 * 1024 * 1024

	// MinPartSize is the smallest part S3 accepts for all but the final part.
	MinPartSize int64 = 5 * 1024 * 1024

	// MaxPartSize is the largest part S3 accepts.
	MaxPartSize int64 = 5 * 1024 * 1024 * 1024

	// MaxParts is the maximum number of parts in one upload session.
	MaxParts = 10000

	// DefaultAbortTimeout bounds the abort call issued after a failure.
	DefaultAbortTimeout = 30 * time.Second

	// DefaultContentType is sent when no content type is configured.
	DefaultContentType = "application/octet-stream"
)

// Config holds the destination and tuning parameters for an Orchestrator.
// It is resolved once before any session starts and never modified afterwards.
type Config struct {
	// Bucket is the destination bucket. Required.
	Bucket string

	// Region is the destination region. Required. It is used to build the
	// client and the public location of committed objects.
	Region string

	// PartSize is the size of every part except the last. Zero means DefaultPartSize.
	PartSize int64

	// Concurrency is the number of parts uploaded at once. Zero or one keeps
	// the sequential behavior.
	Concurrency int

	// Endpoint overrides the S3 endpoint for S3-compatible services.
	Endpoint string

	// ForcePathStyle uses path-style addressing instead of virtual-hosted style.
	ForcePathStyle bool

	// ContentType is recorded on the assembled object.
	ContentType string

	// MaxRetries is the SDK retry budget per request. Zero keeps the SDK default.
	MaxRetries int

	// AbortTimeout bounds the abort call. Zero means DefaultAbortTimeout.
	AbortTimeout time.Duration
}

// Validate reports the first problem that makes the configuration unusable.
func (c Config) Validate() error {
	if err := validation.ValidateBucketName(c.Bucket); err != nil {
		return err
	}
	if err := validation.ValidateRegion(c.Region); err != nil {
		return err
	}
	if c.PartSize != 0 {
		if err := validation.ValidatePartSize(c.PartSize, MinPartSize, MaxPartSize); err != nil {
			return err
		}
	}
	if c.Concurrency < 0 {
		return invalidConfig(fmt.Sprintf("concurrency cannot be negative, got %d", c.Concurrency))
	}
	if c.MaxRetries < 0 {
		return invalidConfig(fmt.Sprintf("max retries cannot be negative, got %d", c.MaxRetries))
	}
	if c.AbortTimeout < 0 {
		return invalidConfig(fmt.Sprintf("abort timeout cannot be negative, got %s", c.AbortTimeout))
	}
	if err := validation.ValidateContentType(c.ContentType); err != nil {
		return err
	}
	if c.Endpoint != "" {
		u, err := url.Parse(c.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalidConfig(fmt.Sprintf("endpoint %q must be an absolute http(s) URL", c.Endpoint))
		}
	}
	return nil
}

// Location returns the public location of key once committed. It is derived
// from the configuration alone and needs no request.
func (c Config) Location(key string) string {
	if c.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.Endpoint, "/"), c.Bucket, key)
	}
	return fmt.Sprintf("https://s3.%s.amazonaws.com/%s/%s", c.Region, c.Bucket, key)
}

// withDefaults fills zero values with their defaults.
func (c Config) withDefaults() Config {
	if c.PartSize == 0 {
		c.PartSize = DefaultPartSize
	}
	if c.Concurrency == 0 {
		c.Concurrency = 1
	}
	if c.ContentType == "" {
		c.ContentType = DefaultContentType
	}
	if c.AbortTimeout == 0 {
		c.AbortTimeout = DefaultAbortTimeout
	}
	return c
}

func invalidConfig(message string) error {
	return errors.NewError(errors.KindInvalidConfig, "validateConfig", errors.ErrInvalidConfig).
		WithMessage(message)
}
