package multipart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
)

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{Bucket: "test-bucket", Region: "us-east-1"}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{
			name:   "minimal",
			modify: func(c *Config) {},
		},
		{
			name: "fully populated",
			modify: func(c *Config) {
				c.PartSize = 8 * 1024 * 1024
				c.Concurrency = 4
				c.Endpoint = "http://localhost:4566"
				c.ForcePathStyle = true
				c.ContentType = "application/json"
				c.MaxRetries = 5
				c.AbortTimeout = time.Minute
			},
		},
		{
			name:    "empty bucket",
			modify:  func(c *Config) { c.Bucket = "" },
			wantErr: errors.ErrInvalidBucketName,
		},
		{
			name:    "uppercase bucket",
			modify:  func(c *Config) { c.Bucket = "Test-Bucket" },
			wantErr: errors.ErrInvalidBucketName,
		},
		{
			name:    "empty region",
			modify:  func(c *Config) { c.Region = "" },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "malformed region",
			modify:  func(c *Config) { c.Region = "useast1" },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "part size below minimum",
			modify:  func(c *Config) { c.PartSize = MinPartSize - 1 },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "part size above maximum",
			modify:  func(c *Config) { c.PartSize = MaxPartSize + 1 },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "negative concurrency",
			modify:  func(c *Config) { c.Concurrency = -1 },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "negative retries",
			modify:  func(c *Config) { c.MaxRetries = -1 },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "negative abort timeout",
			modify:  func(c *Config) { c.AbortTimeout = -time.Second },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "relative endpoint",
			modify:  func(c *Config) { c.Endpoint = "localhost:4566" },
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "unsupported endpoint scheme",
			modify:  func(c *Config) { c.Endpoint = "ftp://localhost" },
			wantErr: errors.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, errors.KindInvalidConfig, errors.KindOf(err))
		})
	}
}

func TestConfig_Location(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		key  string
		want string
	}{
		{
			name: "aws",
			cfg:  Config{Bucket: "test-bucket", Region: "eu-west-1"},
			key:  "data/object.bin",
			want: "https://s3.eu-west-1.amazonaws.com/test-bucket/data/object.bin",
		},
		{
			name: "custom endpoint",
			cfg:  Config{Bucket: "test-bucket", Region: "us-east-1", Endpoint: "http://localhost:4566/"},
			key:  "object.bin",
			want: "http://localhost:4566/test-bucket/object.bin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Location(tt.key))
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{Bucket: "test-bucket", Region: "us-east-1"}.withDefaults()

	assert.Equal(t, DefaultPartSize, cfg.PartSize)
	assert.Equal(t, 1, cfg.Concurrency)
	assert.Equal(t, DefaultContentType, cfg.ContentType)
	assert.Equal(t, DefaultAbortTimeout, cfg.AbortTimeout)

	custom := Config{
		Bucket:       "test-bucket",
		Region:       "us-east-1",
		PartSize:     16 * 1024 * 1024,
		Concurrency:  8,
		ContentType:  "text/plain",
		AbortTimeout: time.Second,
	}.withDefaults()

	assert.Equal(t, int64(16*1024*1024), custom.PartSize)
	assert.Equal(t, 8, custom.Concurrency)
	assert.Equal(t, "text/plain", custom.ContentType)
	assert.Equal(t, time.Second, custom.AbortTimeout)
}
