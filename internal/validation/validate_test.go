package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
)

func TestValidateBucketName(t *testing.T) {
	tests := []struct {
		name      string
		bucket    string
		wantError bool
		errMsg    string
	}{
		{"valid_simple", "my-bucket", false, ""},
		{"valid_with_numbers", "my-bucket123", false, ""},
		{"valid_with_dots", "my.bucket", false, ""},
		{"valid_leading_number", "1bucket", false, ""},
		{"valid_min_length", "abc", false, ""},
		{"valid_max_length", strings.Repeat("a", 63), false, ""},

		{"empty", "", true, "bucket name cannot be empty"},
		{"too_short", "ab", true, "bucket name must be between 3 and 63 characters long"},
		{"too_long", strings.Repeat("a", 64), true, "bucket name must be between 3 and 63 characters long"},
		{"starts_with_hyphen", "-bucket", true, "bucket name cannot start or end with a hyphen or dot"},
		{"ends_with_dot", "bucket.", true, "bucket name cannot start or end with a hyphen or dot"},
		{"contains_uppercase", "MyBucket", true, "bucket name can only contain lowercase letters, numbers, dots, and hyphens"},
		{"contains_underscore", "my_bucket", true, "bucket name can only contain lowercase letters, numbers, dots, and hyphens"},
		{"ip_address", "192.168.1.1", true, "bucket name cannot be formatted as an IP address"},
		{"double_dots", "my..bucket", true, "bucket name cannot contain two adjacent periods or hyphens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBucketName(tt.bucket)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidBucketName))
			assert.Equal(t, errors.KindInvalidConfig, errors.KindOf(err))
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		wantError bool
		errMsg    string
	}{
		{"simple", "video.mp4", false, ""},
		{"nested", "uploads/2025/01/video.mp4", false, ""},
		{"unicode", "uploads/résumé.pdf", false, ""},
		{"max_length", strings.Repeat("k", 1024), false, ""},

		{"empty", "", true, "object key cannot be empty"},
		{"traversal", "../etc/passwd", true, "path traversal"},
		{"embedded_traversal", "a/../../b", true, "path traversal"},
		{"absolute", "/etc/passwd", true, "path traversal"},
		{"windows_absolute", "C:/Windows", true, "path traversal"},
		{"too_long", strings.Repeat("k", 1025), true, "cannot exceed 1024 characters"},
		{"control_char", "file\x00name", true, "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if !tt.wantError {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidObjectKey))
			assert.Equal(t, errors.KindInvalidInput, errors.KindOf(err))
		})
	}
}

func TestValidateRegion(t *testing.T) {
	for _, region := range []string{"us-east-1", "eu-central-2", "ap-southeast-4", "us-gov-west-1"} {
		assert.NoError(t, ValidateRegion(region), region)
	}
	for _, region := range []string{"", "us", "US-EAST-1", "us-east", "eu_west_1"} {
		err := ValidateRegion(region)
		assert.Error(t, err, region)
		assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig), region)
	}
}

func TestValidatePartSize(t *testing.T) {
	const mib = 1024 * 1024
	assert.NoError(t, ValidatePartSize(5*mib, 5*mib, 10*mib))
	assert.NoError(t, ValidatePartSize(10*mib, 5*mib, 10*mib))
	assert.Error(t, ValidatePartSize(5*mib-1, 5*mib, 10*mib))
	assert.Error(t, ValidatePartSize(10*mib+1, 5*mib, 10*mib))
}

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType(""))
	assert.NoError(t, ValidateContentType("video/mp4"))
	assert.NoError(t, ValidateContentType("application/vnd.ms-excel"))
	assert.NoError(t, ValidateContentType("text/plain; charset=utf-8"))
	assert.Error(t, ValidateContentType("not a mime"))
	assert.Error(t, ValidateContentType("/json"))
}
