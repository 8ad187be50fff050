// Package validation checks upload inputs and configuration before any
// request reaches the storage service.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
)

var (
	regionPattern = regexp.MustCompile(`^[a-z]{2}(-[a-z0-9]+)+-\d+$`)
	mimePattern   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-+.]*\/[a-zA-Z0-9][a-zA-Z0-9\-+.]*(\s*;.*)?$`)
)

// ValidateBucketName validates that a bucket name is DNS-compliant according to AWS S3 rules.
// Returns ErrInvalidBucketName if the bucket name is invalid.
func ValidateBucketName(bucket string) error {
	if err := validateBucketNameBasics(bucket); err != nil {
		return err
	}

	if err := validateBucketNameCharacters(bucket); err != nil {
		return err
	}

	return validateBucketNameStructure(bucket)
}

// ValidateObjectKey validates that an object key is valid according to AWS S3 rules.
// This includes preventing path traversal attacks and ensuring valid characters.
func ValidateObjectKey(key string) error {
	if key == "" {
		return invalidKey(key, "object key cannot be empty")
	}

	if hasPathTraversal(key) {
		return invalidKey(key, "object key cannot contain path traversal sequences")
	}

	// S3 supports keys up to 1024 bytes
	if len(key) > 1024 {
		return invalidKey(key, "object key cannot exceed 1024 characters")
	}

	if hasControlCharacters(key) {
		return invalidKey(key, "object key cannot contain control characters")
	}

	return nil
}

// ValidateRegion checks that region looks like an AWS region identifier (e.g. eu-west-1).
func ValidateRegion(region string) error {
	if region == "" {
		return errors.NewError(errors.KindInvalidConfig, "validateRegion", errors.ErrInvalidConfig).
			WithMessage("region cannot be empty")
	}
	if !regionPattern.MatchString(region) {
		return errors.NewError(errors.KindInvalidConfig, "validateRegion", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("region %q is not a valid region identifier", region))
	}
	return nil
}

// ValidatePartSize checks that partSize lies within [minSize, maxSize].
func ValidatePartSize(partSize, minSize, maxSize int64) error {
	if partSize < minSize || partSize > maxSize {
		return errors.NewError(errors.KindInvalidConfig, "validatePartSize", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("part size %d must be between %d and %d bytes", partSize, minSize, maxSize))
	}
	return nil
}

// ValidateContentType validates that a content type is a well-formed MIME type.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}

	if !mimePattern.MatchString(contentType) {
		return errors.NewError(errors.KindInvalidConfig, "validateContentType", errors.ErrInvalidConfig).
			WithMessage("content type must be a valid MIME type")
	}

	return nil
}

func invalidKey(key, message string) error {
	return errors.NewError(errors.KindInvalidInput, "validateObjectKey", errors.ErrInvalidObjectKey).
		WithKey(key).
		WithMessage(message)
}

func invalidBucket(bucket, message string) error {
	return errors.NewError(errors.KindInvalidConfig, "validateBucketName", errors.ErrInvalidBucketName).
		WithBucket(bucket).
		WithMessage(message)
}

// validateBucketNameBasics validates basic bucket name requirements
func validateBucketNameBasics(bucket string) error {
	if bucket == "" {
		return invalidBucket(bucket, "bucket name cannot be empty")
	}

	if len(bucket) < 3 || len(bucket) > 63 {
		return invalidBucket(bucket, "bucket name must be between 3 and 63 characters long")
	}

	return nil
}

// validateBucketNameCharacters validates allowed characters in bucket names
func validateBucketNameCharacters(bucket string) error {
	for _, char := range bucket {
		if !isValidBucketChar(char) {
			return invalidBucket(bucket, "bucket name can only contain lowercase letters, numbers, dots, and hyphens")
		}
	}

	return nil
}

// validateBucketNameStructure validates bucket name structural requirements
func validateBucketNameStructure(bucket string) error {
	first, last := bucket[0], bucket[len(bucket)-1]
	if first == '-' || first == '.' || last == '-' || last == '.' {
		return invalidBucket(bucket, "bucket name cannot start or end with a hyphen or dot")
	}

	if isIPAddress(bucket) {
		return invalidBucket(bucket, "bucket name cannot be formatted as an IP address")
	}

	if hasAdjacentSpecialChars(bucket) {
		return invalidBucket(bucket, "bucket name cannot contain two adjacent periods or hyphens")
	}

	return nil
}

func isValidBucketChar(char rune) bool {
	return (char >= '0' && char <= '9') || (char >= 'a' && char <= 'z') || char == '.' || char == '-'
}

func hasAdjacentSpecialChars(bucket string) bool {
	for i := 0; i < len(bucket)-1; i++ {
		if (bucket[i] == '.' && bucket[i+1] == '.') || (bucket[i] == '-' && bucket[i+1] == '-') {
			return true
		}
	}
	return false
}

// isIPAddress checks if a string is formatted as an IPv4 address
func isIPAddress(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}

	for _, part := range parts {
		if len(part) == 0 {
			return true
		}
		num := 0
		for _, char := range part {
			if char < '0' || char > '9' {
				return false
			}
			num = num*10 + int(char-'0')
		}
		if num > 255 {
			return false
		}
	}

	return true
}

// hasPathTraversal checks for path traversal attempts in object keys
func hasPathTraversal(key string) bool {
	if strings.Contains(key, "..") {
		return true
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "/") {
		return true
	}

	// Windows-style absolute paths
	if len(cleaned) >= 3 && cleaned[1] == ':' && (cleaned[2] == '\\' || cleaned[2] == '/') {
		return true
	}

	return false
}

func hasControlCharacters(key string) bool {
	for _, char := range key {
		if unicode.IsControl(char) {
			return true
		}
	}
	return false
}
