package errors

import (
	"errors"
	"fmt"

	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// Error represents a failed multipart upload operation with context about the
// session it belonged to. It wraps the underlying AWS SDK error.
type Error struct {
	// Kind is the failure classification
	Kind Kind

	// Op is the operation that failed (e.g., "initiate", "uploadPart", "complete")
	Op string

	// Bucket is the destination bucket (if applicable)
	Bucket string

	// Key is the destination object key (if applicable)
	Key string

	// UploadID is the session id issued by the storage service (if one was opened)
	UploadID string

	// PartNumber is the 1-based part that failed; zero when not a part failure
	PartNumber int32

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	op := e.Op
	if e.PartNumber > 0 {
		op = fmt.Sprintf("%s part %d", op, e.PartNumber)
	}
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("multipart.%s %s/%s: %v", op, e.Bucket, e.Key, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("multipart.%s object %s: %v", op, e.Key, e.Err)
	}
	return fmt.Sprintf("multipart.%s: %v", op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind, which lets
// errors.Is(err, ErrPartUploadFailed) work without inspecting fields.
func (e *Error) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithUploadID adds session context to an existing error.
func (e *Error) WithUploadID(uploadID string) *Error {
	e.UploadID = uploadID
	return e
}

// WithPartNumber records the part that failed.
func (e *Error) WithPartNumber(partNumber int32) *Error {
	e.PartNumber = partNumber
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error of the given kind for an operation.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Err:  err,
	}
}

// NewPartError creates a part upload failure for the given part number.
func NewPartError(op string, partNumber int32, err error) *Error {
	return NewError(KindPartUploadFailed, op, err).WithPartNumber(partNumber)
}

// Sentinels matched by kind through (*Error).Is.
var (
	// ErrInitiationFailed matches errors of KindInitiationFailed
	ErrInitiationFailed = errors.New("multipart: initiation failed")

	// ErrPartUploadFailed matches errors of KindPartUploadFailed
	ErrPartUploadFailed = errors.New("multipart: part upload failed")

	// ErrCompletionFailed matches errors of KindCompletionFailed
	ErrCompletionFailed = errors.New("multipart: completion failed")

	// ErrAbortFailed matches errors of KindAbortFailed
	ErrAbortFailed = errors.New("multipart: abort failed")
)

var kindSentinels = map[Kind]error{
	KindInitiationFailed: ErrInitiationFailed,
	KindPartUploadFailed: ErrPartUploadFailed,
	KindCompletionFailed: ErrCompletionFailed,
	KindAbortFailed:      ErrAbortFailed,
}

// Sentinel errors for causes the orchestrator detects itself.
var (
	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("multipart: invalid input")

	// ErrInvalidConfig indicates that the configuration is invalid
	ErrInvalidConfig = errors.New("multipart: invalid configuration")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("multipart: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("multipart: invalid object key")

	// ErrSessionActive indicates that the orchestrator already owns a live session
	ErrSessionActive = errors.New("multipart: session already active")

	// ErrSessionClosed indicates that the session already reached a terminal state
	ErrSessionClosed = errors.New("multipart: session closed")

	// ErrInvalidPartList indicates that the part list is empty, has gaps, or is out of order
	ErrInvalidPartList = errors.New("multipart: invalid part list")

	// ErrMissingETag indicates that the service acknowledged a part without an integrity tag
	ErrMissingETag = errors.New("multipart: missing ETag")

	// ErrMissingUploadID indicates that the service opened a session without an id
	ErrMissingUploadID = errors.New("multipart: missing upload id")

	// ErrUploadNotFound indicates that the service has no record of the session
	ErrUploadNotFound = errors.New("multipart: upload not found")
)

// KindOf returns the Kind of the first *Error in err's chain.
// Errors that are not *Error report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// PartNumberOf returns the failing part number carried by err, if any.
func PartNumberOf(err error) (int32, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindPartUploadFailed {
		return e.PartNumber, true
	}
	return 0, false
}

// IsNoSuchUpload reports whether err means the storage service has no record
// of the upload session. Both the modeled S3 error and generic API errors
// carrying the NoSuchUpload code are recognized.
func IsNoSuchUpload(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUploadNotFound) {
		return true
	}

	var notFound *awstypes.NoSuchUpload
	if errors.As(err, &notFound) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchUpload"
	}
	return false
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || KindOf(err) == KindInvalidInput
}
