// Package errors provides the error taxonomy for multipart upload orchestration.
// Every failure surfaced by the orchestrator carries a Kind naming the phase that
// failed, so callers can branch on the kind rather than parse message text.
package errors

// Kind identifies which phase of a multipart upload failed.
// Kinds are string-based for debuggability and natural JSON serialization.
type Kind string

const (
	// Phase failures.

	// KindInitiationFailed indicates the storage service refused to open an upload session.
	// No session exists, so nothing is aborted.
	KindInitiationFailed Kind = "INITIATION_FAILED"

	// KindPartUploadFailed indicates a part could not be transferred.
	// The failing part number is carried on the error.
	KindPartUploadFailed Kind = "PART_UPLOAD_FAILED"

	// KindCompletionFailed indicates the storage service refused to assemble the parts.
	KindCompletionFailed Kind = "COMPLETION_FAILED"

	// KindAbortFailed indicates the storage service failed to discard a session.
	// It is only reported through logs and observers, never returned from Run.
	KindAbortFailed Kind = "ABORT_FAILED"

	// Validation errors.

	// KindInvalidInput indicates the caller supplied an invalid key, payload or part list.
	KindInvalidInput Kind = "INVALID_INPUT"

	// KindInvalidConfig indicates the orchestrator configuration is unusable.
	KindInvalidConfig Kind = "INVALID_CONFIGURATION"

	// KindUnknown indicates an unclassified error.
	KindUnknown Kind = "UNKNOWN"
)

// String returns the kind code.
func (k Kind) String() string {
	return string(k)
}
