package multipart

import (
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// ProgressTracker receives transfer progress for a session.
// Update may be called from several goroutines when parts upload concurrently.
type ProgressTracker interface {
	// Update is called after each acknowledged part
	Update(bytesTransferred, totalBytes int64)

	// Complete is called when the upload is committed
	Complete()

	// Error is called when the upload is aborted
	Error(err error)
}

// Observer receives measurements from the orchestrator. It is the side
// channel through which abort failures are reported.
type Observer interface {
	// ObservePhase records one initiate, transfer, complete or abort phase
	ObservePhase(phase string, err error, dur time.Duration)

	// ObservePart records one part upload attempt
	ObservePart(bytes int64, err error, dur time.Duration)

	// ObserveOutcome records a terminal session status
	ObserveOutcome(status string)

	// ObserveAbortFailure records an abort request the service rejected
	ObserveAbortFailure(err error)
}

// Phase names reported to Observer.ObservePhase.
const (
	PhaseInitiate = "initiate"
	PhaseTransfer = "transfer"
	PhaseComplete = "complete"
	PhaseAbort    = "abort"
)

// options holds optional collaborators for an Orchestrator.
type options struct {
	logger      *slog.Logger
	observer    Observer
	progress    ProgressTracker
	partTimeout time.Duration
	awsConfig   *aws.Config
}

// Option is a functional option for configuring an Orchestrator.
type Option func(*options)

// WithLogger configures the orchestrator with a structured logger.
// If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithObserver reports phase, part and outcome measurements to observer.
func WithObserver(observer Observer) Option {
	return func(o *options) {
		o.observer = observer
	}
}

// WithProgress sets a progress tracker for uploads.
func WithProgress(tracker ProgressTracker) Option {
	return func(o *options) {
		o.progress = tracker
	}
}

// WithPartTimeout bounds each part upload. A part that exceeds it fails like
// any other part: the session is aborted and the timeout is returned.
func WithPartTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.partTimeout = timeout
		}
	}
}

// WithAWSConfig provides the AWS configuration used by New instead of
// loading the default credential chain.
func WithAWSConfig(cfg *aws.Config) Option {
	return func(o *options) {
		o.awsConfig = cfg
	}
}
