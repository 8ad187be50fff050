package multipart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/validation"
)

// Orchestrator drives multipart upload sessions against one bucket.
// It owns at most one live session at a time; upload several objects
// concurrently by using one Orchestrator per object.
type Orchestrator struct {
	s3Client    s3api.S3API
	cfg         Config
	logger      *slog.Logger
	observer    Observer
	progress    ProgressTracker
	partTimeout time.Duration

	// mu guards live
	mu   sync.Mutex
	live *Session
}

// New validates cfg and creates an Orchestrator backed by an S3 client built
// from the default AWS credential chain, or from WithAWSConfig if given.
func New(ctx context.Context, cfg Config, opts ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)

	var awsCfg aws.Config
	if o.awsConfig != nil {
		awsCfg = o.awsConfig.Copy()
	} else {
		var err error
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
		if err != nil {
			return nil, errors.NewError(errors.KindInvalidConfig, "loadAWSConfig", err)
		}
	}
	awsCfg.Region = cfg.Region
	if cfg.MaxRetries > 0 {
		awsCfg.RetryMaxAttempts = cfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if cfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.UsePathStyle = true
		})
	}
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(so *s3.Options) {
			so.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	return newOrchestrator(s3.NewFromConfig(awsCfg, s3Opts...), cfg, o), nil
}

// NewWithClient validates cfg and creates an Orchestrator that uses s3Client.
// This is primarily used for testing and for callers that build their own client.
func NewWithClient(s3Client s3api.S3API, cfg Config, opts ...Option) (*Orchestrator, error) {
	if s3Client == nil {
		return nil, errors.NewError(errors.KindInvalidConfig, "newOrchestrator", errors.ErrInvalidConfig).
			WithMessage("s3 client cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newOrchestrator(s3Client, cfg, applyOptions(opts)), nil
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func newOrchestrator(s3Client s3api.S3API, cfg Config, o *options) *Orchestrator {
	return &Orchestrator{
		s3Client:    s3Client,
		cfg:         cfg.withDefaults(),
		logger:      o.logger,
		observer:    o.observer,
		progress:    o.progress,
		partTimeout: o.partTimeout,
	}
}

// Config returns the effective configuration, defaults included.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Run uploads payload to key and returns the committed outcome.
//
// The upload goes through initiate, transfer and complete. If initiation
// fails, the error is returned with a nil outcome, since no session exists.
// If the transfer or the completion fails, the session is aborted and the
// aborted outcome is returned together with the original error. An abort
// failure never replaces that error.
//
// Errors:
//   - KindInvalidInput: the key is invalid, the payload is empty or needs too many parts
//   - KindInitiationFailed: the session could not be opened
//   - KindPartUploadFailed: a part failed; PartNumberOf reports which one
//   - KindCompletionFailed: the service refused to assemble the parts
func (o *Orchestrator) Run(ctx context.Context, key string, payload []byte) (*Outcome, error) {
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}
	ranges, err := Partition(int64(len(payload)), o.cfg.PartSize)
	if err != nil {
		return nil, asKind(err, errors.KindInvalidInput).WithKey(key)
	}
	if len(ranges) > MaxParts {
		return nil, errors.NewError(errors.KindInvalidInput, "run", errors.ErrInvalidInput).
			WithKey(key).
			WithMessage(fmt.Sprintf("payload needs %d parts, more than the limit of %d", len(ranges), MaxParts))
	}

	session, err := o.Initiate(ctx, key)
	if err != nil {
		return nil, err
	}

	parts, err := o.TransferParts(ctx, session, payload, o.cfg.PartSize)
	if err != nil {
		return o.Abort(ctx, session, err), err
	}

	outcome, err := o.Complete(ctx, session, parts)
	if err != nil {
		return o.Abort(ctx, session, err), err
	}

	return outcome, nil
}

// Initiate opens a new upload session for key in the configured bucket.
// It fails with ErrSessionActive while another session of this orchestrator is live.
func (o *Orchestrator) Initiate(ctx context.Context, key string) (*Session, error) {
	if err := validation.ValidateObjectKey(key); err != nil {
		return nil, err
	}

	session := &Session{
		owner:  o,
		bucket: o.cfg.Bucket,
		key:    key,
		state:  StateInitiating,
	}
	if err := o.claim(session); err != nil {
		return nil, err
	}

	start := time.Now()
	output, err := o.s3Client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(o.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(o.cfg.ContentType),
	})
	if err == nil && (output == nil || aws.ToString(output.UploadId) == "") {
		err = errors.ErrMissingUploadID
	}
	o.observePhase(PhaseInitiate, err, time.Since(start))

	if err != nil {
		o.release(session)
		if o.logger != nil {
			o.logger.ErrorContext(ctx, "failed to initiate multipart upload",
				"bucket", o.cfg.Bucket,
				"key", key,
				"error", err)
		}
		return nil, errors.NewError(errors.KindInitiationFailed, "initiate", err).
			WithBucket(o.cfg.Bucket).
			WithKey(key)
	}

	session.uploadID = aws.ToString(output.UploadId)
	session.started = start
	session.mu.Lock()
	session.state = StateTransferring
	session.mu.Unlock()

	if o.logger != nil {
		o.logger.InfoContext(ctx, "multipart upload initiated",
			"bucket", o.cfg.Bucket,
			"key", key,
			"upload_id", session.uploadID)
	}
	return session, nil
}

// Complete commits the session by assembling parts, which must be numbered
// 1..N in ascending order with no gaps. A failure leaves the session open;
// the caller decides whether to abort it.
func (o *Orchestrator) Complete(ctx context.Context, session *Session, parts []Part) (*Outcome, error) {
	if err := o.checkOwner(session, "complete"); err != nil {
		return nil, err
	}
	if err := validatePartList(parts); err != nil {
		return nil, err.WithBucket(session.bucket).WithKey(session.key).WithUploadID(session.uploadID)
	}
	if state, ok := session.beginComplete(); !ok {
		return nil, sessionClosed("complete", session, state)
	}

	completed := make([]awstypes.CompletedPart, len(parts))
	var size int64
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.Number),
		}
		size += p.Size()
	}

	start := time.Now()
	output, err := o.s3Client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(session.bucket),
		Key:      aws.String(session.key),
		UploadId: aws.String(session.uploadID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	o.observePhase(PhaseComplete, err, time.Since(start))
	if err != nil {
		if o.logger != nil {
			o.logger.ErrorContext(ctx, "failed to complete multipart upload",
				"bucket", session.bucket,
				"key", session.key,
				"upload_id", session.uploadID,
				"error", err)
		}
		return nil, errors.NewError(errors.KindCompletionFailed, "complete", err).
			WithBucket(session.bucket).
			WithKey(session.key).
			WithUploadID(session.uploadID)
	}

	if output == nil {
		output = &s3.CompleteMultipartUploadOutput{}
	}

	outcome := &Outcome{
		Status:    StatusCommitted,
		Bucket:    session.bucket,
		Key:       session.key,
		UploadID:  session.uploadID,
		Location:  o.cfg.Location(session.key),
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Parts:     len(parts),
		Size:      size,
		Duration:  time.Since(session.started),
	}
	session.finish(StateCommitted, outcome)
	o.release(session)

	if o.progress != nil {
		o.progress.Complete()
	}
	if o.observer != nil {
		o.observer.ObserveOutcome(string(StatusCommitted))
	}
	if o.logger != nil {
		o.logger.InfoContext(ctx, "multipart upload committed",
			"bucket", session.bucket,
			"key", session.key,
			"upload_id", session.uploadID,
			"parts", outcome.Parts,
			"size", outcome.Size,
			"location", outcome.Location)
	}
	return outcome, nil
}

// Abort discards the session and every part uploaded to it. cause is the
// failure that led to the abort and is carried on the returned outcome.
//
// Abort is best-effort and never fails. The request runs even if ctx is
// already cancelled, bounded by Config.AbortTimeout. A NoSuchUpload response
// counts as success. Any other failure is logged and reported to the
// Observer. Calling Abort on a session that already reached a terminal state
// sends nothing and returns the existing outcome.
func (o *Orchestrator) Abort(ctx context.Context, session *Session, cause error) *Outcome {
	if session == nil {
		return nil
	}
	if existing := session.Outcome(); existing != nil {
		if o.logger != nil && existing.Status == StatusCommitted {
			o.logger.WarnContext(ctx, "ignoring abort of committed multipart upload",
				"bucket", session.bucket,
				"key", session.key,
				"upload_id", session.uploadID)
		}
		return existing
	}

	abortCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.cfg.AbortTimeout)
	defer cancel()

	start := time.Now()
	_, err := o.s3Client.AbortMultipartUpload(abortCtx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(session.bucket),
		Key:      aws.String(session.key),
		UploadId: aws.String(session.uploadID),
	})
	if errors.IsNoSuchUpload(err) {
		if o.logger != nil {
			o.logger.DebugContext(ctx, "multipart upload already gone",
				"bucket", session.bucket,
				"key", session.key,
				"upload_id", session.uploadID)
		}
		err = nil
	}
	o.observePhase(PhaseAbort, err, time.Since(start))

	var abortErr error
	if err != nil {
		abortErr = errors.NewError(errors.KindAbortFailed, "abort", err).
			WithBucket(session.bucket).
			WithKey(session.key).
			WithUploadID(session.uploadID)
		if o.logger != nil {
			o.logger.WarnContext(ctx, "failed to abort multipart upload",
				"bucket", session.bucket,
				"key", session.key,
				"upload_id", session.uploadID,
				"error", err,
				"cause", cause)
		}
		if o.observer != nil {
			o.observer.ObserveAbortFailure(abortErr)
		}
	}

	parts, size := session.acknowledged()
	outcome := &Outcome{
		Status:   StatusAborted,
		Bucket:   session.bucket,
		Key:      session.key,
		UploadID: session.uploadID,
		Parts:    parts,
		Size:     size,
		Err:      cause,
		AbortErr: abortErr,
		Duration: time.Since(session.started),
	}
	if !session.finish(StateAborted, outcome) {
		return session.Outcome()
	}
	o.release(session)

	if o.progress != nil {
		o.progress.Error(cause)
	}
	if o.observer != nil {
		o.observer.ObserveOutcome(string(StatusAborted))
	}
	if o.logger != nil {
		o.logger.InfoContext(ctx, "multipart upload aborted",
			"bucket", session.bucket,
			"key", session.key,
			"upload_id", session.uploadID,
			"cause", cause)
	}
	return outcome
}

// claim makes session the live session, failing if another one is live.
func (o *Orchestrator) claim(session *Session) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.live != nil {
		return errors.NewError(errors.KindInvalidInput, "initiate", errors.ErrSessionActive).
			WithBucket(o.live.bucket).
			WithKey(o.live.key).
			WithUploadID(o.live.uploadID)
	}
	o.live = session
	return nil
}

func (o *Orchestrator) release(session *Session) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.live == session {
		o.live = nil
	}
}

func (o *Orchestrator) checkOwner(session *Session, op string) error {
	if session == nil || session.owner != o {
		return errors.NewError(errors.KindInvalidInput, op, errors.ErrInvalidInput).
			WithMessage("session was not opened by this orchestrator")
	}
	return nil
}

func (o *Orchestrator) observePhase(phase string, err error, dur time.Duration) {
	if o.observer != nil {
		o.observer.ObservePhase(phase, err, dur)
	}
}

func sessionClosed(op string, session *Session, state State) error {
	return errors.NewError(errors.KindInvalidInput, op, errors.ErrSessionClosed).
		WithBucket(session.bucket).
		WithKey(session.key).
		WithUploadID(session.uploadID).
		WithMessage(fmt.Sprintf("session is %s", state))
}

// validatePartList checks that parts are numbered exactly 1..N, ascending,
// and each carries an integrity tag.
func validatePartList(parts []Part) *errors.Error {
	invalid := func(message string) *errors.Error {
		return errors.NewError(errors.KindCompletionFailed, "complete", errors.ErrInvalidPartList).
			WithMessage(message)
	}
	if len(parts) == 0 {
		return invalid("part list cannot be empty")
	}
	for i, p := range parts {
		if p.Number != int32(i+1) {
			return invalid(fmt.Sprintf("expected part %d at position %d, got part %d", i+1, i, p.Number))
		}
		if p.ETag == "" {
			return invalid(fmt.Sprintf("part %d has no ETag", p.Number))
		}
	}
	return nil
}

// asKind re-tags an *errors.Error produced by a helper with the kind the
// calling operation reports.
func asKind(err error, kind errors.Kind) *errors.Error {
	if e, ok := err.(*errors.Error); ok {
		e.Kind = kind
		return e
	}
	return errors.NewError(kind, "run", err)
}
