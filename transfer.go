package multipart

import (
	"bytes"
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
)

// TransferParts uploads payload to the session in parts of partSize bytes and
// returns the acknowledged parts ordered by part number.
//
// With Config.Concurrency of one, parts go out strictly in order and part i+1
// is not sent until part i is acknowledged. With higher concurrency, up to
// that many parts are in flight; the first failure cancels the rest.
// Either way, a failing part k is reported as KindPartUploadFailed with part
// number k. The parts acknowledged before it stay recorded on the session,
// but the list is incomplete and must not be passed to Complete.
//
// A session accepts a single transfer.
func (o *Orchestrator) TransferParts(
	ctx context.Context,
	session *Session,
	payload []byte,
	partSize int64,
) ([]Part, error) {
	if err := o.checkOwner(session, "transferParts"); err != nil {
		return nil, err
	}
	ranges, err := Partition(int64(len(payload)), partSize)
	if err != nil {
		return nil, err
	}
	if len(ranges) > MaxParts {
		return nil, errors.NewError(errors.KindInvalidInput, "transferParts", errors.ErrInvalidInput).
			WithKey(session.key).
			WithMessage(fmt.Sprintf("payload needs %d parts, more than the limit of %d", len(ranges), MaxParts))
	}
	if state, ok := session.beginTransfer(); !ok {
		if state == StateTransferring {
			return nil, errors.NewError(errors.KindInvalidInput, "transferParts", errors.ErrInvalidInput).
				WithKey(session.key).
				WithUploadID(session.uploadID).
				WithMessage("parts were already transferred for this session")
		}
		return nil, sessionClosed("transferParts", session, state)
	}

	t := &transfer{
		orch:    o,
		session: session,
		payload: payload,
		total:   int64(len(payload)),
	}

	start := time.Now()
	if o.cfg.Concurrency > 1 {
		err = t.concurrent(ctx, ranges, o.cfg.Concurrency)
	} else {
		err = t.sequential(ctx, ranges)
	}
	if err == nil {
		err = t.verify(ctx, len(ranges))
	}
	o.observePhase(PhaseTransfer, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.InfoContext(ctx, "multipart parts transferred",
			"bucket", session.bucket,
			"key", session.key,
			"upload_id", session.uploadID,
			"parts", len(ranges),
			"size", t.total)
	}
	return session.Parts(), nil
}

// transfer carries the state of one TransferParts call.
type transfer struct {
	orch        *Orchestrator
	session     *Session
	payload     []byte
	total       int64
	transferred atomic.Int64
}

func (t *transfer) sequential(ctx context.Context, ranges []Range) error {
	for i, r := range ranges {
		if err := t.upload(ctx, int32(i+1), r); err != nil {
			return err
		}
	}
	return nil
}

// concurrent uploads parts through a bounded worker group. Parts are
// scheduled in ascending order and scheduling stops at the first failure.
func (t *transfer) concurrent(ctx context.Context, ranges []Range, limit int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, r := range ranges {
		if gctx.Err() != nil {
			break
		}
		number := int32(i + 1)
		g.Go(func() error {
			// a slot may free up only because another part failed
			if err := gctx.Err(); err != nil {
				return t.partError(number, err)
			}
			return t.upload(gctx, number, r)
		})
	}
	return g.Wait()
}

// verify fails with the first part the service never acknowledged. A
// cancelled context can stop scheduling without any worker reporting an
// error, so a nil result from the workers alone does not mean every part
// went out.
func (t *transfer) verify(ctx context.Context, count int) error {
	parts := t.session.Parts()
	if len(parts) == count {
		return nil
	}

	missing := int32(len(parts) + 1)
	for i, p := range parts {
		if p.Number != int32(i+1) {
			missing = int32(i + 1)
			break
		}
	}

	cause := ctx.Err()
	if cause == nil {
		cause = fmt.Errorf("%d of %d parts acknowledged", len(parts), count)
	}
	return t.partError(missing, cause)
}

func (t *transfer) partError(number int32, err error) error {
	return errors.NewPartError("uploadPart", number, err).
		WithBucket(t.session.bucket).
		WithKey(t.session.key).
		WithUploadID(t.session.uploadID)
}

func (t *transfer) upload(ctx context.Context, number int32, r Range) error {
	part, err := t.orch.uploadPart(ctx, t.session, number, r, t.payload[r.Start:r.End+1])
	if err != nil {
		return err
	}
	t.session.recordPart(part)

	done := t.transferred.Add(part.Size())
	if t.orch.progress != nil {
		t.orch.progress.Update(done, t.total)
	}
	return nil
}

// uploadPart sends one part and returns its descriptor carrying the ETag the
// service returned.
func (o *Orchestrator) uploadPart(
	ctx context.Context,
	session *Session,
	number int32,
	r Range,
	body []byte,
) (Part, error) {
	if o.partTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.partTimeout)
		defer cancel()
	}

	start := time.Now()
	output, err := o.s3Client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(session.bucket),
		Key:           aws.String(session.key),
		UploadId:      aws.String(session.uploadID),
		PartNumber:    aws.Int32(number),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err == nil && (output == nil || aws.ToString(output.ETag) == "") {
		err = errors.ErrMissingETag
	}
	if o.observer != nil {
		o.observer.ObservePart(int64(len(body)), err, time.Since(start))
	}

	if err != nil {
		if o.logger != nil {
			o.logger.ErrorContext(ctx, "failed to upload part",
				"bucket", session.bucket,
				"key", session.key,
				"upload_id", session.uploadID,
				"part", number,
				"error", err)
		}
		return Part{}, errors.NewPartError("uploadPart", number, err).
			WithBucket(session.bucket).
			WithKey(session.key).
			WithUploadID(session.uploadID)
	}

	if o.logger != nil {
		o.logger.DebugContext(ctx, "part uploaded",
			"upload_id", session.uploadID,
			"part", number,
			"size", len(body))
	}
	return Part{
		Number: number,
		Range:  r,
		ETag:   aws.ToString(output.ETag),
	}, nil
}
