// Package multipart uploads a single large object to S3 as a multipart upload.
//
// An Orchestrator owns the full lifecycle of one upload session: it opens the
// session, splits the payload into bounded parts, uploads them, and then either
// commits the assembled object or aborts the session. Every session ends in
// exactly one of two outcomes, committed or aborted, whichever phase fails.
//
// Key features:
//   - Explicit, validated configuration (bucket, region, part size)
//   - Sequential part transfer by default, bounded concurrent transfer on request
//   - Best-effort abort that never masks the error that triggered it
//   - Typed errors carrying the failing phase and part number
//   - Structured logging, progress tracking and metrics hooks
//
// Example usage:
//
//	orch, err := multipart.New(ctx, multipart.Config{
//	    Bucket: "media",
//	    Region: "eu-west-1",
//	})
//	if err != nil {
//	    return err
//	}
//
//	outcome, err := orch.Run(ctx, "videos/intro.mp4", payload)
//	if err != nil {
//	    if n, ok := errors.PartNumberOf(err); ok {
//	        log.Printf("part %d failed", n)
//	    }
//	    return err
//	}
//	fmt.Println(outcome.Location)
package multipart
