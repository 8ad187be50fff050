package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	multipart "github.com/input-output-hk/catalyst-forge-libs/aws/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/fs"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
)

// newOrchestrator builds the orchestrator for one upload. Tests replace it
// to inject a mock client.
var newOrchestrator = func(ctx context.Context, cfg multipart.Config, opts ...multipart.Option) (*multipart.Orchestrator, error) {
	return multipart.New(ctx, cfg, opts...)
}

// uploadRequest is one invocation of the upload command.
type uploadRequest struct {
	path      string
	key       string
	uniqueKey bool
	progress  bool
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a local file as a multipart object",
	Long: `Upload reads a local file, opens a multipart upload session, sends the file
in parts and commits the object. If any part or the commit fails, the session is
aborted so no parts are left behind.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		unique, _ := cmd.Flags().GetBool("unique-key")
		progress, _ := cmd.Flags().GetBool("progress")

		path, err := sourcePath(args[0])
		if err != nil {
			return err
		}
		req := uploadRequest{
			path:      path,
			key:       key,
			uniqueKey: unique,
			progress:  progress,
		}
		return runUpload(cmd.Context(), viper.GetViper(), billy.NewOSFS("/"), req, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

//nolint:gochecknoinits
func init() {
	uploadCmd.Flags().StringP("key", "k", "", "destination object key (default is the file name)")
	uploadCmd.Flags().Bool("unique-key", false, "derive a unique key <yyyy>/<mm>/<dd>/<uuid>-<name> from the file name")
	uploadCmd.Flags().Bool("progress", true, "show a progress bar")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(
	ctx context.Context,
	v *viper.Viper,
	fsys fs.Filesystem,
	req uploadRequest,
	stdout, stderr io.Writer,
) error {
	logger, err := newLogger(v.GetString(keyLogLevel))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	src, err := readSource(fsys, req.path)
	if err != nil {
		return err
	}
	cfg.ContentType = src.contentType
	key := objectKey(req.key, src.name, req.uniqueKey, time.Now())

	uploadMetrics := metrics.NewUploadMetrics(prometheus.NewRegistry())
	opts := []multipart.Option{
		multipart.WithLogger(logger),
		multipart.WithObserver(uploadMetrics),
		multipart.WithPartTimeout(v.GetDuration(keyPartTimeout)),
	}
	if req.progress {
		opts = append(opts, multipart.WithProgress(newProgressBar(stderr, key)))
	}

	orch, err := newOrchestrator(ctx, cfg, opts...)
	if err != nil {
		return err
	}

	logger.DebugContext(ctx, "starting upload",
		"file", req.path,
		"bucket", cfg.Bucket,
		"key", key,
		"size", len(src.data),
		"content_type", src.contentType)

	outcome, runErr := orch.Run(ctx, key, src.data)
	if textfile := v.GetString(keyMetricsTextfile); textfile != "" {
		if err := prometheus.WriteToTextfile(textfile, uploadMetrics.Registry()); err != nil {
			logger.WarnContext(ctx, "failed to write metrics", "file", textfile, "error", err)
		}
	}
	if runErr != nil {
		if outcome != nil && outcome.AbortErr != nil {
			fmt.Fprintf(stderr, "warning: upload %s may have left parts behind: %v\n", outcome.UploadID, outcome.AbortErr)
		}
		return runErr
	}

	printOutcome(stdout, outcome)
	return nil
}

func printOutcome(w io.Writer, outcome *multipart.Outcome) {
	fmt.Fprintf(w, "location:  %s\n", outcome.Location)
	fmt.Fprintf(w, "bucket:    %s\n", outcome.Bucket)
	fmt.Fprintf(w, "key:       %s\n", outcome.Key)
	fmt.Fprintf(w, "etag:      %s\n", outcome.ETag)
	if outcome.VersionID != "" {
		fmt.Fprintf(w, "version:   %s\n", outcome.VersionID)
	}
	fmt.Fprintf(w, "parts:     %d\n", outcome.Parts)
	fmt.Fprintf(w, "size:      %d\n", outcome.Size)
	fmt.Fprintf(w, "duration:  %s\n", outcome.Duration.Round(time.Millisecond))
}
