// Package cmd implements the mpupload command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	multipart "github.com/input-output-hk/catalyst-forge-libs/aws/multipart"
)

const envPrefix = "MPUPLOAD"

// Configuration keys shared by flags, environment variables and the config file.
const (
	keyBucket          = "bucket"
	keyRegion          = "region"
	keyPartSize        = "part_size"
	keyConcurrency     = "concurrency"
	keyEndpoint        = "endpoint"
	keyPathStyle       = "path_style"
	keyMaxRetries      = "max_retries"
	keyAbortTimeout    = "abort_timeout"
	keyPartTimeout     = "part_timeout"
	keyLogLevel        = "log_level"
	keyMetricsTextfile = "metrics_textfile"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "mpupload",
	Short:         "mpupload uploads large objects to S3 in parts",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig(viper.GetViper())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// an interrupt cancels the upload; the session is still aborted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./mpupload.yaml)")
	flags.String("bucket", "", "destination bucket (env AWS_BUCKET)")
	flags.String("region", "", "destination region (env AWS_REGION)")
	flags.Int64("part-size", multipart.DefaultPartSize, "part size in bytes")
	flags.Int("concurrency", 1, "number of parts uploaded at once")
	flags.String("endpoint", "", "custom S3 endpoint for S3-compatible services")
	flags.Bool("path-style", false, "use path-style addressing")
	flags.Int("max-retries", 0, "SDK retry budget per request (0 keeps the SDK default)")
	flags.Duration("abort-timeout", multipart.DefaultAbortTimeout, "bound on the abort request issued after a failure")
	flags.Duration("part-timeout", 0, "bound on each part upload (0 disables)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file when the upload ends")

	bindFlags(viper.GetViper(), rootCmd)
}

// bindFlags binds every persistent flag to the viper key of the same name.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for _, key := range []string{
		keyBucket, keyRegion, keyPartSize, keyConcurrency, keyEndpoint, keyPathStyle,
		keyMaxRetries, keyAbortTimeout, keyPartTimeout, keyLogLevel, keyMetricsTextfile,
	} {
		flag := cmd.PersistentFlags().Lookup(strings.ReplaceAll(key, "_", "-"))
		_ = v.BindPFlag(key, flag)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig(v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigType("yaml")
		v.SetConfigName("mpupload")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(keyBucket, envPrefix+"_BUCKET", "AWS_BUCKET")
	_ = v.BindEnv(keyRegion, envPrefix+"_REGION", "AWS_REGION")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// loadConfig builds the orchestrator configuration from the resolved settings.
func loadConfig(v *viper.Viper) (multipart.Config, error) {
	cfg := multipart.Config{
		Bucket:         v.GetString(keyBucket),
		Region:         v.GetString(keyRegion),
		PartSize:       v.GetInt64(keyPartSize),
		Concurrency:    v.GetInt(keyConcurrency),
		Endpoint:       v.GetString(keyEndpoint),
		ForcePathStyle: v.GetBool(keyPathStyle),
		MaxRetries:     v.GetInt(keyMaxRetries),
		AbortTimeout:   v.GetDuration(keyAbortTimeout),
	}
	if err := cfg.Validate(); err != nil {
		return multipart.Config{}, err
	}
	return cfg, nil
}

// newLogger returns a text logger writing to stderr at the configured level.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
