package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	multipart "github.com/input-output-hk/catalyst-forge-libs/aws/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/fs/billy"
)

// withMockClient routes newOrchestrator to mock for the duration of the test.
func withMockClient(t *testing.T, mock *testutil.MockS3Client) {
	t.Helper()
	orig := newOrchestrator
	newOrchestrator = func(_ context.Context, cfg multipart.Config, opts ...multipart.Option) (*multipart.Orchestrator, error) {
		return multipart.NewWithClient(mock, cfg, opts...)
	}
	t.Cleanup(func() { newOrchestrator = orig })
}

func testViper() *viper.Viper {
	v := viper.New()
	v.Set(keyBucket, "test-bucket")
	v.Set(keyRegion, "us-east-1")
	v.Set(keyLogLevel, "error")
	return v
}

func TestRunUpload_Commit(t *testing.T) {
	mock := &testutil.MockS3Client{}
	withMockClient(t, mock)

	fsys := billy.NewInMemoryFS()
	payload := testutil.GeneratePatternData(12 * testutil.MiB)
	require.NoError(t, fsys.WriteFile("upload/video.bin", payload, 0o644))

	var stdout, stderr bytes.Buffer
	req := uploadRequest{path: "upload/video.bin", progress: true}
	err := runUpload(context.Background(), testViper(), fsys, req, &stdout, &stderr)
	require.NoError(t, err)

	assert.Contains(t, stdout.String(), "location:  https://s3.us-east-1.amazonaws.com/test-bucket/video.bin")
	assert.Contains(t, stdout.String(), "parts:     3")
	assert.Len(t, mock.UploadedParts(), 3)

	inputs := mock.CreateInputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, "video.bin", aws.ToString(inputs[0].Key))
	assert.Equal(t, "application/octet-stream", aws.ToString(inputs[0].ContentType))
}

func TestRunUpload_ExplicitKeyAndMetrics(t *testing.T) {
	mock := &testutil.MockS3Client{}
	withMockClient(t, mock)

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("notes.txt", []byte("hello multipart"), 0o644))

	textfile := filepath.Join(t.TempDir(), "mpupload.prom")
	v := testViper()
	v.Set(keyMetricsTextfile, textfile)

	var stdout, stderr bytes.Buffer
	req := uploadRequest{path: "notes.txt", key: "archive/notes.txt"}
	require.NoError(t, runUpload(context.Background(), v, fsys, req, &stdout, &stderr))

	inputs := mock.CreateInputs()
	require.Len(t, inputs, 1)
	assert.Equal(t, "archive/notes.txt", aws.ToString(inputs[0].Key))
	assert.Contains(t, aws.ToString(inputs[0].ContentType), "text/plain")

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `multipart_upload_sessions_total{status="committed"} 1`)
}

func TestRunUpload_PartFailureAborts(t *testing.T) {
	mock := &testutil.MockS3Client{
		UploadPartFunc: func(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
			return nil, fmt.Errorf("connection reset")
		},
		AbortMultipartUploadFunc: func(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			return nil, fmt.Errorf("abort rejected")
		},
	}
	withMockClient(t, mock)

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("data.bin", []byte("payload"), 0o644))

	var stdout, stderr bytes.Buffer
	err := runUpload(context.Background(), testViper(), fsys, uploadRequest{path: "data.bin"}, &stdout, &stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPartUploadFailed)
	assert.Equal(t, 1, mock.AbortCalls())
	assert.Contains(t, stderr.String(), "may have left parts behind")
	assert.Empty(t, stdout.String())
}

func TestRunUpload_InvalidConfig(t *testing.T) {
	mock := &testutil.MockS3Client{}
	withMockClient(t, mock)

	fsys := billy.NewInMemoryFS()
	require.NoError(t, fsys.WriteFile("data.bin", []byte("payload"), 0o644))

	v := testViper()
	v.Set(keyRegion, "")

	var stdout, stderr bytes.Buffer
	err := runUpload(context.Background(), v, fsys, uploadRequest{path: "data.bin"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, errors.KindInvalidConfig, errors.KindOf(err))
	assert.Zero(t, mock.CreateCalls())
}

func TestProgressBar(t *testing.T) {
	var out bytes.Buffer
	bar := newProgressBar(&out, "object.bin")

	bar.Update(10, 30)
	bar.Update(30, 30)
	bar.Update(20, 30)
	assert.Equal(t, int64(30), bar.Transferred(), "the bar never moves backwards")

	bar.Complete()
	assert.NotEmpty(t, out.String())
}
