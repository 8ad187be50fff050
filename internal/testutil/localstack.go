package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

// LocalStackContainer wraps a LocalStack container for integration tests.
type LocalStackContainer struct {
	container *localstack.LocalStackContainer
	endpoint  string
	region    string
}

// NewLocalStackContainer starts LocalStack with S3 enabled.
func NewLocalStackContainer(ctx context.Context, t *testing.T) (*LocalStackContainer, error) {
	t.Helper()

	container, err := localstack.Run(ctx,
		"localstack/localstack:latest",
		testcontainers.WithWaitStrategy(
			wait.ForHTTP("/_localstack/health").
				WithPort("4566").
				WithStartupTimeout(2*time.Minute),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start LocalStack container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "4566")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &LocalStackContainer{
		container: container,
		endpoint:  fmt.Sprintf("http://%s:%s", host, port.Port()),
		region:    "us-east-1",
	}, nil
}

// AWSConfig returns AWS configuration with static test credentials.
func (c *LocalStackContainer) AWSConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.region),
		config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     "test",
					SecretAccessKey: "test",
				}, nil
			})),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// GetS3Client returns an S3 client configured to use LocalStack.
func (c *LocalStackContainer) GetS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := c.AWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(c.endpoint)
	}), nil
}

// Endpoint returns the LocalStack endpoint URL.
func (c *LocalStackContainer) Endpoint() string {
	return c.endpoint
}

// Region returns the AWS region used by LocalStack.
func (c *LocalStackContainer) Region() string {
	return c.region
}

// Terminate stops and removes the LocalStack container.
func (c *LocalStackContainer) Terminate(ctx context.Context) error {
	if c.container != nil {
		if err := c.container.Terminate(ctx); err != nil {
			return fmt.Errorf("failed to terminate container: %w", err)
		}
	}
	return nil
}

// SetupLocalStackTest starts LocalStack for a test.
// It returns the container, an S3 client and a cleanup function that should be deferred.
func SetupLocalStackTest(t *testing.T) (*LocalStackContainer, *s3.Client, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := NewLocalStackContainer(ctx, t)
	if err != nil {
		t.Fatalf("Failed to create LocalStack container: %v", err)
	}

	client, err := container.GetS3Client(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("Failed to create S3 client: %v", err)
	}

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate LocalStack container: %v", err)
		}
	}

	return container, client, cleanup
}

// CreateTestBucketInLocalStack creates a test bucket in LocalStack.
func CreateTestBucketInLocalStack(ctx context.Context, client *s3.Client, bucketName string) error {
	_, err := client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// PendingUploads lists the multipart sessions still open in a bucket.
func PendingUploads(ctx context.Context, client *s3.Client, bucketName string) ([]types.MultipartUpload, error) {
	out, err := client.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list multipart uploads: %w", err)
	}
	return out.Uploads, nil
}

// CleanupTestBucketInLocalStack deletes all objects and removes a test bucket.
func CleanupTestBucketInLocalStack(ctx context.Context, client *s3.Client, bucketName string) error {
	listInput := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucketName),
	}

	for {
		listOutput, err := client.ListObjectsV2(ctx, listInput)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		if len(listOutput.Contents) == 0 {
			break
		}

		var objects []types.ObjectIdentifier
		for _, obj := range listOutput.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}

		if _, err := client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(bucketName),
			Delete: &types.Delete{Objects: objects},
		}); err != nil {
			return fmt.Errorf("failed to delete objects: %w", err)
		}

		if !aws.ToBool(listOutput.IsTruncated) {
			break
		}
		listInput.ContinuationToken = listOutput.NextContinuationToken
	}

	_, err := client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete bucket: %w", err)
	}
	return nil
}
