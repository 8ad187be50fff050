// Package testutil provides test utilities and mocks for multipart uploads.
// This package is internal and should only be used for testing within this module.
package testutil

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/s3api"
)

// UploadedPart records one UploadPart call seen by MockS3Client.
type UploadedPart struct {
	UploadID   string
	PartNumber int32
	Body       []byte
}

// MockS3Client is a mock implementation of the S3API interface for testing.
// Each operation can be customized through its function field. Without one it
// succeeds, issuing "test-upload-id" as the session id and "etag-<n>" as the
// ETag of part n. All calls are recorded and safe for concurrent use.
type MockS3Client struct {
	CreateMultipartUploadFunc   func(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPartFunc              func(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUploadFunc func(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUploadFunc    func(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)

	mu          sync.Mutex
	createCalls []*s3.CreateMultipartUploadInput
	parts       []UploadedPart
	completes   []*s3.CompleteMultipartUploadInput
	aborts      []*s3.AbortMultipartUploadInput
}

// CreateMultipartUpload mocks the S3 CreateMultipartUpload operation.
func (m *MockS3Client) CreateMultipartUpload(
	ctx context.Context,
	params *s3.CreateMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CreateMultipartUploadOutput, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, params)
	m.mu.Unlock()

	if m.CreateMultipartUploadFunc != nil {
		return m.CreateMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CreateMultipartUploadOutput{
		Bucket:   params.Bucket,
		Key:      params.Key,
		UploadId: aws.String("test-upload-id"),
	}, nil
}

// UploadPart mocks the S3 UploadPart operation. The body is drained and
// recorded before the custom function, if any, is invoked.
func (m *MockS3Client) UploadPart(
	ctx context.Context,
	params *s3.UploadPartInput,
	optFns ...func(*s3.Options),
) (*s3.UploadPartOutput, error) {
	var body []byte
	if params.Body != nil {
		data, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = data
	}

	m.mu.Lock()
	m.parts = append(m.parts, UploadedPart{
		UploadID:   aws.ToString(params.UploadId),
		PartNumber: aws.ToInt32(params.PartNumber),
		Body:       body,
	})
	m.mu.Unlock()

	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, params, optFns...)
	}
	return &s3.UploadPartOutput{
		ETag: aws.String(fmt.Sprintf(`"etag-%d"`, aws.ToInt32(params.PartNumber))),
	}, nil
}

// CompleteMultipartUpload mocks the S3 CompleteMultipartUpload operation.
func (m *MockS3Client) CompleteMultipartUpload(
	ctx context.Context,
	params *s3.CompleteMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.CompleteMultipartUploadOutput, error) {
	m.mu.Lock()
	m.completes = append(m.completes, params)
	m.mu.Unlock()

	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.CompleteMultipartUploadOutput{
		Bucket: params.Bucket,
		Key:    params.Key,
		ETag:   aws.String(`"assembled-etag"`),
	}, nil
}

// AbortMultipartUpload mocks the S3 AbortMultipartUpload operation.
func (m *MockS3Client) AbortMultipartUpload(
	ctx context.Context,
	params *s3.AbortMultipartUploadInput,
	optFns ...func(*s3.Options),
) (*s3.AbortMultipartUploadOutput, error) {
	m.mu.Lock()
	m.aborts = append(m.aborts, params)
	m.mu.Unlock()

	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, params, optFns...)
	}
	return &s3.AbortMultipartUploadOutput{}, nil
}

// CreateCalls returns the number of CreateMultipartUpload calls.
func (m *MockS3Client) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.createCalls)
}

// CreateInputs returns every CreateMultipartUpload input in call order.
func (m *MockS3Client) CreateInputs() []*s3.CreateMultipartUploadInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*s3.CreateMultipartUploadInput(nil), m.createCalls...)
}

// UploadedParts returns every UploadPart call in the order it was received.
func (m *MockS3Client) UploadedParts() []UploadedPart {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UploadedPart(nil), m.parts...)
}

// PartNumbers returns the part numbers submitted, in call order.
func (m *MockS3Client) PartNumbers() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	numbers := make([]int32, len(m.parts))
	for i, p := range m.parts {
		numbers[i] = p.PartNumber
	}
	return numbers
}

// CompleteInputs returns every CompleteMultipartUpload input in call order.
func (m *MockS3Client) CompleteInputs() []*s3.CompleteMultipartUploadInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*s3.CompleteMultipartUploadInput(nil), m.completes...)
}

// AbortCalls returns the number of AbortMultipartUpload calls.
func (m *MockS3Client) AbortCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.aborts)
}

// AbortInputs returns every AbortMultipartUpload input in call order.
func (m *MockS3Client) AbortInputs() []*s3.AbortMultipartUploadInput {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*s3.AbortMultipartUploadInput(nil), m.aborts...)
}

// Ensure MockS3Client implements s3api.S3API interface
var _ s3api.S3API = (*MockS3Client)(nil)
