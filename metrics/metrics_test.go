package metrics_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	multipart "github.com/input-output-hk/catalyst-forge-libs/aws/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/aws/multipart/metrics"
)

var _ multipart.Observer = (*metrics.UploadMetrics)(nil)

// gather returns the value of every counter in reg keyed by name and label values.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		if mf.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += fmt.Sprintf(",%s=%s", lp.GetName(), lp.GetValue())
			}
			values[name] = m.GetCounter().GetValue()
		}
	}
	return values
}

func TestUploadMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewUploadMetrics(reg)
	assert.Same(t, reg, m.Registry())

	m.ObservePhase(multipart.PhaseInitiate, nil, time.Millisecond)
	m.ObservePhase(multipart.PhaseAbort, fmt.Errorf("boom"), time.Millisecond)
	m.ObservePart(100, nil, time.Millisecond)
	m.ObservePart(50, fmt.Errorf("boom"), time.Millisecond)
	m.ObserveOutcome("aborted")
	m.ObserveAbortFailure(fmt.Errorf("boom"))

	values := gather(t, reg)
	assert.Equal(t, 1.0, values["multipart_upload_phases_total,phase=initiate,result=ok"])
	assert.Equal(t, 1.0, values["multipart_upload_phases_total,phase=abort,result=error"])
	assert.Equal(t, 1.0, values["multipart_upload_parts_total,result=ok"])
	assert.Equal(t, 1.0, values["multipart_upload_parts_total,result=error"])
	assert.Equal(t, 100.0, values["multipart_upload_part_bytes_total,result=ok"])
	assert.Equal(t, 50.0, values["multipart_upload_part_bytes_total,result=error"])
	assert.Equal(t, 1.0, values["multipart_upload_sessions_total,status=aborted"])
	assert.Equal(t, 1.0, values["multipart_upload_abort_failures_total"])
}

func TestUploadMetrics_NilSafe(t *testing.T) {
	var m *metrics.UploadMetrics
	assert.NotPanics(t, func() {
		m.ObservePhase(multipart.PhaseTransfer, nil, time.Second)
		m.ObservePart(1, nil, time.Second)
		m.ObserveOutcome("committed")
		m.ObserveAbortFailure(nil)
	})
}

func TestUploadMetrics_WithOrchestrator(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewUploadMetrics(reg)

	mock := &testutil.MockS3Client{
		AbortMultipartUploadFunc: func(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
			return nil, fmt.Errorf("abort rejected")
		},
		CompleteMultipartUploadFunc: func(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
			return nil, fmt.Errorf("complete rejected")
		},
	}
	o, err := multipart.NewWithClient(mock, multipart.Config{Bucket: "test-bucket", Region: "us-east-1"},
		multipart.WithObserver(m))
	require.NoError(t, err)

	_, err = o.Run(context.Background(), "object.bin", testutil.GeneratePatternData(6*testutil.MiB))
	require.Error(t, err)

	values := gather(t, reg)
	assert.Equal(t, 2.0, values["multipart_upload_parts_total,result=ok"])
	assert.Equal(t, float64(6*testutil.MiB), values["multipart_upload_part_bytes_total,result=ok"])
	assert.Equal(t, 1.0, values["multipart_upload_phases_total,phase=complete,result=error"])
	assert.Equal(t, 1.0, values["multipart_upload_phases_total,phase=abort,result=error"])
	assert.Equal(t, 1.0, values["multipart_upload_sessions_total,status=aborted"])
	assert.Equal(t, 1.0, values["multipart_upload_abort_failures_total"])
}
