package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := NewRegistry()

	r.Submitted("pickup")
	r.Submitted("pickup")
	r.Submitted("urgent")
	r.Failed("upload")
	r.MarkedDone()
	r.AddPurged(3)
	r.AddPurged(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Submissions.WithLabelValues("pickup")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Submissions.WithLabelValues("urgent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Failures.WithLabelValues("upload")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Completed))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Purged))
}

func TestRegistry_NilIsNoop(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.Submitted("pickup")
		r.Failed("validation")
		r.MarkedDone()
		r.AddPurged(2)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.AddPurged(1)

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "printeasy_orders_purged_total 1")
}

type fakeCloudWatch struct {
	input *cloudwatch.PutMetricDataInput
	err   error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.input = params
	return &cloudwatch.PutMetricDataOutput{}, f.err
}

func TestCloudWatchReporter(t *testing.T) {
	client := &fakeCloudWatch{}
	rep := NewCloudWatchReporter(client, "PrintEasy")
	fixed := time.Date(2026, 4, 4, 4, 4, 4, 0, time.UTC)
	rep.nowFunc = func() time.Time { return fixed }

	require.NoError(t, rep.ReportSweep(context.Background(), 4))

	require.NotNil(t, client.input)
	assert.Equal(t, "PrintEasy", *client.input.Namespace)
	require.Len(t, client.input.MetricData, 1)
	d := client.input.MetricData[0]
	assert.Equal(t, "OrdersPurged", *d.MetricName)
	assert.Equal(t, 4.0, *d.Value)
	assert.Equal(t, cwtypes.StandardUnitCount, d.Unit)
	assert.True(t, fixed.Equal(*d.Timestamp))

	client.err = errors.New("denied")
	assert.Error(t, rep.ReportSweep(context.Background(), 0))
}
