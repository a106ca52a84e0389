package metrics

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/printeasy-orderflow/internal/aws"
)

// CloudWatchReporter pushes the per-sweep purge count as a custom metric.
type CloudWatchReporter struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewCloudWatchReporter publishes under namespace.
func NewCloudWatchReporter(client aws.CloudWatchAPI, namespace string) *CloudWatchReporter {
	return &CloudWatchReporter{client: client, namespace: namespace, nowFunc: time.Now}
}

// ReportSweep publishes OrdersPurged for one sweep, zero included.
func (c *CloudWatchReporter) ReportSweep(ctx context.Context, purged int) error {
	_, err := c.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: sdkaws.String(c.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: sdkaws.String("OrdersPurged"),
				Timestamp:  sdkaws.Time(c.nowFunc()),
				Unit:       cwtypes.StandardUnitCount,
				Value:      sdkaws.Float64(float64(purged)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
