package aws

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	log "github.com/sirupsen/logrus"

	"github.com/yuxishi/zvm-license-report/internal/model"
)

type putMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Publisher pushes the headline licensing figures as CloudWatch custom metrics.
type Publisher struct {
	client    putMetricDataAPI
	namespace string
	log       log.FieldLogger
}

func NewPublisher(ctx context.Context, region, namespace string, logger log.FieldLogger) (*Publisher, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newPublisher(cloudwatch.NewFromConfig(cfg), namespace, logger), nil
}

func newPublisher(client putMetricDataAPI, namespace string, logger log.FieldLogger) *Publisher {
	if namespace == "" {
		namespace = "Zerto/Licensing"
	}
	return &Publisher{client: client, namespace: namespace, log: logger}
}

// Publish sends one datum per headline metric, dimensioned by ZVM host.
func (p *Publisher) Publish(ctx context.Context, zvmURL string, data *model.ZertoData) error {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(p.namespace),
		MetricData: buildMetricData(zvmHost(zvmURL), data),
	}
	if _, err := p.client.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("cloudwatch put metric data: %w", err)
	}
	if p.log != nil {
		p.log.WithFields(log.Fields{
			"namespace": p.namespace,
			"metrics":   len(input.MetricData),
		}).Info("published licensing metrics to CloudWatch")
	}
	return nil
}

func buildMetricData(host string, data *model.ZertoData) []cwtypes.MetricDatum {
	ts := time.Now()
	if t, err := time.Parse(time.RFC3339, data.Metrics.Timestamp); err == nil {
		ts = t
	}
	dims := []cwtypes.Dimension{{Name: aws.String("ZVM"), Value: aws.String(host)}}

	datum := func(name string, value float64, unit cwtypes.StandardUnit) cwtypes.MetricDatum {
		return cwtypes.MetricDatum{
			MetricName: aws.String(name),
			Dimensions: dims,
			Timestamp:  aws.Time(ts),
			Value:      aws.Float64(value),
			Unit:       unit,
		}
	}

	return []cwtypes.MetricDatum{
		datum("UtilizationPercent", data.Metrics.UtilizationPct, cwtypes.StandardUnitPercent),
		datum("RiskScore", float64(data.Metrics.RiskScore), cwtypes.StandardUnitNone),
		datum("ProtectedVMs", float64(data.Consumption.ProtectedVMs), cwtypes.StandardUnitCount),
		datum("EntitledVMs", float64(data.License.EntitledVMs), cwtypes.StandardUnitCount),
		datum("DaysToExpiry", float64(data.License.DaysToExpiry), cwtypes.StandardUnitCount),
		datum("VPGCount", float64(data.Consumption.VPGs), cwtypes.StandardUnitCount),
	}
}

func zvmHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Hostname()
}
