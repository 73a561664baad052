// Package telemetry publishes service metrics to CloudWatch. Recording never
// blocks a request: data points are queued and flushed in batches by Run, or
// explicitly with Flush before a short-lived process exits.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"fairweather/internal/config"
)

// Metric names and dimensions.
const (
	MetricRequestCount    = "RequestCount"
	MetricRequestLatency  = "RequestLatency"
	MetricCacheLookup     = "CacheLookup"
	MetricPrefetchResult  = "PrefetchLocations"
	MetricPrefetchLatency = "PrefetchDuration"

	DimMethod   = "Method"
	DimEndpoint = "Endpoint"
	DimStatus   = "StatusClass"
	DimKind     = "Kind"
	DimResult   = "Result"
)

const (
	// PutMetricData accepts up to 1000 datums; smaller batches keep payloads small.
	maxBatch      = 150
	queueCapacity = 4096
	flushInterval = time.Minute
)

// CloudWatchClient abstracts PutMetricData for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// NewCloudWatchClient builds a client from the AWS section of the config.
// A non-empty endpoint targets LocalStack.
func NewCloudWatchClient(ctx context.Context, cfg config.AWSConfig) (*cloudwatch.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	}), nil
}

// Collector queues metric data points and publishes them in batches.
type Collector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
	queue     chan cwtypes.MetricDatum
	now       func() time.Time

	mu      sync.Mutex
	dropped int
}

func NewCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Collector{
		client:    client,
		namespace: namespace,
		logger:    logger,
		queue:     make(chan cwtypes.MetricDatum, queueCapacity),
		now:       time.Now,
	}
}

// RecordRequest counts one HTTP request and its latency.
func (c *Collector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dim(DimMethod, method),
		dim(DimEndpoint, endpoint),
		dim(DimStatus, statusClass(status)),
	}
	c.enqueue(c.datum(MetricRequestCount, 1, cwtypes.StandardUnitCount, dims...))
	c.enqueue(c.datum(MetricRequestLatency, float64(duration.Milliseconds()), cwtypes.StandardUnitMilliseconds,
		dim(DimEndpoint, endpoint)))
}

// RecordCacheLookup counts a forecast or climate cache hit or miss.
func (c *Collector) RecordCacheLookup(_ context.Context, kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.enqueue(c.datum(MetricCacheLookup, 1, cwtypes.StandardUnitCount, dim(DimKind, kind), dim(DimResult, result)))
}

// RecordPrefetch records the outcome of one prefetch run.
func (c *Collector) RecordPrefetch(_ context.Context, succeeded, failed int, duration time.Duration) {
	c.enqueue(c.datum(MetricPrefetchResult, float64(succeeded), cwtypes.StandardUnitCount, dim(DimResult, "success")))
	c.enqueue(c.datum(MetricPrefetchResult, float64(failed), cwtypes.StandardUnitCount, dim(DimResult, "failed")))
	c.enqueue(c.datum(MetricPrefetchLatency, float64(duration.Milliseconds()), cwtypes.StandardUnitMilliseconds))
}

// Run flushes queued data every interval until ctx is done, then flushes
// whatever is left with a short detached deadline.
func (c *Collector) Run(ctx context.Context) {
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			c.Flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			c.Flush(ctx)
		}
	}
}

// Flush publishes everything queued so far. Publish errors are logged and
// the batch is discarded.
func (c *Collector) Flush(ctx context.Context) {
	batch := make([]cwtypes.MetricDatum, 0, maxBatch)
	for {
		select {
		case d := <-c.queue:
			batch = append(batch, d)
			if len(batch) == maxBatch {
				c.publish(ctx, batch)
				batch = batch[:0]
			}
		default:
			if len(batch) > 0 {
				c.publish(ctx, batch)
			}
			c.reportDropped()
			return
		}
	}
}

// Dropped returns how many data points were discarded because the queue was full.
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

func (c *Collector) publish(ctx context.Context, batch []cwtypes.MetricDatum) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(c.namespace),
		MetricData: append([]cwtypes.MetricDatum(nil), batch...),
	}
	if _, err := c.client.PutMetricData(ctx, input); err != nil {
		c.logger.Error("failed to publish metrics", "error", err.Error(), "datums", len(batch))
	}
}

func (c *Collector) enqueue(d cwtypes.MetricDatum) {
	select {
	case c.queue <- d:
	default:
		c.mu.Lock()
		c.dropped++
		c.mu.Unlock()
	}
}

func (c *Collector) reportDropped() {
	c.mu.Lock()
	n := c.dropped
	c.dropped = 0
	c.mu.Unlock()
	if n > 0 {
		c.logger.Warn("metric queue full, data points dropped", "dropped", n)
	}
}

func (c *Collector) datum(name string, value float64, unit cwtypes.StandardUnit, dims ...cwtypes.Dimension) cwtypes.MetricDatum {
	return cwtypes.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(c.now()),
		Dimensions: dims,
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

// statusClass folds a status code into "2xx".."5xx" to bound cardinality.
func statusClass(status string) string {
	code, err := strconv.Atoi(status)
	if err != nil || code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// Nop discards every metric. Used when ENABLE_METRICS is off.
type Nop struct{}

func (Nop) RecordRequest(_, _, _ string, _ time.Duration)               {}
func (Nop) RecordCacheLookup(_ context.Context, _ string, _ bool)       {}
func (Nop) RecordPrefetch(_ context.Context, _, _ int, _ time.Duration) {}
