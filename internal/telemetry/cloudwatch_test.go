package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCloudWatchClient records PutMetricData calls for verification.
type mockCloudWatchClient struct {
	mu        sync.Mutex
	calls     []*cloudwatch.PutMetricDataInput
	returnErr error
}

func (m *mockCloudWatchClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, params)
	if m.returnErr != nil {
		return nil, m.returnErr
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (m *mockCloudWatchClient) datums() []cwtypes.MetricDatum {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []cwtypes.MetricDatum
	for _, c := range m.calls {
		out = append(out, c.MetricData...)
	}
	return out
}

func dimension(t *testing.T, d cwtypes.MetricDatum, name string) string {
	t.Helper()
	for _, dm := range d.Dimensions {
		if *dm.Name == name {
			return *dm.Value
		}
	}
	t.Fatalf("dimension %q not found on %s", name, *d.MetricName)
	return ""
}

var at = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

func newTestCollector(cw CloudWatchClient) *Collector {
	c := NewCollector(cw, "Fairweather", nil)
	c.now = func() time.Time { return at }
	return c
}

func TestCollector_RecordRequest(t *testing.T) {
	cw := &mockCloudWatchClient{}
	c := newTestCollector(cw)

	c.RecordRequest("GET", "/v1/activities/{id}", "404", 42*time.Millisecond)
	c.Flush(context.Background())

	require.Len(t, cw.calls, 1)
	assert.Equal(t, "Fairweather", *cw.calls[0].Namespace)

	data := cw.datums()
	require.Len(t, data, 2)
	count, latency := data[0], data[1]
	assert.Equal(t, MetricRequestCount, *count.MetricName)
	assert.Equal(t, 1.0, *count.Value)
	assert.Equal(t, cwtypes.StandardUnitCount, count.Unit)
	assert.Equal(t, "GET", dimension(t, count, DimMethod))
	assert.Equal(t, "/v1/activities/{id}", dimension(t, count, DimEndpoint))
	assert.Equal(t, "4xx", dimension(t, count, DimStatus))
	assert.Equal(t, at, *count.Timestamp)

	assert.Equal(t, MetricRequestLatency, *latency.MetricName)
	assert.Equal(t, 42.0, *latency.Value)
	assert.Equal(t, cwtypes.StandardUnitMilliseconds, latency.Unit)
}

func TestCollector_RecordCacheLookup(t *testing.T) {
	cw := &mockCloudWatchClient{}
	c := newTestCollector(cw)

	c.RecordCacheLookup(context.Background(), "forecast", true)
	c.RecordCacheLookup(context.Background(), "climate", false)
	c.Flush(context.Background())

	data := cw.datums()
	require.Len(t, data, 2)
	assert.Equal(t, "forecast", dimension(t, data[0], DimKind))
	assert.Equal(t, "hit", dimension(t, data[0], DimResult))
	assert.Equal(t, "climate", dimension(t, data[1], DimKind))
	assert.Equal(t, "miss", dimension(t, data[1], DimResult))
}

func TestCollector_RecordPrefetch(t *testing.T) {
	cw := &mockCloudWatchClient{}
	c := newTestCollector(cw)

	c.RecordPrefetch(context.Background(), 7, 1, 3*time.Second)
	c.Flush(context.Background())

	data := cw.datums()
	require.Len(t, data, 3)
	assert.Equal(t, 7.0, *data[0].Value)
	assert.Equal(t, "failed", dimension(t, data[1], DimResult))
	assert.Equal(t, 3000.0, *data[2].Value)
}

func TestCollector_FlushBatches(t *testing.T) {
	cw := &mockCloudWatchClient{}
	c := newTestCollector(cw)

	for i := 0; i < maxBatch+10; i++ {
		c.RecordCacheLookup(context.Background(), "forecast", true)
	}
	c.Flush(context.Background())

	require.Len(t, cw.calls, 2)
	assert.Len(t, cw.calls[0].MetricData, maxBatch)
	assert.Len(t, cw.calls[1].MetricData, 10)
}

func TestCollector_FlushEmptyQueueSendsNothing(t *testing.T) {
	cw := &mockCloudWatchClient{}
	newTestCollector(cw).Flush(context.Background())
	assert.Empty(t, cw.calls)
}

func TestCollector_PublishErrorIsSwallowed(t *testing.T) {
	cw := &mockCloudWatchClient{returnErr: errors.New("throttled")}
	c := newTestCollector(cw)

	c.RecordCacheLookup(context.Background(), "forecast", false)
	assert.NotPanics(t, func() { c.Flush(context.Background()) })
	assert.Len(t, cw.calls, 1)
}

func TestCollector_DropsWhenQueueFull(t *testing.T) {
	cw := &mockCloudWatchClient{}
	c := newTestCollector(cw)

	for i := 0; i < queueCapacity+5; i++ {
		c.RecordCacheLookup(context.Background(), "forecast", true)
	}
	assert.Equal(t, 5, c.Dropped())

	c.Flush(context.Background())
	assert.Equal(t, 0, c.Dropped())
}

func TestCollector_RunFlushesOnShutdown(t *testing.T) {
	cw := &mockCloudWatchClient{}
	c := newTestCollector(cw)
	c.RecordCacheLookup(context.Background(), "forecast", true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Len(t, cw.datums(), 1)
}

func TestStatusClass(t *testing.T) {
	tests := map[string]string{
		"200": "2xx",
		"201": "2xx",
		"302": "3xx",
		"429": "4xx",
		"503": "5xx",
		"abc": "unknown",
		"99":  "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, statusClass(in), in)
	}
}

func TestNopSatisfiesRecorders(t *testing.T) {
	var n Nop
	assert.NotPanics(t, func() {
		n.RecordRequest("GET", "/", "200", time.Millisecond)
		n.RecordCacheLookup(context.Background(), "forecast", true)
		n.RecordPrefetch(context.Background(), 1, 0, time.Second)
	})
}
