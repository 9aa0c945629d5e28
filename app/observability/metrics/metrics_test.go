package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewRecordsOnSDKMeter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "ok")))
	m.LoginRequestsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "invalid_credentials")))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	var found bool
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if md.Name != "auth_login_requests_total" {
			continue
		}
		found = true
		sum, ok := md.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, sum.DataPoints, 2)
	}
	assert.True(t, found)
}

func TestGetAfterInit(t *testing.T) {
	InitAppMetrics()
	assert.NotNil(t, Get())
	assert.Same(t, Get(), Get())
}
