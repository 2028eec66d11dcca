package telemetry

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsneelabh/spendwise/core"
)

// silence routes the stdout exporter away from the test output.
func silence(t *testing.T) {
	t.Helper()
	old := os.Stdout
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	require.NoError(t, err)
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = old
		devNull.Close()
	})
}

func TestNewOTelProvider_StdoutExporter(t *testing.T) {
	silence(t)

	p, err := NewOTelProvider(core.TelemetryConfig{Enabled: true})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	ctx, span := p.StartSpan(context.Background(), "cart.add")
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.SetAttribute("principal", "u1")
	span.SetAttribute("items", 3)
	span.SetAttribute("total", 3.49)
	span.SetAttribute("confirmed", true)
	span.RecordError(errors.New("boom"))
	span.End()
}

func TestOTelProvider_RecordMetricCachesCounters(t *testing.T) {
	silence(t)

	p, err := NewOTelProvider(core.TelemetryConfig{Enabled: true})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	p.RecordMetric("cart.add", 1, map[string]string{"result": "applied"})
	p.RecordMetric("cart.add", 1, nil)
	p.RecordMetric("cart.budget_suspended", 1, nil)

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Len(t, p.counters, 2)
}
