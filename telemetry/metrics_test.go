package telemetry

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.Tick(3.5)
	m.Tick(1.25)
	m.Commit(2)
	m.Violation("quorum-safety")
	m.Violation("quorum-safety")
	m.Clamped(3)
	m.Floored()
	m.Destabilized(0)
	m.Misattached(2)
	m.RunFinished("committed")

	require.Equal(t, 2.0, testutil.ToFloat64(m.TicksTotal))
	require.Equal(t, 1.25, testutil.ToFloat64(m.BusLevel))
	require.Equal(t, 1.0, testutil.ToFloat64(m.CommitsTotal))
	require.Equal(t, 2.0, testutil.ToFloat64(m.ViolationsTotal.WithLabelValues("quorum-safety")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.ClampEvents))
	require.Equal(t, 1.0, testutil.ToFloat64(m.BusFloorEvents))
	require.Equal(t, 0.0, testutil.ToFloat64(m.Destabilizations))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Misattachments))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("committed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.Tick(1)
		m.Commit(1)
		m.Violation("x")
		m.Clamped(1)
		m.Floored()
		m.Destabilized(1)
		m.Misattached(1)
		m.RunFinished("budget_exhausted")
	})
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	require.Error(t, err)
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.Tick(0)

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))
	require.Contains(t, buf.String(), "checkpoint_ticks_total 1")
}
