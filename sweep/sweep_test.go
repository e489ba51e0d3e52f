package sweep

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/rfielding/checkpoint-ctl/kernel"
	"github.com/rfielding/checkpoint-ctl/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func smallConfig() kernel.Config {
	cfg := kernel.DefaultConfig()
	cfg.TotalNodes = 10
	cfg.AttachProbability = 0.2
	cfg.TensionIncrement = 0.25
	cfg.ActivationThreshold = 2
	cfg.DecayRate = 0.3
	cfg.TickBudget = 500
	cfg.ArrestTick = 0
	return cfg
}

func TestSweepCommits(t *testing.T) {
	report, err := Run(context.Background(), smallConfig(), Options{
		Runs:        40,
		FirstSeed:   100,
		Parallelism: 4,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	require.Len(t, report.Runs, 40)
	require.Equal(t, 40, report.Committed)
	require.Equal(t, 1.0, report.CommitRate)
	require.Zero(t, report.Violating)

	for i, r := range report.Runs {
		require.Equal(t, int64(100+i), r.Seed)
		require.Equal(t, kernel.StopCommitted, r.StopReason)
	}
	st := report.CommitTick
	require.Greater(t, st.Mean, 0.0)
	require.LessOrEqual(t, st.Min, st.Median)
	require.LessOrEqual(t, st.Median, st.P95)
	require.LessOrEqual(t, st.P95, st.Max)
}

func TestSweepIsDeterministic(t *testing.T) {
	opts := Options{Runs: 16, FirstSeed: 1, Parallelism: 8}
	a, err := Run(context.Background(), smallConfig(), opts)
	require.NoError(t, err)

	opts.Parallelism = 1
	b, err := Run(context.Background(), smallConfig(), opts)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestSweepCountsViolatingRuns(t *testing.T) {
	cfg := smallConfig()
	cfg.ViolationMode = kernel.FailFast
	cfg.Faults = map[int]kernel.Fault{0: kernel.FaultStuck}

	report, err := Run(context.Background(), cfg, Options{
		Runs: 5,
		SimOptions: func(int64) []kernel.Option {
			return []kernel.Option{kernel.WithPolicy(kernel.ForcedCommitPolicy{AtTick: 2})}
		},
	})
	require.NoError(t, err)
	require.Equal(t, 5, report.Violating)
	for _, r := range report.Runs {
		require.Equal(t, kernel.StopViolation, r.StopReason)
		require.Equal(t, 2, r.Ticks)
	}
}

func TestSweepSharesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := telemetry.New(reg)
	require.NoError(t, err)

	report, err := Run(context.Background(), smallConfig(), Options{Runs: 8, Metrics: m})
	require.NoError(t, err)

	ticks := 0
	for _, r := range report.Runs {
		ticks += r.Ticks
	}
	require.Equal(t, float64(ticks), testutil.ToFloat64(m.TicksTotal))
	require.Equal(t, 8.0, testutil.ToFloat64(m.CommitsTotal))
}

func TestSweepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, smallConfig(), Options{Runs: 10})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	require.Empty(t, report.Runs)
	require.Zero(t, report.CommitRate)
}

func TestSweepRejectsBadInput(t *testing.T) {
	_, err := Run(context.Background(), smallConfig(), Options{})
	require.ErrorIs(t, err, kernel.ErrInvalidConfig)

	cfg := smallConfig()
	cfg.DecayRate = 2
	_, err = Run(context.Background(), cfg, Options{Runs: 1})
	require.ErrorIs(t, err, kernel.ErrInvalidConfig)
}

func TestDescribe(t *testing.T) {
	st := describe([]float64{4, 1, 3, 2})
	require.Equal(t, 2.5, st.Mean)
	require.Equal(t, 1.0, st.Min)
	require.Equal(t, 4.0, st.Max)
	require.Equal(t, 2.0, st.Median)
	require.InDelta(t, 1.29, st.StdDev, 0.01)

	require.Equal(t, Stats{}, describe(nil))
	require.Zero(t, describe([]float64{7}).StdDev)
}
