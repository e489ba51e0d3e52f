// Package sweep runs many independent simulations of one configuration
// across a range of seeds and summarizes the outcome distribution.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/rfielding/checkpoint-ctl/kernel"
	"github.com/rfielding/checkpoint-ctl/telemetry"
)

const tracerName = "github.com/rfielding/checkpoint-ctl/sweep"

// Options controls a sweep.
type Options struct {
	// Runs is the number of simulations; run i uses seed FirstSeed+i.
	Runs      int
	FirstSeed int64
	// Parallelism bounds concurrent simulations (default GOMAXPROCS).
	Parallelism int

	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	// SimOptions builds the per-run simulation options. It is called once per
	// run so stateful policies or risk models are never shared.
	SimOptions func(seed int64) []kernel.Option
}

// RunSummary is the outcome of one simulation in a sweep.
type RunSummary struct {
	Seed       int64             `json:"seed"`
	StopReason kernel.StopReason `json:"stop_reason"`
	Committed  bool              `json:"committed"`
	CommitTick int               `json:"commit_tick,omitempty"`
	Ticks      int               `json:"ticks"`
	Violations int               `json:"violations"`
	ArrestedAt int               `json:"arrested_at,omitempty"`
}

// Stats summarizes the commit tick distribution of the committed runs.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P95    float64 `json:"p95"`
	Max    float64 `json:"max"`
}

// Report aggregates a sweep. Runs are ordered by seed.
type Report struct {
	Runs       []RunSummary `json:"runs"`
	Committed  int          `json:"committed"`
	Violating  int          `json:"violating"`
	Arrested   int          `json:"arrested"`
	CommitRate float64      `json:"commit_rate"`
	CommitTick Stats        `json:"commit_tick"`
}

// Run executes the sweep. Each simulation owns its own state; they share
// only the logger and metrics, both safe for concurrent use. A fail_fast
// stop counts as a violating run, not as a sweep failure.
//
// If ctx is canceled, runs not yet started are skipped and Run returns the
// report over the finished runs together with ctx.Err().
func Run(ctx context.Context, base kernel.Config, o Options) (*Report, error) {
	if o.Runs <= 0 {
		return nil, fmt.Errorf("%w: runs must be positive, got %d", kernel.ErrInvalidConfig, o.Runs)
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}
	limit := o.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "sweep.Run",
		trace.WithAttributes(
			attribute.Int("runs", o.Runs),
			attribute.Int64("first_seed", o.FirstSeed),
			attribute.Int("nodes", base.TotalNodes),
		),
	)
	defer span.End()

	log.Info("sweep start",
		zap.Int("runs", o.Runs),
		zap.Int64("first_seed", o.FirstSeed),
		zap.Int("parallelism", limit),
	)

	runs := make([]RunSummary, o.Runs)
	done := make([]bool, o.Runs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := 0; i < o.Runs; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			sum, err := runOne(gctx, base, o, o.FirstSeed+int64(i))
			if err != nil {
				return err
			}
			if sum.StopReason == kernel.StopCanceled {
				return nil
			}
			runs[i] = sum
			done[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "sweep failed")
		return nil, err
	}

	finished := make([]RunSummary, 0, o.Runs)
	for i, ok := range done {
		if ok {
			finished = append(finished, runs[i])
		}
	}
	report := summarize(finished)

	span.SetAttributes(
		attribute.Int("committed", report.Committed),
		attribute.Int("violating", report.Violating),
	)
	log.Info("sweep finished",
		zap.Int("finished", len(finished)),
		zap.Int("committed", report.Committed),
		zap.Int("violating", report.Violating),
		zap.Float64("commit_rate", report.CommitRate),
		zap.Float64("mean_commit_tick", report.CommitTick.Mean),
	)

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "canceled")
		return report, err
	}
	return report, nil
}

func runOne(ctx context.Context, base kernel.Config, o Options, seed int64) (RunSummary, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "sweep.Simulation",
		trace.WithAttributes(attribute.Int64("seed", seed)),
	)
	defer span.End()

	cfg := base
	cfg.Seed = seed

	opts := []kernel.Option{kernel.WithMetrics(o.Metrics)}
	if o.Logger != nil {
		opts = append(opts, kernel.WithLogger(o.Logger))
	}
	if o.SimOptions != nil {
		opts = append(opts, o.SimOptions(seed)...)
	}

	sim, err := kernel.NewSimulation(cfg, opts...)
	if err != nil {
		span.RecordError(err)
		return RunSummary{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	res, err := sim.Run(ctx)
	if err != nil && !errors.Is(err, kernel.ErrSafetyViolation) {
		span.RecordError(err)
		return RunSummary{}, fmt.Errorf("seed %d: %w", seed, err)
	}
	if len(res.Violations) > 0 {
		span.SetStatus(codes.Error, "safety violation")
	}
	span.SetAttributes(
		attribute.String("stop_reason", string(res.StopReason)),
		attribute.Int("ticks", len(res.Trace)),
	)

	return RunSummary{
		Seed:       seed,
		StopReason: res.StopReason,
		Committed:  res.Committed,
		CommitTick: res.CommitTick,
		Ticks:      len(res.Trace),
		Violations: len(res.Violations),
		ArrestedAt: res.Diagnostics.ArrestedAt,
	}, nil
}

func summarize(runs []RunSummary) *Report {
	r := &Report{Runs: runs}
	var ticks []float64
	for _, run := range runs {
		if run.Committed {
			r.Committed++
			ticks = append(ticks, float64(run.CommitTick))
		}
		if run.Violations > 0 {
			r.Violating++
		}
		if run.ArrestedAt > 0 {
			r.Arrested++
		}
	}
	if len(runs) > 0 {
		r.CommitRate = float64(r.Committed) / float64(len(runs))
	}
	r.CommitTick = describe(ticks)
	return r
}

func describe(x []float64) Stats {
	if len(x) == 0 {
		return Stats{}
	}
	sort.Float64s(x)
	s := Stats{
		Mean:   stat.Mean(x, nil),
		Min:    x[0],
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		P95:    stat.Quantile(0.95, stat.Empirical, x, nil),
		Max:    x[len(x)-1],
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	return s
}
