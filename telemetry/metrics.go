// Package telemetry holds the Prometheus collectors for checkpoint simulations.
package telemetry

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const namespace = "checkpoint"

// Metrics groups the collectors updated by a simulation. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	TicksTotal       prometheus.Counter
	CommitsTotal     prometheus.Counter
	ViolationsTotal  *prometheus.CounterVec
	ClampEvents      prometheus.Counter
	BusFloorEvents   prometheus.Counter
	Destabilizations prometheus.Counter
	Misattachments   prometheus.Counter
	RunsTotal        *prometheus.CounterVec
	CommitTick       prometheus.Histogram
	BusLevel         prometheus.Gauge
}

// New creates the collectors and registers them on reg. Several simulations
// may share one Metrics value; counters are safe for concurrent use.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of simulated ticks.",
		}),
		CommitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commits_total",
			Help:      "Number of runs in which the controller committed.",
		}),
		ViolationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Safety violations recorded by the verifier.",
		}, []string{"formula"}),
		ClampEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clamp_events_total",
			Help:      "Tension values clamped into [0,1].",
		}),
		BusFloorEvents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_floor_events_total",
			Help:      "Bus updates floored at zero.",
		}),
		Destabilizations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destabilizations_total",
			Help:      "Ready nodes returned to the attached state.",
		}),
		Misattachments: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misattachments_total",
			Help:      "Merotelic attachments that cannot build tension.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by stop reason.",
		}, []string{"stop_reason"}),
		CommitTick: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "commit_tick",
			Help:      "Tick at which commit fired.",
			// 1 .. ~4096 ticks
			Buckets: prometheus.ExponentialBuckets(1, 2, 13),
		}),
		BusLevel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bus_level",
			Help:      "Bus level after the most recent tick.",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.TicksTotal, m.CommitsTotal, m.ViolationsTotal, m.ClampEvents,
		m.BusFloorEvents, m.Destabilizations, m.Misattachments, m.RunsTotal, m.CommitTick, m.BusLevel,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Tick(level float64) {
	if m == nil {
		return
	}
	m.TicksTotal.Inc()
	m.BusLevel.Set(level)
}

func (m *Metrics) Commit(tick int) {
	if m == nil {
		return
	}
	m.CommitsTotal.Inc()
	m.CommitTick.Observe(float64(tick))
}

func (m *Metrics) Violation(formula string) {
	if m == nil {
		return
	}
	m.ViolationsTotal.WithLabelValues(formula).Inc()
}

func (m *Metrics) Clamped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.ClampEvents.Add(float64(n))
}

func (m *Metrics) Floored() {
	if m == nil {
		return
	}
	m.BusFloorEvents.Inc()
}

func (m *Metrics) Destabilized(n int) {
	if m == nil || n == 0 {
		return
	}
	m.Destabilizations.Add(float64(n))
}

func (m *Metrics) Misattached(n int) {
	if m == nil || n == 0 {
		return
	}
	m.Misattachments.Add(float64(n))
}

func (m *Metrics) RunFinished(reason string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(reason).Inc()
}

// WriteText dumps everything in g using the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
