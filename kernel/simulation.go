package kernel

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rfielding/checkpoint-ctl/telemetry"
)

// StopReason tells why a run ended.
type StopReason string

const (
	StopCommitted StopReason = "committed"
	StopBudget    StopReason = "budget_exhausted"
	StopCanceled  StopReason = "canceled"
	StopViolation StopReason = "safety_violation"
)

// Diagnostics counts recovered numeric edge cases and notable node events.
// None of these are errors.
type Diagnostics struct {
	ClampEvents      int `json:"clamp_events"`
	FloorEvents      int `json:"floor_events"`
	Destabilizations int `json:"destabilizations"`
	KnockBacks       int `json:"knock_backs"`
	Misattachments   int `json:"misattachments"`
	// MisattachedNodes lists, in ascending order, every node that
	// misattached at least once.
	MisattachedNodes []int `json:"misattached_nodes,omitempty"`
	// ArrestedAt is the tick at which the arrest deadline passed without
	// commit, or 0.
	ArrestedAt int `json:"arrested_at,omitempty"`
}

// Result is the serializable outcome of a run.
type Result struct {
	Config      Config         `json:"config"`
	Trace       []Snapshot     `json:"trace"`
	Violations  []Violation    `json:"violations"`
	Liveness    LivenessReport `json:"liveness"`
	Diagnostics Diagnostics    `json:"diagnostics"`
	StopReason  StopReason     `json:"stop_reason"`
	Committed   bool           `json:"committed"`
	CommitTick  int            `json:"commit_tick,omitempty"`
}

// Option customizes a Simulation.
type Option func(*Simulation)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithMetrics records run activity on m.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Simulation) { s.metrics = m }
}

// WithRisk injects per-node modifiers from an external model.
func WithRisk(r RiskModel) Option {
	return func(s *Simulation) { s.risk = r }
}

// WithPolicy replaces the controller's commit predicate.
func WithPolicy(p CommitPolicy) Option {
	return func(s *Simulation) { s.policy = p }
}

// WithFormulas replaces the formula set (default: StandardFormulas(cfg)).
func WithFormulas(fs ...Formula) Option {
	return func(s *Simulation) { s.formulas = fs }
}

// Simulation is the explicit context of one run: nodes, bus, controller,
// verifier and the run-scoped random source. It is not safe for concurrent use.
type Simulation struct {
	cfg        Config
	nodes      []Node
	bus        *Bus
	controller *Controller
	verifier   *Verifier
	tr         transition

	// rng drives the sequential node phase; streams[i] drives node i when
	// Workers > 1.
	rng     *rand.Rand
	streams []*rand.Rand
	workers int

	risk     RiskModel
	policy   CommitPolicy
	formulas []Formula
	log      *zap.Logger
	metrics  *telemetry.Metrics

	tick        int
	diag        Diagnostics
	outcomes    []stepOutcome
	misattached []bool
	result      *Result
}

// NewSimulation validates cfg and builds a fresh run. Configuration errors are
// fatal: no simulation is returned.
func NewSimulation(cfg Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		cfg:  cfg,
		tr:   newTransition(cfg),
		risk: neutral{},
		log:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.formulas == nil {
		s.formulas = StandardFormulas(cfg)
	}

	v, err := NewVerifier(s.formulas...)
	if err != nil {
		return nil, err
	}
	s.verifier = v
	s.bus = NewBus(cfg.DecayRate, cfg.InitialLevel)
	s.controller = NewController(cfg.ActivationThreshold, s.policy)

	s.nodes = make([]Node, cfg.TotalNodes)
	for i := range s.nodes {
		s.nodes[i] = newNode(i, cfg.UnitSignal, cfg.Faults[i])
	}
	s.outcomes = make([]stepOutcome, cfg.TotalNodes)
	s.misattached = make([]bool, cfg.TotalNodes)

	seed := uint64(cfg.Seed)
	s.workers = cfg.Workers
	if s.workers <= 1 {
		s.workers = 1
		s.rng = rand.New(rand.NewPCG(seed, 0))
	} else {
		s.streams = make([]*rand.Rand, cfg.TotalNodes)
		for i := range s.streams {
			s.streams[i] = rand.New(rand.NewPCG(seed, uint64(i)+1))
		}
	}

	s.log = s.log.With(zap.Int64("seed", cfg.Seed), zap.Int("nodes", cfg.TotalNodes))
	return s, nil
}

func (s *Simulation) Config() Config          { return s.cfg }
func (s *Simulation) Tick() int               { return s.tick }
func (s *Simulation) Bus() *Bus               { return s.bus }
func (s *Simulation) Controller() *Controller { return s.controller }
func (s *Simulation) Verifier() *Verifier     { return s.verifier }

// Nodes returns a copy of the current node states.
func (s *Simulation) Nodes() []Node { return slices.Clone(s.nodes) }

// Step runs exactly one tick: node phase, bus update, controller decision,
// verifier observation. It returns the recorded snapshot and the violations
// found on this tick.
//
// Commit is terminal: once the controller has committed, Step returns
// ErrCommitted and the run can only be finalized with Stop.
func (s *Simulation) Step(ctx context.Context) (Snapshot, []Violation, error) {
	if s.result != nil {
		return Snapshot{}, nil, ErrAlreadyRun
	}
	if s.controller.Committed() {
		return Snapshot{}, nil, ErrCommitted
	}
	s.tick++
	tick := s.tick

	// 1. Nodes. Every node reads and writes only its own state.
	if err := s.stepNodes(ctx, tick); err != nil {
		return Snapshot{}, nil, err
	}

	// 2. Bus, strictly after all nodes of this tick have stepped.
	var inflow float64
	clamped, destab, misattached := 0, 0, 0
	for i := range s.nodes {
		inflow += s.nodes[i].SignalOutput()
		o := s.outcomes[i]
		if o.clamped {
			clamped++
		}
		if o.destabilized {
			destab++
		}
		if o.knockedBack {
			s.diag.KnockBacks++
		}
		if o.misattached {
			misattached++
			s.misattached[i] = true
		}
	}
	s.diag.ClampEvents += clamped
	s.diag.Destabilizations += destab
	s.diag.Misattachments += misattached
	s.metrics.Clamped(clamped)
	s.metrics.Destabilized(destab)
	s.metrics.Misattached(misattached)

	if s.bus.Update(inflow) {
		s.diag.FloorEvents++
		s.metrics.Floored()
	}
	s.metrics.Tick(s.bus.Level)

	// 3. Controller.
	if s.controller.Evaluate(tick, s.bus, s.nodes) {
		s.metrics.Commit(tick)
		s.log.Info("commit",
			zap.Int("tick", tick),
			zap.Float64("level", s.bus.Level),
		)
	}

	// 4. Verifier.
	snap := s.snapshot(tick)
	found, err := s.verifier.Observe(snap)
	if err != nil {
		return snap, nil, err
	}
	for _, v := range found {
		s.metrics.Violation(v.Formula)
		s.log.Warn("safety violation",
			zap.String("formula", v.Formula),
			zap.Int("tick", v.Tick),
			zap.Ints("offenders", v.Offenders),
			zap.String("detail", v.Detail),
		)
	}

	if s.cfg.ArrestTick > 0 && tick == s.cfg.ArrestTick && !s.controller.Committed() {
		s.diag.ArrestedAt = tick
		s.log.Warn("arrest deadline passed without commit",
			zap.Int("tick", tick),
			zap.Int("ready", snap.ReadyCount()),
			zap.Float64("level", s.bus.Level),
		)
	}

	s.log.Debug("tick",
		zap.Int("tick", tick),
		zap.Float64("inflow", inflow),
		zap.Float64("level", s.bus.Level),
		zap.Int("ready", snap.ReadyCount()),
	)
	return snap, found, nil
}

func (s *Simulation) stepNodes(ctx context.Context, tick int) error {
	if s.workers == 1 {
		for i := range s.nodes {
			s.outcomes[i] = s.nodes[i].step(s.rng, &s.tr, s.risk.Risk(tick, i))
		}
		return nil
	}

	// Contiguous chunks, one goroutine each. Node i always draws from
	// streams[i], so the result does not depend on scheduling.
	g, _ := errgroup.WithContext(ctx)
	n := len(s.nodes)
	chunk := (n + s.workers - 1) / s.workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				s.outcomes[i] = s.nodes[i].step(s.streams[i], &s.tr, s.risk.Risk(tick, i))
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Simulation) snapshot(tick int) Snapshot {
	states := make([]NodeState, len(s.nodes))
	for i := range s.nodes {
		states[i] = s.nodes[i].State
	}
	return Snapshot{
		Tick:      tick,
		States:    states,
		Level:     s.bus.Level,
		Inflow:    s.bus.LastInflow,
		Committed: s.controller.Committed(),
	}
}

// Run steps the simulation until commit, the tick budget, cancellation of ctx,
// or, in fail_fast mode, the first safety violation. Cancellation is observed
// between ticks only. Every ending finalizes the verifier.
//
// A fail_fast stop returns the result together with an error wrapping
// ErrSafetyViolation; the last trace entry is the violating tick. A canceled
// run returns its result and no error.
func (s *Simulation) Run(ctx context.Context) (*Result, error) {
	if s.result != nil {
		return nil, ErrAlreadyRun
	}
	s.log.Info("run start",
		zap.Int("tick_budget", s.cfg.TickBudget),
		zap.String("violation_mode", string(s.cfg.ViolationMode)),
		zap.Int("workers", s.workers),
	)

	var (
		reason StopReason
		first  *Violation
	)
	for reason == "" {
		if ctx.Err() != nil {
			reason = StopCanceled
			break
		}
		if s.tick >= s.cfg.TickBudget {
			reason = StopBudget
			break
		}
		snap, found, err := s.Step(ctx)
		if err != nil {
			return nil, err
		}
		switch {
		case len(found) > 0 && s.cfg.ViolationMode == FailFast:
			first = &found[0]
			reason = StopViolation
		case snap.Committed:
			reason = StopCommitted
		}
	}

	res, err := s.finish(reason)
	if err != nil {
		return nil, err
	}
	if first != nil {
		return res, fmt.Errorf("%w: %s", ErrSafetyViolation, first)
	}
	return res, nil
}

// Stop ends the run between ticks and finalizes it. It is the manual
// counterpart of canceling the context passed to Run.
func (s *Simulation) Stop() (*Result, error) {
	if s.result != nil {
		return nil, ErrAlreadyRun
	}
	if s.controller.Committed() {
		return s.finish(StopCommitted)
	}
	return s.finish(StopCanceled)
}

func (s *Simulation) finish(reason StopReason) (*Result, error) {
	report, err := s.verifier.Finalize()
	if err != nil {
		return nil, err
	}
	commitTick, committed := s.controller.CommitTick()
	for i, m := range s.misattached {
		if m {
			s.diag.MisattachedNodes = append(s.diag.MisattachedNodes, i)
		}
	}
	res := &Result{
		Config:      s.cfg,
		Trace:       s.verifier.Trace(),
		Violations:  s.verifier.Violations(),
		Liveness:    report,
		Diagnostics: s.diag,
		StopReason:  reason,
		Committed:   committed,
		CommitTick:  commitTick,
	}
	if res.Violations == nil {
		res.Violations = []Violation{}
	}
	s.result = res
	s.metrics.RunFinished(string(reason))

	fields := []zap.Field{
		zap.String("stop_reason", string(reason)),
		zap.Int("ticks", s.tick),
		zap.Int("violations", len(res.Violations)),
	}
	if len(s.diag.MisattachedNodes) > 0 {
		fields = append(fields, zap.Ints("misattached_nodes", s.diag.MisattachedNodes))
	}
	if committed {
		fields = append(fields, zap.Int("commit_tick", commitTick))
	}
	for _, r := range report.Results {
		fields = append(fields, zap.String(r.Formula, string(r.Status)))
	}
	s.log.Info("run finished", fields...)
	return res, nil
}
