package kernel

import "fmt"

// Formula is a named temporal property. Concrete formulas implement either
// SafetyFormula or LivenessFormula.
type Formula interface {
	Name() string
	// Expr is the formula in LTL surface syntax.
	Expr() string
}

// Counterexample is the evidence attached to a safety violation.
type Counterexample struct {
	Offenders []int
	Detail    string
}

// SafetyFormula can be falsified by a finite prefix. Check sees the previous
// snapshot (nil on the first tick) and the current one, and returns nil when
// the property still holds.
type SafetyFormula interface {
	Formula
	Check(prev, cur *Snapshot) *Counterexample
}

// LivenessFormula is resolved once at the end of a run.
type LivenessFormula interface {
	Formula
	Resolve(trace []Snapshot) (status LivenessStatus, witnessTick int)
}

const (
	QuorumSafetyName    = "quorum-safety"
	EventualCommitName  = "eventual-commit"
	BusNonNegativeName  = "bus-non-negative"
	CommitMonotonicName = "commit-monotonic"
	ReadyMonotonicName  = "ready-monotonic"
)

// QuorumSafety is G(!all_ready -> !committed). It is checked on the tick at
// which commit is first observed; the counter-example lists the nodes that
// were not READY on that same tick.
type QuorumSafety struct{}

func (QuorumSafety) Name() string { return QuorumSafetyName }
func (QuorumSafety) Expr() string { return "G(!all_ready -> !committed)" }

func (QuorumSafety) Check(prev, cur *Snapshot) *Counterexample {
	if !cur.Committed || (prev != nil && prev.Committed) {
		return nil
	}
	offenders := cur.NotReady()
	if len(offenders) == 0 {
		return nil
	}
	return &Counterexample{
		Offenders: offenders,
		Detail:    fmt.Sprintf("commit with %d of %d nodes not ready", len(offenders), len(cur.States)),
	}
}

// EventualCommit is F(committed).
type EventualCommit struct{}

func (EventualCommit) Name() string { return EventualCommitName }
func (EventualCommit) Expr() string { return "F(committed)" }

func (EventualCommit) Resolve(trace []Snapshot) (LivenessStatus, int) {
	for i := range trace {
		if trace[i].Committed {
			return Confirmed, trace[i].Tick
		}
	}
	return Unconfirmed, 0
}

// BusNonNegative is G(level >= 0).
type BusNonNegative struct{}

func (BusNonNegative) Name() string { return BusNonNegativeName }
func (BusNonNegative) Expr() string { return "G(level >= 0)" }

func (BusNonNegative) Check(_, cur *Snapshot) *Counterexample {
	if cur.Level >= 0 {
		return nil
	}
	return &Counterexample{Detail: fmt.Sprintf("bus level %v", cur.Level)}
}

// CommitMonotonic is G(committed -> X committed).
type CommitMonotonic struct{}

func (CommitMonotonic) Name() string { return CommitMonotonicName }
func (CommitMonotonic) Expr() string { return "G(committed -> X committed)" }

func (CommitMonotonic) Check(prev, cur *Snapshot) *Counterexample {
	if prev == nil || !prev.Committed || cur.Committed {
		return nil
	}
	return &Counterexample{Detail: fmt.Sprintf("commit reverted after tick %d", prev.Tick)}
}

// ReadyMonotonic is G(ready_i -> X ready_i) for every node i. It only holds
// when destabilization is disabled.
type ReadyMonotonic struct{}

func (ReadyMonotonic) Name() string { return ReadyMonotonicName }
func (ReadyMonotonic) Expr() string { return "G(ready_i -> X ready_i)" }

func (ReadyMonotonic) Check(prev, cur *Snapshot) *Counterexample {
	if prev == nil {
		return nil
	}
	var offenders []int
	for id, st := range prev.States {
		if st == Ready && id < len(cur.States) && cur.States[id] != Ready {
			offenders = append(offenders, id)
		}
	}
	if len(offenders) == 0 {
		return nil
	}
	return &Counterexample{Offenders: offenders, Detail: "ready node regressed"}
}

// CoreFormulas is the fixed pair every verifier starts from.
func CoreFormulas() []Formula {
	return []Formula{QuorumSafety{}, EventualCommit{}}
}

// StandardFormulas extends CoreFormulas with the structural invariants that
// apply to cfg. ReadyMonotonic is included only when nodes are monotone.
func StandardFormulas(cfg Config) []Formula {
	fs := append(CoreFormulas(), BusNonNegative{}, CommitMonotonic{})
	if cfg.MonotoneNodes() {
		fs = append(fs, ReadyMonotonic{})
	}
	return fs
}
