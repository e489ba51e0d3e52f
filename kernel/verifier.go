package kernel

import (
	"fmt"
	"slices"
)

// LivenessStatus is the run-end verdict of a liveness formula. A finite run
// can confirm "eventually" but never refute it, so there is no violated state.
type LivenessStatus string

const (
	Confirmed   LivenessStatus = "confirmed"
	Unconfirmed LivenessStatus = "unconfirmed"
)

// Violation is a recorded safety failure with its counter-example.
type Violation struct {
	Formula   string `json:"formula"`
	Tick      int    `json:"tick"`
	Offenders []int  `json:"offenders,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s violated at tick %d: %s %v", v.Formula, v.Tick, v.Detail, v.Offenders)
}

// LivenessResult is the verdict for one liveness formula.
type LivenessResult struct {
	Formula     string         `json:"formula"`
	Expr        string         `json:"expr"`
	Status      LivenessStatus `json:"status"`
	WitnessTick int            `json:"witness_tick,omitempty"`
}

// LivenessReport is produced once by Verifier.Finalize.
type LivenessReport struct {
	Ticks   int              `json:"ticks"`
	Results []LivenessResult `json:"results"`
}

// Status returns the verdict for the named formula.
func (r LivenessReport) Status(name string) (LivenessStatus, bool) {
	for _, res := range r.Results {
		if res.Formula == name {
			return res.Status, true
		}
	}
	return "", false
}

// Verifier is an online monitor over the snapshot trace. It keeps the full
// trace and the violation list; both only grow.
type Verifier struct {
	safety   []SafetyFormula
	liveness []LivenessFormula

	trace      []Snapshot
	violations []Violation
	finalized  bool
}

// NewVerifier builds a monitor for formulas. Formulas that are neither
// SafetyFormula nor LivenessFormula are rejected.
func NewVerifier(formulas ...Formula) (*Verifier, error) {
	v := &Verifier{}
	for _, f := range formulas {
		if err := v.register(f); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v *Verifier) register(f Formula) error {
	switch f := f.(type) {
	case SafetyFormula:
		v.safety = append(v.safety, f)
	case LivenessFormula:
		v.liveness = append(v.liveness, f)
	default:
		return fmt.Errorf("formula %q is neither safety nor liveness", f.Name())
	}
	return nil
}

// Formulas lists the registered formulas, safety first.
func (v *Verifier) Formulas() []Formula {
	out := make([]Formula, 0, len(v.safety)+len(v.liveness))
	for _, f := range v.safety {
		out = append(out, f)
	}
	for _, f := range v.liveness {
		out = append(out, f)
	}
	return out
}

// Observe appends s to the trace and evaluates every safety formula against
// it. It returns only the violations detected by this call.
func (v *Verifier) Observe(s Snapshot) ([]Violation, error) {
	if v.finalized {
		return nil, ErrAlreadyFinalized
	}
	var prev *Snapshot
	if n := len(v.trace); n > 0 {
		prev = &v.trace[n-1]
		if s.Tick <= prev.Tick {
			return nil, fmt.Errorf("%w: tick %d after %d", ErrSnapshotOrder, s.Tick, prev.Tick)
		}
	}
	v.trace = append(v.trace, s)
	cur := &v.trace[len(v.trace)-1]
	if prev != nil {
		// append may have moved the backing array
		prev = &v.trace[len(v.trace)-2]
	}

	var found []Violation
	for _, f := range v.safety {
		ce := f.Check(prev, cur)
		if ce == nil {
			continue
		}
		found = append(found, Violation{
			Formula:   f.Name(),
			Tick:      s.Tick,
			Offenders: ce.Offenders,
			Detail:    ce.Detail,
		})
	}
	v.violations = append(v.violations, found...)
	return found, nil
}

// Finalize resolves the liveness formulas over the whole trace. It may be
// called once; afterwards the verifier accepts no more snapshots.
func (v *Verifier) Finalize() (LivenessReport, error) {
	if v.finalized {
		return LivenessReport{}, ErrAlreadyFinalized
	}
	v.finalized = true

	report := LivenessReport{Ticks: len(v.trace), Results: make([]LivenessResult, 0, len(v.liveness))}
	for _, f := range v.liveness {
		status, tick := f.Resolve(v.trace)
		report.Results = append(report.Results, LivenessResult{
			Formula:     f.Name(),
			Expr:        f.Expr(),
			Status:      status,
			WitnessTick: tick,
		})
	}
	return report, nil
}

// Trace returns a copy of the observed snapshots. Snapshot state slices are
// shared and must not be modified.
func (v *Verifier) Trace() []Snapshot { return slices.Clone(v.trace) }

// Violations returns a copy of every violation recorded so far, in detection
// order.
func (v *Verifier) Violations() []Violation { return slices.Clone(v.violations) }

func (v *Verifier) Finalized() bool { return v.finalized }
