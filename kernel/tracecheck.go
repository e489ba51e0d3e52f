package kernel

import (
	"fmt"

	"github.com/rfielding/checkpoint-ctl/kripke"
)

const (
	propAllReady  = "all_ready"
	propCommitted = "committed"
)

// TraceVerdict is the offline result of one CTL formula over a trace.
type TraceVerdict struct {
	Name  string `json:"name"`
	Expr  string `json:"expr"`
	Holds bool   `json:"holds"`
}

// TraceGraph turns a linear trace into a Kripke structure: one state per
// tick, labelled all_ready and committed, each tick pointing to the next. The
// last tick loops on itself (stuttering extension), which makes the path
// infinite so that AF/AG have their usual meaning.
func TraceGraph(trace []Snapshot) (*kripke.Graph, error) {
	if len(trace) == 0 {
		return nil, ErrEmptyTrace
	}
	g := kripke.NewGraph()
	ids := make([]kripke.StateID, len(trace))
	for i := range trace {
		s := &trace[i]
		ids[i] = kripke.StateID(fmt.Sprintf("t%d", s.Tick))
		var props []string
		if s.AllReady() {
			props = append(props, propAllReady)
		}
		if s.Committed {
			props = append(props, propCommitted)
		}
		g.AddState(ids[i], props...)
	}
	for i := 1; i < len(ids); i++ {
		g.AddEdge(ids[i-1], ids[i])
	}
	last := ids[len(ids)-1]
	g.AddEdge(last, last)
	g.SetInitial(ids[0])
	return g, nil
}

// CheckTrace model-checks a recorded trace against the quorum safety and
// eventual commit properties using the CTL engine. It is independent of the
// online Verifier and is meant to cross-check exported traces.
//
// Quorum safety is checked on every tick, whereas the online monitor looks
// only at the commit tick. The two agree because a simulation never steps past
// its commit tick.
//
// On a stuttered finite trace AF committed is false exactly when the run never
// committed; as with the online monitor, that means "unconfirmed", not refuted.
func CheckTrace(trace []Snapshot) ([]TraceVerdict, error) {
	g, err := TraceGraph(trace)
	if err != nil {
		return nil, err
	}
	allReady := kripke.Atom(propAllReady)
	committed := kripke.Atom(propCommitted)

	checks := []struct {
		name string
		f    kripke.Formula
	}{
		{QuorumSafetyName, kripke.AG(kripke.Implies(kripke.Not(allReady), kripke.Not(committed)))},
		{CommitMonotonicName, kripke.AG(kripke.Implies(committed, kripke.AX(committed)))},
		{EventualCommitName, kripke.AF(committed)},
	}

	out := make([]TraceVerdict, 0, len(checks))
	for _, c := range checks {
		out = append(out, TraceVerdict{
			Name:  c.name,
			Expr:  c.f.String(),
			Holds: kripke.SatIn(c.f, g),
		})
	}
	return out, nil
}
