package kripke

// CTL evaluator over a finite Kripke graph.
// States carry atomic propositions as labels; callers build the graph from
// whatever they observed (a simulation trace, a state-machine description)
// and evaluate formulas with Sat or SatIn.

import "sort"

type StateID string

// Graph is a finite Kripke structure: states + successor relation + labels.
type Graph struct {
	order   []StateID
	succ    map[StateID][]StateID // R(s) = succ[s]
	labels  map[StateID]map[string]bool
	initial []StateID
}

func NewGraph() *Graph {
	return &Graph{
		succ:   make(map[StateID][]StateID),
		labels: make(map[StateID]map[string]bool),
	}
}

// AddState registers s (once) and sets the given propositions on it.
func (g *Graph) AddState(s StateID, props ...string) {
	if _, ok := g.labels[s]; !ok {
		g.order = append(g.order, s)
		g.labels[s] = make(map[string]bool)
	}
	for _, p := range props {
		g.labels[s][p] = true
	}
}

// AddEdge adds s -> t, registering both states if needed. Duplicate edges are ignored.
func (g *Graph) AddEdge(s, t StateID) {
	g.AddState(s)
	g.AddState(t)
	for _, x := range g.succ[s] {
		if x == t {
			return
		}
	}
	g.succ[s] = append(g.succ[s], t)
}

func (g *Graph) SetInitial(ids ...StateID) {
	for _, s := range ids {
		g.AddState(s)
	}
	g.initial = append([]StateID(nil), ids...)
}

func (g *Graph) States() []StateID                { return append([]StateID(nil), g.order...) }
func (g *Graph) Succ(s StateID) []StateID         { return g.succ[s] }
func (g *Graph) InitialStates() []StateID         { return append([]StateID(nil), g.initial...) }
func (g *Graph) HasLabel(s StateID, p string) bool { return g.labels[s][p] }

// Labels returns the propositions holding in s, sorted.
func (g *Graph) Labels(s StateID) []string {
	out := make([]string, 0, len(g.labels[s]))
	for p, ok := range g.labels[s] {
		if ok {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// ----- State sets -----

type StateSet map[StateID]struct{}

func NewStateSet() StateSet                           { return make(StateSet) }
func (s StateSet) Has(id StateID) bool                { _, ok := s[id]; return ok }
func (s StateSet) Add(id StateID)                     { s[id] = struct{}{} }
func (s StateSet) Size() int                          { return len(s) }
func (s StateSet) Copy() StateSet                     { out := NewStateSet(); for k := range s { out.Add(k) }; return out }
func (s StateSet) Equals(other StateSet) bool         { if len(s) != len(other) { return false }; for k := range s { if !other.Has(k) { return false } }; return true }
func (s StateSet) Intersect(other StateSet) StateSet  { out := NewStateSet(); for k := range s { if other.Has(k) { out.Add(k) } }; return out }
func (s StateSet) Union(other StateSet) StateSet      { out := s.Copy(); for k := range other { out.Add(k) }; return out }
func (s StateSet) Difference(other StateSet) StateSet { out := NewStateSet(); for k := range s { if !other.Has(k) { out.Add(k) } }; return out }

// Sorted returns the members in lexical order.
func (s StateSet) Sorted() []StateID {
	out := make([]StateID, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Universe builds a set containing all states in the graph.
func Universe(g *Graph) StateSet {
	u := NewStateSet()
	for _, s := range g.order {
		u.Add(s)
	}
	return u
}

// PreE returns predecessors with SOME successor in W:
// PreE(W) = { s | ∃ s' . R(s,s') ∧ s' ∈ W }
func PreE(W StateSet, g *Graph) StateSet {
	out := NewStateSet()
	for _, s := range g.order {
		for _, s2 := range g.succ[s] {
			if W.Has(s2) {
				out.Add(s)
				break
			}
		}
	}
	return out
}

// PreA returns states whose ALL successors are in W.
// Dead ends are excluded: a trace graph is always closed with a stutter
// loop, so a dead end means the caller forgot to close it.
func PreA(W StateSet, g *Graph) StateSet {
	out := NewStateSet()
	for _, s := range g.order {
		succs := g.succ[s]
		if len(succs) == 0 {
			continue
		}
		all := true
		for _, s2 := range succs {
			if !W.Has(s2) {
				all = false
				break
			}
		}
		if all {
			out.Add(s)
		}
	}
	return out
}

// ----- CTL Formula AST -----

// Formula is a CTL state formula.
// Sat(g) returns the set of states satisfying the formula in graph g.
type Formula interface {
	Sat(g *Graph) StateSet
	String() string
}

type atom struct{ prop string }

// Atom holds in every state labelled with prop.
func Atom(prop string) Formula { return atom{prop: prop} }

func (a atom) Sat(g *Graph) StateSet {
	out := NewStateSet()
	for _, s := range g.order {
		if g.labels[s][a.prop] {
			out.Add(s)
		}
	}
	return out
}

func (a atom) String() string { return a.prop }

type truth struct{}

func True() Formula { return truth{} }

func (truth) Sat(g *Graph) StateSet { return Universe(g) }
func (truth) String() string        { return "true" }

type not struct{ f Formula }

func Not(f Formula) Formula { return not{f: f} }

func (n not) Sat(g *Graph) StateSet { return Universe(g).Difference(n.f.Sat(g)) }
func (n not) String() string        { return "!" + n.f.String() }

type and struct{ l, r Formula }

func And(l, r Formula) Formula { return and{l: l, r: r} }

func (a and) Sat(g *Graph) StateSet { return a.l.Sat(g).Intersect(a.r.Sat(g)) }
func (a and) String() string        { return "(" + a.l.String() + " & " + a.r.String() + ")" }

type or struct{ l, r Formula }

func Or(l, r Formula) Formula { return or{l: l, r: r} }

func (o or) Sat(g *Graph) StateSet { return o.l.Sat(g).Union(o.r.Sat(g)) }
func (o or) String() string        { return "(" + o.l.String() + " | " + o.r.String() + ")" }

type implies struct{ l, r Formula }

// Implies is p -> q, i.e. ¬p ∨ q.
func Implies(l, r Formula) Formula { return implies{l: l, r: r} }

func (i implies) Sat(g *Graph) StateSet { return Or(Not(i.l), i.r).Sat(g) }
func (i implies) String() string        { return "(" + i.l.String() + " -> " + i.r.String() + ")" }

type ex struct{ f Formula }

// EX φ: "there exists a next state where φ holds"
func EX(f Formula) Formula { return ex{f: f} }

func (e ex) Sat(g *Graph) StateSet { return PreE(e.f.Sat(g), g) }
func (e ex) String() string        { return "EX " + e.f.String() }

type ax struct{ f Formula }

// AX φ: "for all next states, φ holds"
func AX(f Formula) Formula { return ax{f: f} }

func (a ax) Sat(g *Graph) StateSet { return PreA(a.f.Sat(g), g) }
func (a ax) String() string        { return "AX " + a.f.String() }

type eu struct{ p, q Formula }

// EU(p, q): "there exists a path where p holds UNTIL q holds"
func EU(p, q Formula) Formula { return eu{p: p, q: q} }

func (e eu) Sat(g *Graph) StateSet {
	satP := e.p.Sat(g)

	// Least fixpoint:
	// W0 = Sat(q)
	// W_{i+1} = W_i ∪ (Sat(p) ∩ PreE(W_i))
	W := e.q.Sat(g)
	for {
		next := W.Union(PreE(W, g).Intersect(satP))
		if next.Equals(W) {
			return W
		}
		W = next
	}
}

func (e eu) String() string { return "E[" + e.p.String() + " U " + e.q.String() + "]" }

type eg struct{ f Formula }

// EG φ: "there exists a path where φ holds globally (forever)"
func EG(f Formula) Formula { return eg{f: f} }

func (e eg) Sat(g *Graph) StateSet {
	// Greatest fixpoint: drop states with no successor left in Z.
	Z := e.f.Sat(g)
	for {
		next := Z.Intersect(PreE(Z, g))
		if next.Equals(Z) {
			return Z
		}
		Z = next
	}
}

func (e eg) String() string { return "EG " + e.f.String() }

// EF φ ≡ E[ true U φ ]
func EF(f Formula) Formula { return named{inner: EU(True(), f), name: "EF " + f.String()} }

// AF φ ≡ ¬EG ¬φ
func AF(f Formula) Formula { return named{inner: Not(EG(Not(f))), name: "AF " + f.String()} }

// AG φ ≡ ¬EF ¬φ
func AG(f Formula) Formula { return named{inner: Not(EF(Not(f))), name: "AG " + f.String()} }

// named keeps the surface syntax of derived operators for printing.
type named struct {
	inner Formula
	name  string
}

func (n named) Sat(g *Graph) StateSet { return n.inner.Sat(g) }
func (n named) String() string        { return n.name }

// SatIn reports whether every initial state satisfies f.
// A graph with no initial states satisfies nothing.
func SatIn(f Formula, g *Graph) bool {
	if len(g.initial) == 0 {
		return false
	}
	sat := f.Sat(g)
	for _, s := range g.initial {
		if !sat.Has(s) {
			return false
		}
	}
	return true
}
