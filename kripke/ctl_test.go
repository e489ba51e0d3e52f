package kripke

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// chain builds s0 -> s1 -> s2 with s2 absorbing.
func chain() *Graph {
	g := NewGraph()
	g.AddState("s0", "init", "safe")
	g.AddState("s1", "processing", "safe")
	g.AddState("s2", "done")
	g.AddEdge("s0", "s1")
	g.AddEdge("s1", "s2")
	g.AddEdge("s2", "s2")
	g.SetInitial("s0")
	return g
}

func TestAtomAndBoolean(t *testing.T) {
	g := chain()

	require.True(t, SatIn(Atom("init"), g))
	require.False(t, SatIn(Atom("done"), g))
	require.True(t, SatIn(Not(Atom("done")), g))
	require.True(t, SatIn(And(Atom("init"), Atom("safe")), g))
	require.False(t, SatIn(And(Atom("init"), Atom("done")), g))
	require.True(t, SatIn(Or(Atom("done"), Atom("safe")), g))
	require.True(t, SatIn(Implies(Atom("done"), Atom("init")), g))
}

func TestNextOperators(t *testing.T) {
	g := chain()

	require.True(t, SatIn(EX(Atom("processing")), g))
	require.True(t, SatIn(AX(Atom("processing")), g))
	require.False(t, SatIn(EX(Atom("done")), g))
}

func TestEventually(t *testing.T) {
	g := chain()

	require.True(t, SatIn(EF(Atom("done")), g))
	require.True(t, SatIn(AF(Atom("done")), g))
	require.True(t, SatIn(EU(Atom("safe"), Atom("done")), g))
}

func TestGlobally(t *testing.T) {
	g := chain()

	require.False(t, SatIn(AG(Atom("safe")), g))
	require.True(t, SatIn(AG(Implies(Atom("done"), AX(Atom("done")))), g))

	// s0 <-> s1 cycle keeps safe forever
	cyc := NewGraph()
	cyc.AddState("s0", "safe")
	cyc.AddState("s1", "safe")
	cyc.AddEdge("s0", "s1")
	cyc.AddEdge("s1", "s0")
	cyc.SetInitial("s0")
	require.True(t, SatIn(EG(Atom("safe")), cyc))
	require.True(t, SatIn(AG(Atom("safe")), cyc))
	require.False(t, SatIn(AF(Atom("done")), cyc))
}

func TestBranchingDistinguishesEAndA(t *testing.T) {
	g := NewGraph()
	g.AddState("n")
	g.AddState("ok", "delivered")
	g.AddState("bad", "cancelled")
	g.AddEdge("n", "ok")
	g.AddEdge("n", "bad")
	g.AddEdge("ok", "ok")
	g.AddEdge("bad", "bad")
	g.SetInitial("n")

	require.True(t, SatIn(EF(Atom("delivered")), g))
	require.False(t, SatIn(AF(Atom("delivered")), g))
	require.True(t, SatIn(AF(Or(Atom("delivered"), Atom("cancelled"))), g))
}

func TestSatInWithoutInitialStates(t *testing.T) {
	g := NewGraph()
	g.AddState("s0", "p")
	require.False(t, SatIn(Atom("p"), g))
}

func TestFormulaString(t *testing.T) {
	f := AG(Implies(Not(Atom("all_ready")), Not(Atom("committed"))))
	require.Equal(t, "AG (!all_ready -> !committed)", f.String())
	require.Equal(t, "AF committed", AF(Atom("committed")).String())
}

func TestStateSetOps(t *testing.T) {
	a := NewStateSet()
	a.Add("x")
	a.Add("y")
	b := NewStateSet()
	b.Add("y")
	b.Add("z")

	require.Equal(t, []StateID{"y"}, a.Intersect(b).Sorted())
	require.Equal(t, []StateID{"x", "y", "z"}, a.Union(b).Sorted())
	require.Equal(t, []StateID{"x"}, a.Difference(b).Sorted())
	require.True(t, a.Copy().Equals(a))
	require.Equal(t, 2, a.Size())
}
