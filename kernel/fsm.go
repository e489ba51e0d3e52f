package kernel

import "github.com/rfielding/checkpoint-ctl/kripke"

// NodeStateGraph describes the node state machine enabled by cfg as a Kripke
// graph, for diagrams and for checking structural properties such as
// AG(ready -> AX ready). Edges that cfg disables are left out.
func NodeStateGraph(cfg Config) *kripke.Graph {
	u := kripke.StateID(Unattached.String())
	a := kripke.StateID(AttachedNoTension.String())
	r := kripke.StateID(Ready.String())

	g := kripke.NewGraph()
	g.AddState(u)
	g.AddState(a, "attached")
	g.AddState(r, "attached", "ready")
	g.SetInitial(u)

	g.AddEdge(u, u)
	if cfg.AttachProbability > 0 {
		g.AddEdge(u, a)
		// attach and reach tension in the same tick
		if cfg.StabilityWindow <= 1 && (cfg.TensionIncrement >= cfg.TensionThreshold || cfg.TensionNoise > 0) {
			g.AddEdge(u, r)
		}
	}
	g.AddEdge(a, a)
	if cfg.TensionIncrement > 0 || cfg.TensionNoise > 0 {
		g.AddEdge(a, r)
	}
	if cfg.ErrorCorrectionProbability > 0 {
		g.AddEdge(a, u)
	}
	g.AddEdge(r, r)
	if !cfg.MonotoneNodes() {
		g.AddEdge(r, a)
	}
	return g
}

// NodeEdgeLabel names the rule behind each node transition for diagrams.
func NodeEdgeLabel(from, to kripke.StateID) string {
	switch {
	case from == to:
		return ""
	case to == kripke.StateID(Ready.String()):
		return "tension >= threshold"
	case from == kripke.StateID(Unattached.String()):
		return "attach"
	case from == kripke.StateID(Ready.String()):
		return "destabilize"
	default:
		return "error correction"
	}
}
