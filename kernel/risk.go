package kernel

// Risk scales a node's transition rule. Every factor is multiplicative and a
// zero factor disables its rule for the node; NeutralRisk leaves the
// configured rule unchanged.
type Risk struct {
	Attach  float64 `json:"attach"`
	Tension float64 `json:"tension"`
	// Correction scales ErrorCorrectionProbability. Values below 1 model
	// hyperstabilized attachments that resist release.
	Correction float64 `json:"correction"`
	// Misattach scales MisattachProbability (merotelic drift).
	Misattach float64 `json:"misattach"`
}

var NeutralRisk = Risk{Attach: 1, Tension: 1, Correction: 1, Misattach: 1}

// RiskModel supplies per-node modifiers computed outside the engine, for
// example from a chromatin tension model. It is consulted once per node per
// tick, from the node phase; implementations used with Workers > 1 must be
// safe for concurrent reads.
type RiskModel interface {
	Risk(tick, node int) Risk
}

// RiskFunc adapts a function to RiskModel.
type RiskFunc func(tick, node int) Risk

func (f RiskFunc) Risk(tick, node int) Risk { return f(tick, node) }

// StaticRisk fixes modifiers for the whole run. Nodes not in the map are neutral.
type StaticRisk map[int]Risk

func (s StaticRisk) Risk(_, node int) Risk {
	if r, ok := s[node]; ok {
		return r
	}
	return NeutralRisk
}

type neutral struct{}

func (neutral) Risk(int, int) Risk { return NeutralRisk }
