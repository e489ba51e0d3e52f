package kernel

import (
	"fmt"
	"math/rand/v2"
)

// NodeState is the attachment state of a checkpoint participant. States are
// ordered; under the default configuration a node only moves forward.
type NodeState uint8

const (
	Unattached NodeState = iota
	AttachedNoTension
	Ready
)

var nodeStateNames = [...]string{
	Unattached:        "UNATTACHED",
	AttachedNoTension: "ATTACHED_NO_TENSION",
	Ready:             "READY",
}

func (s NodeState) String() string {
	if int(s) < len(nodeStateNames) {
		return nodeStateNames[s]
	}
	return fmt.Sprintf("NodeState(%d)", s)
}

func (s NodeState) MarshalText() ([]byte, error) {
	if int(s) >= len(nodeStateNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNodeState, s)
	}
	return []byte(nodeStateNames[s]), nil
}

func (s *NodeState) UnmarshalText(b []byte) error {
	for i, name := range nodeStateNames {
		if name == string(b) {
			*s = NodeState(i)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownNodeState, b)
}

// Node is one checkpoint participant (a kinetochore).
type Node struct {
	ID      int
	State   NodeState
	Tension float64
	// StableTicks counts consecutive ticks with tension at or above the threshold.
	StableTicks int
	// Misattached marks a merotelic attachment: the node counts as attached
	// but never builds tension until error correction releases it.
	Misattached bool
	Fault       Fault

	unit float64
}

func newNode(id int, unit float64, fault Fault) Node {
	return Node{ID: id, unit: unit, Fault: fault}
}

// SignalOutput is the node's contribution to the bus: zero when READY, the
// unit signal otherwise. Silent nodes always contribute zero.
func (n *Node) SignalOutput() float64 {
	if n.State == Ready || n.Fault == FaultSilent {
		return 0
	}
	return n.unit
}

// transition holds the per-run node rule, copied once from Config.
type transition struct {
	attachP         float64
	increment       float64
	noise           float64
	threshold       float64
	window          int
	errorCorrection float64
	misattach       float64
	destab          Destabilization
}

func newTransition(cfg Config) transition {
	return transition{
		attachP:         cfg.AttachProbability,
		increment:       cfg.TensionIncrement,
		noise:           cfg.TensionNoise,
		threshold:       cfg.TensionThreshold,
		window:          cfg.StabilityWindow,
		errorCorrection: cfg.ErrorCorrectionProbability,
		misattach:       cfg.MisattachProbability,
		destab:          cfg.Destabilization,
	}
}

// stepOutcome carries the diagnostics of a single node step.
type stepOutcome struct {
	clamped      bool
	destabilized bool
	knockedBack  bool
	misattached  bool
}

// step advances n by one tick. Random draws are taken only when the
// corresponding rule is active so that disabled features do not shift the
// random stream.
func (n *Node) step(rng *rand.Rand, tr *transition, risk Risk) stepOutcome {
	var out stepOutcome

	switch n.State {
	case Ready:
		if tr.destab.Enabled && tr.destab.Probability > 0 && rng.Float64() < tr.destab.Probability {
			n.State = AttachedNoTension
			n.StableTicks = 0
			if !tr.destab.KeepTension {
				n.Tension = 0
			}
			out.destabilized = true
		}
		return out

	case AttachedNoTension:
		if p := clampProbability(tr.errorCorrection * risk.Correction); p > 0 && rng.Float64() < p {
			n.State = Unattached
			n.Tension = 0
			n.StableTicks = 0
			n.Misattached = false
			out.knockedBack = true
			return out
		}
		if n.Misattached {
			return out
		}

	case Unattached:
		if n.Fault == FaultStuck {
			return out
		}
		p := clampProbability(tr.attachP * risk.Attach)
		if p == 0 || rng.Float64() >= p {
			return out
		}
		n.State = AttachedNoTension
		n.Tension = 0
		n.StableTicks = 0
		if m := clampProbability(tr.misattach * risk.Misattach); m > 0 && rng.Float64() < m {
			n.Misattached = true
			out.misattached = true
			return out
		}
		// Attached this tick; tension may build in the same tick.
	}

	delta := tr.increment * risk.Tension
	if tr.noise > 0 {
		delta += rng.NormFloat64() * tr.noise
	}
	n.Tension, out.clamped = clampTension(n.Tension + delta)

	if n.Tension >= tr.threshold {
		n.StableTicks++
	} else {
		n.StableTicks = 0
	}
	if n.StableTicks >= tr.window {
		n.State = Ready
	}
	return out
}

func clampTension(t float64) (float64, bool) {
	switch {
	case t < 0:
		return 0, true
	case t > 1:
		return 1, true
	case t != t: // NaN
		return 0, true
	}
	return t, false
}

func clampProbability(p float64) float64 {
	if !(p > 0) {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
