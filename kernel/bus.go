package kernel

// Bus is the anonymous decaying aggregate of node signals. It has no notion
// of which node contributed; the controller only learns how much dissent is
// left.
type Bus struct {
	Level      float64
	DecayRate  float64
	LastInflow float64
}

func NewBus(decayRate, initial float64) *Bus {
	return &Bus{Level: initial, DecayRate: decayRate}
}

// Update applies level' = max(0, level*(1-decay) + inflow) and reports whether
// the floor was hit.
func (b *Bus) Update(inflow float64) (floored bool) {
	b.LastInflow = inflow
	next := b.Level*(1-b.DecayRate) + inflow
	if next < 0 || next != next {
		b.Level = 0
		return true
	}
	b.Level = next
	return false
}
