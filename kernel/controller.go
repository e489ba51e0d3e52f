package kernel

// Decision is what a CommitPolicy sees on each tick.
type Decision struct {
	Tick      int
	Level     float64
	Threshold float64
	Nodes     []Node
}

// AllReady reports whether every node is READY.
func (d Decision) AllReady() bool {
	for i := range d.Nodes {
		if d.Nodes[i].State != Ready {
			return false
		}
	}
	return true
}

// CommitPolicy is the commit predicate evaluated by the Controller.
type CommitPolicy interface {
	MayCommit(d Decision) bool
}

// PolicyFunc adapts a function to CommitPolicy.
type PolicyFunc func(d Decision) bool

func (f PolicyFunc) MayCommit(d Decision) bool { return f(d) }

// QuorumPolicy commits only when the bus is below threshold and every node
// is READY.
type QuorumPolicy struct{}

func (QuorumPolicy) MayCommit(d Decision) bool {
	return d.Level < d.Threshold && d.AllReady()
}

// BusOnlyPolicy trusts the bus alone and ignores per-node readiness. It is
// unsound on purpose; a silent node is enough to break it.
type BusOnlyPolicy struct{}

func (BusOnlyPolicy) MayCommit(d Decision) bool {
	return d.Level < d.Threshold
}

// ForcedCommitPolicy commits unconditionally at AtTick.
type ForcedCommitPolicy struct {
	AtTick int
}

func (p ForcedCommitPolicy) MayCommit(d Decision) bool {
	return d.Tick >= p.AtTick
}

// Controller is the write-once commit authority.
type Controller struct {
	Threshold float64

	policy     CommitPolicy
	committed  bool
	commitTick int
}

func NewController(threshold float64, policy CommitPolicy) *Controller {
	if policy == nil {
		policy = QuorumPolicy{}
	}
	return &Controller{Threshold: threshold, policy: policy}
}

// Evaluate runs the policy for this tick. It returns true only on the tick
// commit fires; once committed the controller never reverts.
func (c *Controller) Evaluate(tick int, bus *Bus, nodes []Node) bool {
	if c.committed {
		return false
	}
	if !c.policy.MayCommit(Decision{Tick: tick, Level: bus.Level, Threshold: c.Threshold, Nodes: nodes}) {
		return false
	}
	c.committed = true
	c.commitTick = tick
	return true
}

func (c *Controller) Committed() bool { return c.committed }

// CommitTick returns the tick at which commit fired.
func (c *Controller) CommitTick() (int, bool) {
	return c.commitTick, c.committed
}
