package kernel

// Snapshot is the global system state observed at the end of one tick.
type Snapshot struct {
	Tick      int         `json:"tick"`
	States    []NodeState `json:"states"`
	Level     float64     `json:"level"`
	Inflow    float64     `json:"inflow"`
	Committed bool        `json:"committed"`
}

// AllReady reports whether every node was READY at this tick.
func (s *Snapshot) AllReady() bool {
	for _, st := range s.States {
		if st != Ready {
			return false
		}
	}
	return true
}

// NotReady returns the ids of the nodes that were not READY, in id order.
func (s *Snapshot) NotReady() []int {
	var out []int
	for id, st := range s.States {
		if st != Ready {
			out = append(out, id)
		}
	}
	return out
}

// ReadyCount returns how many nodes were READY.
func (s *Snapshot) ReadyCount() int {
	n := 0
	for _, st := range s.States {
		if st == Ready {
			n++
		}
	}
	return n
}
