// Package scenario holds named, reproducible run presets: the reference
// scenarios used to check the engine and stress variants that inject faulty
// nodes or broken controllers.
package scenario

import (
	"fmt"
	"sort"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

// Scenario is a named configuration plus the simulation options it needs.
type Scenario struct {
	Name        string
	Description string
	// Expect states the outcome the scenario is built to produce.
	Expect string

	config  func() kernel.Config
	options func() []kernel.Option
}

// Config returns a fresh copy of the scenario's configuration.
func (s Scenario) Config() kernel.Config { return s.config() }

// Options returns fresh simulation options for one run.
func (s Scenario) Options() []kernel.Option {
	if s.options == nil {
		return nil
	}
	return s.options()
}

var registry = map[string]Scenario{}

func register(s Scenario) {
	if _, dup := registry[s.Name]; dup {
		panic("scenario: duplicate name " + s.Name)
	}
	registry[s.Name] = s
}

// Lookup returns the scenario with the given name.
func Lookup(name string) (Scenario, error) {
	s, ok := registry[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q", name)
	}
	return s, nil
}

// All returns every registered scenario sorted by name.
func All() []Scenario {
	out := make([]Scenario, 0, len(registry))
	for _, s := range registry {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
