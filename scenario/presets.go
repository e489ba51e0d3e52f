package scenario

import (
	"slices"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

const (
	Baseline      = "baseline"
	Trivial       = "scenario-a"
	StuckNode     = "scenario-b"
	ForcedCommit  = "scenario-c"
	SilentBusOnly = "silent-bus-only"
	MAD2          = "mad2"
	WeakCTCF      = "weak-ctcf"
	StrictWindow  = "strict-window"
	NoisyTension  = "noisy"
	Merotelic     = "merotelic"
	Hyperstable   = "hyperstabilized"
)

const (
	expectCommit   = "commits with no violations"
	expectNoCommit = "never commits; eventual-commit unconfirmed; no violations"
	expectCaught   = "commits prematurely; quorum-safety violation names the non-ready nodes"
)

// tiny is three nodes that all reach READY on tick 1.
func tiny() kernel.Config {
	cfg := kernel.DefaultConfig()
	cfg.TotalNodes = 3
	cfg.AttachProbability = 1
	cfg.TensionThreshold = 0.1
	cfg.TensionIncrement = 1
	cfg.ActivationThreshold = 1
	cfg.DecayRate = 0.5
	cfg.TickBudget = 50
	cfg.ArrestTick = 0
	return cfg
}

func withFaults(cfg kernel.Config, f kernel.Fault, ids ...int) kernel.Config {
	cfg.Faults = make(map[int]kernel.Fault, len(ids))
	for _, id := range ids {
		cfg.Faults[id] = f
	}
	return cfg
}

// driftNodes are the nodes prone to merotelic attachment in the misattachment
// presets.
var driftNodes = []int{0, 1, 2, 3}

// misattachProne is baseline with error correction and a small chance that
// any attachment is merotelic.
func misattachProne() kernel.Config {
	cfg := kernel.DefaultConfig()
	cfg.ErrorCorrectionProbability = 0.05
	cfg.MisattachProbability = 0.05
	cfg.TickBudget = 1000
	return cfg
}

func init() {
	register(Scenario{
		Name:        Baseline,
		Description: "46 chromosome pairs with default kinetics",
		Expect:      expectCommit,
		config:      kernel.DefaultConfig,
	})

	register(Scenario{
		Name:        Trivial,
		Description: "three nodes, attach probability 1, large increment",
		Expect:      "commits on tick 1 with no violations",
		config:      tiny,
	})

	register(Scenario{
		Name:        StuckNode,
		Description: "scenario-a with node 2 given zero attach risk",
		Expect:      expectNoCommit,
		config:      tiny,
		options: func() []kernel.Option {
			return []kernel.Option{
				kernel.WithRisk(kernel.StaticRisk{2: {Attach: 0, Tension: 1, Correction: 1, Misattach: 1}}),
			}
		},
	})

	register(Scenario{
		Name:        ForcedCommit,
		Description: "scenario-a with node 2 stuck and a controller forced to commit at tick 3",
		Expect:      expectCaught,
		config:      func() kernel.Config { return withFaults(tiny(), kernel.FaultStuck, 2) },
		options: func() []kernel.Option {
			return []kernel.Option{kernel.WithPolicy(kernel.ForcedCommitPolicy{AtTick: 3})}
		},
	})

	register(Scenario{
		Name:        SilentBusOnly,
		Description: "one stuck node that never signals, judged by a controller that reads only the bus",
		Expect:      expectCaught,
		config:      func() kernel.Config { return withFaults(tiny(), kernel.FaultSilent, 1) },
		options: func() []kernel.Option {
			return []kernel.Option{
				kernel.WithRisk(kernel.StaticRisk{1: {Attach: 0, Tension: 1, Correction: 1, Misattach: 1}}),
				kernel.WithPolicy(kernel.BusOnlyPolicy{}),
			}
		},
	})

	register(Scenario{
		Name:        MAD2,
		Description: "baseline with four silent pairs under the quorum controller",
		Expect:      "commits only at full quorum; the silenced bus cannot cause a premature commit",
		config: func() kernel.Config {
			return withFaults(kernel.DefaultConfig(), kernel.FaultSilent, 0, 1, 2, 3, 4, 5, 6, 7)
		},
	})

	register(Scenario{
		Name:        WeakCTCF,
		Description: "baseline where READY nodes lose tension with probability 0.001 per tick",
		Expect:      expectCommit + ", later than baseline; destabilizations counted",
		config: func() kernel.Config {
			cfg := kernel.DefaultConfig()
			cfg.Destabilization = kernel.Destabilization{Enabled: true, Probability: 0.001}
			cfg.TickBudget = 1000
			return cfg
		},
	})

	register(Scenario{
		Name:        StrictWindow,
		Description: "baseline where tension must hold for three ticks before READY",
		Expect:      expectCommit,
		config: func() kernel.Config {
			cfg := kernel.DefaultConfig()
			cfg.StabilityWindow = 3
			return cfg
		},
	})

	register(Scenario{
		Name:        NoisyTension,
		Description: "baseline with gaussian tension noise and error-correction knock-back",
		Expect:      expectCommit + "; clamp events and knock-backs counted",
		config: func() kernel.Config {
			cfg := kernel.DefaultConfig()
			cfg.TensionNoise = 0.15
			cfg.ErrorCorrectionProbability = 0.02
			cfg.TickBudget = 1000
			return cfg
		},
	})

	register(Scenario{
		Name:        Merotelic,
		Description: "error correction on, 5% misattachment, nodes 0-3 drift to five times that rate",
		Expect:      expectCommit + "; misattachments released by error correction",
		config:      misattachProne,
		options: func() []kernel.Option {
			risk := kernel.StaticRisk{}
			for _, id := range driftNodes {
				risk[id] = kernel.Risk{Attach: 1, Tension: 1, Correction: 1, Misattach: 5}
			}
			return []kernel.Option{kernel.WithRisk(risk)}
		},
	})

	register(Scenario{
		Name:        Hyperstable,
		Description: "merotelic with nodes 0-3 always misattaching and error correction cut to a tenth on every node",
		Expect:      "never commits; arrest deadline passes; misattached nodes reported; no violations",
		config: func() kernel.Config {
			cfg := misattachProne()
			cfg.TickBudget = 250
			return cfg
		},
		options: func() []kernel.Option {
			return []kernel.Option{kernel.WithRisk(kernel.RiskFunc(func(_, node int) kernel.Risk {
				r := kernel.Risk{Attach: 1, Tension: 1, Correction: 0.1, Misattach: 1}
				if slices.Contains(driftNodes, node) {
					r.Misattach = 20
				}
				return r
			}))}
		},
	})
}
