package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/rfielding/checkpoint-ctl/kernel"
	"github.com/rfielding/checkpoint-ctl/scenario"
)

const (
	ConfigKey      = "config"
	ScenarioKey    = "scenario"
	NodesKey       = "nodes"
	SeedKey        = "seed"
	TicksKey       = "ticks"
	ModeKey        = "mode"
	WorkersKey     = "workers"
	AttachKey      = "attach-probability"
	ThresholdKey   = "tension-threshold"
	IncrementKey   = "tension-increment"
	NoiseKey       = "tension-noise"
	ActivationKey  = "activation-threshold"
	DecayKey       = "decay-rate"
	DestabilizeKey = "destabilize"
	CorrectionKey  = "error-correction"
	MisattachKey   = "misattach-probability"
)

// AddSimFlags registers the flags that select and override a configuration.
func AddSimFlags(flags *pflag.FlagSet) {
	d := kernel.DefaultConfig()
	flags.String(ConfigKey, "", "YAML configuration file")
	flags.String(ScenarioKey, "", "Named scenario preset (see 'checkpoint scenarios')")
	flags.Int(NodesKey, d.TotalNodes, "Number of nodes")
	flags.Int64(SeedKey, d.Seed, "Random seed")
	flags.Int(TicksKey, d.TickBudget, "Tick budget")
	flags.String(ModeKey, string(d.ViolationMode), "Violation mode (fail_fast or audit)")
	flags.Int(WorkersKey, d.Workers, "Goroutines for the node phase")
	flags.Float64(AttachKey, d.AttachProbability, "Per-tick attach probability")
	flags.Float64(ThresholdKey, d.TensionThreshold, "Tension needed for READY")
	flags.Float64(IncrementKey, d.TensionIncrement, "Tension added per tick while attached")
	flags.Float64(NoiseKey, d.TensionNoise, "Standard deviation of tension noise")
	flags.Float64(ActivationKey, d.ActivationThreshold, "Bus level below which the controller may commit")
	flags.Float64(DecayKey, d.DecayRate, "Fraction of the bus level lost per tick")
	flags.Float64(DestabilizeKey, 0, "Per-tick probability that a READY node loses tension (0 disables)")
	flags.Float64(CorrectionKey, d.ErrorCorrectionProbability, "Per-tick probability that an attached, non-ready node is released")
	flags.Float64(MisattachKey, d.MisattachProbability, "Probability that an attachment is merotelic and cannot build tension")
}

// SimSetup is a configuration plus the simulation options of its scenario.
type SimSetup struct {
	Scenario string
	Config   kernel.Config
	Options  []kernel.Option
}

// ParseSimFlags resolves the configuration: scenario or config file first,
// then every flag set explicitly on the command line.
func ParseSimFlags(flags *pflag.FlagSet) (*SimSetup, error) {
	path, err := flags.GetString(ConfigKey)
	if err != nil {
		return nil, err
	}
	name, err := flags.GetString(ScenarioKey)
	if err != nil {
		return nil, err
	}

	setup := &SimSetup{Scenario: name, Config: kernel.DefaultConfig()}
	switch {
	case path != "" && name != "":
		return nil, fmt.Errorf("--%s and --%s cannot be combined", ConfigKey, ScenarioKey)
	case path != "":
		if setup.Config, err = kernel.LoadConfig(path); err != nil {
			return nil, err
		}
	case name != "":
		s, err := scenario.Lookup(name)
		if err != nil {
			return nil, err
		}
		setup.Config = s.Config()
		setup.Options = s.Options()
	}

	cfg := &setup.Config
	ints := map[string]*int{
		NodesKey:   &cfg.TotalNodes,
		TicksKey:   &cfg.TickBudget,
		WorkersKey: &cfg.Workers,
	}
	for key, dst := range ints {
		if !flags.Changed(key) {
			continue
		}
		if *dst, err = flags.GetInt(key); err != nil {
			return nil, err
		}
	}
	floats := map[string]*float64{
		AttachKey:     &cfg.AttachProbability,
		ThresholdKey:  &cfg.TensionThreshold,
		IncrementKey:  &cfg.TensionIncrement,
		NoiseKey:      &cfg.TensionNoise,
		ActivationKey: &cfg.ActivationThreshold,
		DecayKey:      &cfg.DecayRate,
		CorrectionKey: &cfg.ErrorCorrectionProbability,
		MisattachKey:  &cfg.MisattachProbability,
	}
	for key, dst := range floats {
		if !flags.Changed(key) {
			continue
		}
		if *dst, err = flags.GetFloat64(key); err != nil {
			return nil, err
		}
	}
	if flags.Changed(SeedKey) {
		if cfg.Seed, err = flags.GetInt64(SeedKey); err != nil {
			return nil, err
		}
	}
	if flags.Changed(ModeKey) {
		mode, err := flags.GetString(ModeKey)
		if err != nil {
			return nil, err
		}
		cfg.ViolationMode = kernel.ViolationMode(mode)
	}
	if flags.Changed(DestabilizeKey) {
		p, err := flags.GetFloat64(DestabilizeKey)
		if err != nil {
			return nil, err
		}
		cfg.Destabilization.Enabled = p > 0
		cfg.Destabilization.Probability = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return setup, nil
}
