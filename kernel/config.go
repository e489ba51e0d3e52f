package kernel

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// ViolationMode selects what a run does after a safety violation.
type ViolationMode string

const (
	// FailFast stops the run right after the violating tick is recorded.
	FailFast ViolationMode = "fail_fast"
	// Audit keeps running and collects every violation.
	Audit ViolationMode = "audit"
)

// Fault injects a node-level defect for stress scenarios.
type Fault string

const (
	FaultNone Fault = ""
	// FaultSilent nodes never emit inhibitory signal, even when not ready.
	// Their state is still reported truthfully.
	FaultSilent Fault = "silent"
	// FaultStuck nodes never attach.
	FaultStuck Fault = "stuck"
)

// Destabilization lets a READY node fall back to ATTACHED_NO_TENSION.
// Enabling it relaxes node monotonicity.
type Destabilization struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	Probability float64 `yaml:"probability" json:"probability"`
	// KeepTension retains the tension value instead of resetting it to 0.
	KeepTension bool `yaml:"keep_tension" json:"keep_tension"`
}

// Config holds the parameters of one run. Values are fixed for the duration
// of the run.
type Config struct {
	TotalNodes int `yaml:"total_nodes" json:"total_nodes"`

	// Node transition rule
	TensionThreshold           float64         `yaml:"tension_threshold" json:"tension_threshold"`
	AttachProbability          float64         `yaml:"attach_probability" json:"attach_probability"`
	TensionIncrement           float64         `yaml:"tension_increment" json:"tension_increment"`
	TensionNoise               float64         `yaml:"tension_noise" json:"tension_noise"`
	StabilityWindow            int             `yaml:"stability_window" json:"stability_window"`
	ErrorCorrectionProbability float64         `yaml:"error_correction_probability" json:"error_correction_probability"`
	MisattachProbability       float64         `yaml:"misattach_probability" json:"misattach_probability"`
	Destabilization            Destabilization `yaml:"destabilization" json:"destabilization"`
	Faults                     map[int]Fault   `yaml:"faults,omitempty" json:"faults,omitempty"`

	// Bus and controller
	ActivationThreshold float64 `yaml:"activation_threshold" json:"activation_threshold"`
	DecayRate           float64 `yaml:"decay_rate" json:"decay_rate"`
	InitialLevel        float64 `yaml:"initial_level" json:"initial_level"`
	UnitSignal          float64 `yaml:"unit_signal" json:"unit_signal"`

	// Run control
	TickBudget    int           `yaml:"tick_budget" json:"tick_budget"`
	ArrestTick    int           `yaml:"arrest_tick" json:"arrest_tick"`
	ViolationMode ViolationMode `yaml:"violation_mode" json:"violation_mode"`
	Seed          int64         `yaml:"seed" json:"seed"`
	Workers       int           `yaml:"workers" json:"workers"`
}

// DefaultConfig returns a human-cell sized configuration: 46 chromosomes with
// two kinetochores each.
func DefaultConfig() Config {
	return Config{
		TotalNodes:          92,
		TensionThreshold:    0.8,
		AttachProbability:   0.1,
		TensionIncrement:    0.2,
		StabilityWindow:     1,
		ActivationThreshold: 5.0,
		DecayRate:           0.2,
		UnitSignal:          1.0,
		TickBudget:          250,
		ArrestTick:          200,
		ViolationMode:       Audit,
		Seed:                1,
		Workers:             1,
	}
}

// Validate checks every parameter and reports all problems at once.
// The returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	var errs error
	bad := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf(format, args...))
	}

	if c.TotalNodes <= 0 {
		bad("total_nodes must be positive, got %d", c.TotalNodes)
	}
	// Comparisons are written so that NaN fails them.
	if !(c.TensionThreshold > 0 && c.TensionThreshold <= 1) {
		bad("tension_threshold must be in (0,1], got %v", c.TensionThreshold)
	}
	if !inUnit(c.AttachProbability) {
		bad("attach_probability must be in [0,1], got %v", c.AttachProbability)
	}
	if !(c.TensionIncrement >= 0) {
		bad("tension_increment must be non-negative, got %v", c.TensionIncrement)
	}
	if !(c.TensionNoise >= 0) {
		bad("tension_noise must be non-negative, got %v", c.TensionNoise)
	}
	if c.StabilityWindow < 1 {
		bad("stability_window must be at least 1, got %d", c.StabilityWindow)
	}
	if !inUnit(c.ErrorCorrectionProbability) {
		bad("error_correction_probability must be in [0,1], got %v", c.ErrorCorrectionProbability)
	}
	if !inUnit(c.MisattachProbability) {
		bad("misattach_probability must be in [0,1], got %v", c.MisattachProbability)
	}
	if !inUnit(c.Destabilization.Probability) {
		bad("destabilization.probability must be in [0,1], got %v", c.Destabilization.Probability)
	}
	if !(c.ActivationThreshold >= 0) {
		bad("activation_threshold must be non-negative, got %v", c.ActivationThreshold)
	}
	if !(c.DecayRate >= 0 && c.DecayRate < 1) {
		bad("decay_rate must be in [0,1), got %v", c.DecayRate)
	}
	if !(c.InitialLevel >= 0) {
		bad("initial_level must be non-negative, got %v", c.InitialLevel)
	}
	if !(c.UnitSignal > 0) {
		bad("unit_signal must be positive, got %v", c.UnitSignal)
	}
	if c.TickBudget <= 0 {
		bad("tick_budget must be positive, got %d", c.TickBudget)
	}
	if c.ArrestTick < 0 {
		bad("arrest_tick must be non-negative, got %d", c.ArrestTick)
	}
	switch c.ViolationMode {
	case FailFast, Audit:
	default:
		bad("violation_mode must be %q or %q, got %q", FailFast, Audit, c.ViolationMode)
	}
	if c.Workers < 0 {
		bad("workers must be non-negative, got %d", c.Workers)
	}
	for id, f := range c.Faults {
		if id < 0 || id >= c.TotalNodes {
			bad("fault for node %d is outside [0,%d)", id, c.TotalNodes)
		}
		switch f {
		case FaultNone, FaultSilent, FaultStuck:
		default:
			bad("unknown fault %q for node %d", f, id)
		}
	}

	if errs != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errs)
	}
	return nil
}

// MonotoneNodes reports whether READY is terminal for every node.
func (c Config) MonotoneNodes() bool {
	return !c.Destabilization.Enabled || c.Destabilization.Probability == 0
}

func inUnit(x float64) bool { return x >= 0 && x <= 1 }

// DecodeConfig reads YAML from r on top of DefaultConfig. Unknown keys are
// rejected.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	return DecodeConfig(f)
}
