package kernel

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.True(t, DefaultConfig().MonotoneNodes())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalNodes = 0
	cfg.AttachProbability = 1.5
	cfg.DecayRate = 1
	cfg.TensionThreshold = math.NaN()
	cfg.ViolationMode = "lenient"
	cfg.MisattachProbability = -0.1

	err := cfg.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)
	for _, key := range []string{"total_nodes", "attach_probability", "decay_rate", "tension_threshold", "violation_mode", "misattach_probability"} {
		require.Contains(t, err.Error(), key)
	}
}

func TestValidateFaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TotalNodes = 4
	cfg.Faults = map[int]Fault{1: FaultSilent, 3: FaultStuck}
	require.NoError(t, cfg.Validate())

	cfg.Faults = map[int]Fault{4: FaultStuck}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg.Faults = map[int]Fault{0: "flaky"}
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDecodeConfigOverlaysDefaults(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(`
total_nodes: 10
violation_mode: fail_fast
destabilization:
  enabled: true
  probability: 0.05
faults:
  3: silent
`))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.TotalNodes)
	require.Equal(t, FailFast, cfg.ViolationMode)
	require.Equal(t, FaultSilent, cfg.Faults[3])
	require.False(t, cfg.MonotoneNodes())
	// untouched keys keep their defaults
	require.Equal(t, 0.8, cfg.TensionThreshold)
	require.Equal(t, 250, cfg.TickBudget)
}

func TestDecodeConfigRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeConfig(strings.NewReader("total_nodes: 3\nnode_count: 3\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDecodeConfigEmpty(t *testing.T) {
	cfg, err := DecodeConfig(strings.NewReader(""))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("seed: 7\nworkers: 4\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, int64(7), cfg.Seed)
	require.Equal(t, 4, cfg.Workers)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
