package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLASpec(t *testing.T) {
	tla := TLASpec(DefaultConfig(), "Checkpoint")

	require.Contains(t, tla, "---- MODULE Checkpoint ----\n")
	require.Contains(t, tla, "Attach(n) ==\n")
	require.Contains(t, tla, "    \\/ \\E n \\in Nodes : Tension(n)\n")
	require.Contains(t, tla, "QuorumSafety == [](committed => AllReady)")
	require.NotContains(t, tla, "Destabilize")
	require.NotContains(t, tla, "Correct(n)")
	require.Contains(t, tla, "\n====\n")
}

func TestTLASpecFollowsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AttachProbability = 0
	cfg.ErrorCorrectionProbability = 0.1
	cfg.Destabilization = Destabilization{Enabled: true, Probability: 0.05}

	tla := TLASpec(cfg, "Weak")
	require.NotContains(t, tla, "Attach(n)")
	require.Contains(t, tla, "Correct(n) ==\n")
	require.Contains(t, tla, "Destabilize(n) ==\n")
	require.Contains(t, tla, "destabilization with probability 0.05 per tick")
}
