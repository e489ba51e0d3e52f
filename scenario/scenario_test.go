package scenario

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rfielding/checkpoint-ctl/kernel"
)

func runScenario(t *testing.T, name string) *kernel.Result {
	t.Helper()
	s, err := Lookup(name)
	require.NoError(t, err)
	sim, err := kernel.NewSimulation(s.Config(), s.Options()...)
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRegistry(t *testing.T) {
	all := All()
	require.Len(t, all, 11)
	for i := 1; i < len(all); i++ {
		require.Less(t, all[i-1].Name, all[i].Name)
	}
	for _, s := range all {
		require.NoError(t, s.Config().Validate(), s.Name)
		require.NotEmpty(t, s.Description, s.Name)
		require.NotEmpty(t, s.Expect, s.Name)
	}

	_, err := Lookup("anaphase")
	require.Error(t, err)
}

func TestConfigIsACopy(t *testing.T) {
	s, err := Lookup(ForcedCommit)
	require.NoError(t, err)
	cfg := s.Config()
	cfg.Faults[0] = kernel.FaultSilent
	require.NotContains(t, s.Config().Faults, 0)
}

func TestReferenceScenarios(t *testing.T) {
	res := runScenario(t, Trivial)
	require.Equal(t, 1, res.CommitTick)
	require.Empty(t, res.Violations)

	res = runScenario(t, StuckNode)
	require.False(t, res.Committed)
	require.Empty(t, res.Violations)
	status, _ := res.Liveness.Status(kernel.EventualCommitName)
	require.Equal(t, kernel.Unconfirmed, status)

	res = runScenario(t, ForcedCommit)
	require.Len(t, res.Violations, 1)
	require.Equal(t, 3, res.Violations[0].Tick)
	require.Equal(t, []int{2}, res.Violations[0].Offenders)
}

func TestBrokenControllerIsCaught(t *testing.T) {
	res := runScenario(t, SilentBusOnly)
	require.True(t, res.Committed)
	require.Len(t, res.Violations, 1)
	require.Equal(t, kernel.QuorumSafetyName, res.Violations[0].Formula)
	require.Equal(t, []int{1}, res.Violations[0].Offenders)
}

func TestStressScenariosStaySafe(t *testing.T) {
	for _, name := range []string{Baseline, MAD2, WeakCTCF, StrictWindow, NoisyTension, Merotelic} {
		t.Run(name, func(t *testing.T) {
			res := runScenario(t, name)
			require.Empty(t, res.Violations)
			require.True(t, res.Committed)
			last := res.Trace[len(res.Trace)-1]
			require.True(t, last.AllReady())
		})
	}
}

func TestNoisyScenarioRecordsDiagnostics(t *testing.T) {
	res := runScenario(t, NoisyTension)
	require.Positive(t, res.Diagnostics.ClampEvents)
}

func TestWeakCTCFDestabilizes(t *testing.T) {
	res := runScenario(t, WeakCTCF)
	require.True(t, res.Committed)
	require.Positive(t, res.Diagnostics.Destabilizations)
}

func TestMerotelicAttachmentsAreCorrected(t *testing.T) {
	s, err := Lookup(Merotelic)
	require.NoError(t, err)

	misattachments := 0
	for seed := int64(1); seed <= 5; seed++ {
		cfg := s.Config()
		cfg.Seed = seed
		sim, err := kernel.NewSimulation(cfg, s.Options()...)
		require.NoError(t, err)
		res, err := sim.Run(context.Background())
		require.NoError(t, err)

		require.True(t, res.Committed, "seed %d", seed)
		require.Empty(t, res.Violations)
		misattachments += res.Diagnostics.Misattachments
		if res.Diagnostics.Misattachments > 0 {
			require.Positive(t, res.Diagnostics.KnockBacks)
		}
	}
	require.Positive(t, misattachments)
}

func TestHyperstabilizedMerotelyArrests(t *testing.T) {
	res := runScenario(t, Hyperstable)
	require.False(t, res.Committed)
	require.Empty(t, res.Violations)
	require.Equal(t, kernel.StopBudget, res.StopReason)
	require.Equal(t, 200, res.Diagnostics.ArrestedAt)
	require.Subset(t, res.Diagnostics.MisattachedNodes, []int{0, 1, 2, 3})

	status, _ := res.Liveness.Status(kernel.EventualCommitName)
	require.Equal(t, kernel.Unconfirmed, status)

	last := res.Trace[len(res.Trace)-1]
	for _, id := range []int{0, 1, 2, 3} {
		require.NotEqual(t, kernel.Ready, last.States[id])
	}
}
