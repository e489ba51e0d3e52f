package kernel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func snap(tick int, committed bool, states ...NodeState) Snapshot {
	return Snapshot{Tick: tick, States: states, Committed: committed}
}

func newCoreVerifier(t *testing.T, extra ...Formula) *Verifier {
	t.Helper()
	v, err := NewVerifier(append(CoreFormulas(), extra...)...)
	require.NoError(t, err)
	return v
}

func TestQuorumSafetyFlagsPrematureCommit(t *testing.T) {
	v := newCoreVerifier(t)

	found, err := v.Observe(snap(1, false, Unattached, Ready, Unattached))
	require.NoError(t, err)
	require.Empty(t, found)

	found, err = v.Observe(snap(2, true, Ready, Ready, AttachedNoTension))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, QuorumSafetyName, found[0].Formula)
	require.Equal(t, 2, found[0].Tick)
	require.Equal(t, []int{2}, found[0].Offenders)

	// Only the tick at which commit is first observed is checked.
	found, err = v.Observe(snap(3, true, Ready, Ready, AttachedNoTension))
	require.NoError(t, err)
	require.Empty(t, found)

	require.Len(t, v.Violations(), 1)
	require.Len(t, v.Trace(), 3)
}

func TestQuorumSafetyAcceptsSoundCommit(t *testing.T) {
	v := newCoreVerifier(t)

	found, err := v.Observe(snap(1, true, Ready, Ready))
	require.NoError(t, err)
	require.Empty(t, found)

	report, err := v.Finalize()
	require.NoError(t, err)
	status, ok := report.Status(EventualCommitName)
	require.True(t, ok)
	require.Equal(t, Confirmed, status)
	require.Equal(t, 1, report.Results[0].WitnessTick)
	require.Equal(t, 1, report.Ticks)
}

func TestLivenessUnconfirmedWithoutCommit(t *testing.T) {
	v := newCoreVerifier(t)
	for tick := 1; tick <= 5; tick++ {
		_, err := v.Observe(snap(tick, false, Ready, Unattached))
		require.NoError(t, err)
	}

	report, err := v.Finalize()
	require.NoError(t, err)
	status, _ := report.Status(EventualCommitName)
	require.Equal(t, Unconfirmed, status)
	require.Empty(t, v.Violations())
}

func TestVerifierLifecycleErrors(t *testing.T) {
	v := newCoreVerifier(t)

	_, err := v.Observe(snap(2, false, Ready))
	require.NoError(t, err)
	_, err = v.Observe(snap(2, false, Ready))
	require.ErrorIs(t, err, ErrSnapshotOrder)

	_, err = v.Finalize()
	require.NoError(t, err)
	require.True(t, v.Finalized())

	_, err = v.Finalize()
	require.ErrorIs(t, err, ErrAlreadyFinalized)
	_, err = v.Observe(snap(3, false, Ready))
	require.ErrorIs(t, err, ErrAlreadyFinalized)
}

type bogusFormula struct{}

func (bogusFormula) Name() string { return "bogus" }
func (bogusFormula) Expr() string { return "?" }

func TestNewVerifierRejectsUnknownShape(t *testing.T) {
	_, err := NewVerifier(bogusFormula{})
	require.Error(t, err)
}

func TestStructuralFormulas(t *testing.T) {
	v := newCoreVerifier(t, BusNonNegative{}, CommitMonotonic{}, ReadyMonotonic{})

	_, err := v.Observe(snap(1, false, Ready, AttachedNoTension))
	require.NoError(t, err)

	found, err := v.Observe(snap(2, false, AttachedNoTension, Ready))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, ReadyMonotonicName, found[0].Formula)
	require.Equal(t, []int{0}, found[0].Offenders)

	neg := snap(3, false, Ready, Ready)
	neg.Level = -1
	found, err = v.Observe(neg)
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, BusNonNegativeName, found[0].Formula)

	_, err = v.Observe(snap(4, true, Ready, Ready))
	require.NoError(t, err)
	found, err = v.Observe(snap(5, false, Ready, Ready))
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, CommitMonotonicName, found[0].Formula)

	// Violations accumulate and are never dropped.
	require.Len(t, v.Violations(), 3)
}

func TestStandardFormulasFollowConfig(t *testing.T) {
	cfg := DefaultConfig()
	names := func(fs []Formula) []string {
		var out []string
		for _, f := range fs {
			out = append(out, f.Name())
		}
		return out
	}

	require.Contains(t, names(StandardFormulas(cfg)), ReadyMonotonicName)

	cfg.Destabilization = Destabilization{Enabled: true, Probability: 0.1}
	require.NotContains(t, names(StandardFormulas(cfg)), ReadyMonotonicName)
	require.Contains(t, names(StandardFormulas(cfg)), QuorumSafetyName)
}
