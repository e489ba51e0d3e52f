package kernel

import (
	"fmt"
	"strings"
)

// TLASpec renders the node protocol enabled by cfg as a TLA+ module. The bus
// is abstracted away: the controller guard keeps only its quorum conjunct,
// which is the one safety depends on. Probabilities become nondeterministic
// choice, so the module states what can happen, not how likely it is.
func TLASpec(cfg Config, moduleName string) string {
	var tla strings.Builder

	tla.WriteString(fmt.Sprintf("---- MODULE %s ----\n", moduleName))
	tla.WriteString("EXTENDS Naturals, FiniteSets\n\n")

	tla.WriteString("CONSTANTS\n")
	tla.WriteString("    Nodes        \\* checkpoint participants\n\n")
	tla.WriteString(fmt.Sprintf("\\* configured with %d nodes, tension threshold %v, stability window %d\n\n",
		cfg.TotalNodes, cfg.TensionThreshold, cfg.StabilityWindow))

	tla.WriteString("VARIABLES\n")
	tla.WriteString("    state,       \\* node -> attachment state\n")
	tla.WriteString("    committed    \\* controller decision, write-once\n\n")
	tla.WriteString("vars == <<state, committed>>\n\n")

	tla.WriteString("States == {\"UNATTACHED\", \"ATTACHED_NO_TENSION\", \"READY\"}\n\n")

	tla.WriteString("TypeOK ==\n")
	tla.WriteString("    /\\ state \\in [Nodes -> States]\n")
	tla.WriteString("    /\\ committed \\in BOOLEAN\n\n")

	tla.WriteString("Init ==\n")
	tla.WriteString("    /\\ state = [n \\in Nodes |-> \"UNATTACHED\"]\n")
	tla.WriteString("    /\\ committed = FALSE\n\n")

	tla.WriteString("AllReady == \\A n \\in Nodes : state[n] = \"READY\"\n\n")

	var actions []string
	move := func(name, from, to, comment string) {
		actions = append(actions, name+"(n)")
		tla.WriteString(fmt.Sprintf("\\* %s\n", comment))
		tla.WriteString(fmt.Sprintf("%s(n) ==\n", name))
		tla.WriteString("    /\\ ~committed\n")
		tla.WriteString(fmt.Sprintf("    /\\ state[n] = \"%s\"\n", from))
		tla.WriteString(fmt.Sprintf("    /\\ state' = [state EXCEPT ![n] = \"%s\"]\n", to))
		tla.WriteString("    /\\ UNCHANGED committed\n\n")
	}

	if cfg.AttachProbability > 0 {
		move("Attach", "UNATTACHED", "ATTACHED_NO_TENSION",
			fmt.Sprintf("attach with probability %v per tick", cfg.AttachProbability))
	}
	if cfg.TensionIncrement > 0 || cfg.TensionNoise > 0 {
		move("Tension", "ATTACHED_NO_TENSION", "READY", "tension reaches the threshold")
	}
	if cfg.ErrorCorrectionProbability > 0 {
		move("Correct", "ATTACHED_NO_TENSION", "UNATTACHED",
			fmt.Sprintf("error correction with probability %v per tick", cfg.ErrorCorrectionProbability))
	}
	if !cfg.MonotoneNodes() {
		move("Destabilize", "READY", "ATTACHED_NO_TENSION",
			fmt.Sprintf("destabilization with probability %v per tick", cfg.Destabilization.Probability))
	}

	tla.WriteString("\\* controller: quorum conjunct of the commit guard\n")
	tla.WriteString("Commit ==\n")
	tla.WriteString("    /\\ ~committed\n")
	tla.WriteString("    /\\ AllReady\n")
	tla.WriteString("    /\\ committed' = TRUE\n")
	tla.WriteString("    /\\ UNCHANGED state\n\n")

	tla.WriteString("Next ==\n")
	for _, a := range actions {
		tla.WriteString(fmt.Sprintf("    \\/ \\E n \\in Nodes : %s\n", a))
	}
	tla.WriteString("    \\/ Commit\n\n")

	tla.WriteString("Spec == Init /\\ [][Next]_vars /\\ WF_vars(Next)\n\n")

	tla.WriteString("\\* Safety: never commit without full quorum\n")
	tla.WriteString("QuorumSafety == [](committed => AllReady)\n\n")
	tla.WriteString("CommitMonotonic == [][committed => committed']_vars\n\n")

	tla.WriteString("\\* Liveness: eventually commit\n")
	tla.WriteString("EventualCommit == <>committed\n\n")

	tla.WriteString("====\n")
	return tla.String()
}
