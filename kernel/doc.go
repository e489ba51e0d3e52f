// Package kernel implements the checkpoint consensus engine: a discrete-time
// simulation of a biological decision checkpoint run as a quorum protocol,
// with an online runtime verifier over the execution trace.
//
// Each tick runs a fixed pipeline:
//
//	Nodes → Bus → Controller → Verifier
//
// # Components
//
// Node: one checkpoint participant (a kinetochore). A small state machine
// UNATTACHED → ATTACHED_NO_TENSION → READY driven by seeded Bernoulli and
// additive tension draws. Non-ready nodes emit a constant inhibitory signal.
//
// Bus: the anonymous aggregate of all node signals with exponential decay
// (the diffusible checkpoint complex). It cannot tell which node dissents,
// only how much dissent remains.
//
// Controller: the write-once commit authority (APC/C). The default
// QuorumPolicy commits only when the bus is below the activation threshold
// AND every node is READY. Other policies exist to exercise the verifier.
//
// Verifier: an online monitor over snapshots. Safety formulas are checked on
// every Observe call and produce counter-examples; liveness formulas are
// resolved once by Finalize and are reported as confirmed or unconfirmed,
// never as violated, because a finite run cannot falsify "eventually".
//
// # Concurrency
//
// A Simulation is single-writer and not safe for concurrent use. All state
// lives in the Simulation value, so independent simulations may run in
// parallel (see package sweep). With Config.Workers > 1 the node phase fans
// out over goroutines using per-node random streams; the bus, controller and
// verifier always run after every node has stepped.
//
// # Usage
//
//	cfg := kernel.DefaultConfig()
//	cfg.Seed = 7
//	sim, err := kernel.NewSimulation(cfg, kernel.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	res, err := sim.Run(ctx)
package kernel
