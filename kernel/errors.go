package kernel

import "errors"

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrSafetyViolation  = errors.New("safety violation")
	ErrAlreadyFinalized = errors.New("verifier already finalized")
	ErrSnapshotOrder    = errors.New("snapshot out of order")
	ErrAlreadyRun       = errors.New("simulation already finished")
	ErrCommitted        = errors.New("controller already committed")
	ErrEmptyTrace       = errors.New("empty trace")
	ErrUnknownNodeState = errors.New("unknown node state")
)
