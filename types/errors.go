package types

import "errors"

// Engine-level errors are structural misuse and surface to the caller.
// Adapter-level failures are wrapped in ErrSignalUnavailable by the adapters
// and always absorbed into the documented fallback values before they can
// reach the engine's decision path.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateID       = errors.New("duplicate incident id")
	ErrDuplicateVote     = errors.New("voter already voted on this incident")
	ErrAlreadyInProgress = errors.New("verification already in progress")
	ErrAlreadyVerified   = errors.New("incident already has a terminal verdict")
	ErrAwaitingDrone     = errors.New("incident awaits drone imagery; re-verify with a vision signal")
	ErrSignalUnavailable = errors.New("signal source unavailable")
	ErrNoLocation        = errors.New("report has no resolvable location")
)
