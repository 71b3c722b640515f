package sandbox

import "errors"

var (
	// ErrUnavailable means no sandbox backend was detected or configured.
	ErrUnavailable = errors.New("no sandbox available")

	// ErrTimeout means the command exceeded its wall-clock limit.
	ErrTimeout = errors.New("command timed out")
)

// UnavailableMessage is the stderr text returned when no backend exists.
const UnavailableMessage = "No sandbox available. Install bubblewrap (bwrap) or Docker."

// TimeoutExitCode is the return code reported for timed-out commands,
// matching coreutils timeout(1).
const TimeoutExitCode = 124
