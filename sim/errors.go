package sim

import "errors"

// Error categories surfaced by the driver. All of them abort the run;
// there are no recoverable per-particle errors (a particle leaving the
// grid is a normal runtime condition, not an error).
var (
	// ErrConfiguration indicates non-positive iterations, particles,
	// grid size, scale, or radius. Raised before any allocation.
	ErrConfiguration = errors.New("sim: invalid configuration")

	// ErrResourceExhausted indicates the displacement table or
	// occupancy map would exceed the allocation budget.
	ErrResourceExhausted = errors.New("sim: allocation budget exceeded")

	// ErrDispatch indicates the requested particle count exceeds the
	// configured parallel-dispatch cap.
	ErrDispatch = errors.New("sim: cannot dispatch particle workload")

	// ErrRunAborted indicates the run was cancelled at a phase barrier.
	// The occupancy map is discarded; a cancelled run yields no grid.
	ErrRunAborted = errors.New("sim: run aborted")
)
