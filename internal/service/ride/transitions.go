package ride

import (
	"fmt"

	"github.com/hoblink/hoblink-backend/internal/domain/types"
)

// allowedTransitions is the full lifecycle: forward moves only, cancellation
// from the two pre-trip states, terminal states immutable.
var allowedTransitions = map[types.RideStatus][]types.RideStatus{
	types.StatusPending:    {types.StatusAccepted, types.StatusCancelled},
	types.StatusAccepted:   {types.StatusInProgress, types.StatusCancelled},
	types.StatusInProgress: {types.StatusCompleted},
}

// ValidateTransition checks a move against the lifecycle table. It runs
// before any persistence attempt, so an illegal request never reaches the
// database.
func ValidateTransition(from, to types.RideStatus) error {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, from, to)
}
