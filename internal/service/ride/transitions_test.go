package ride

import (
	"errors"
	"testing"

	"github.com/hoblink/hoblink-backend/internal/domain/types"
)

func TestValidateTransition(t *testing.T) {
	allStatuses := []types.RideStatus{
		types.StatusPending,
		types.StatusAccepted,
		types.StatusInProgress,
		types.StatusCompleted,
		types.StatusCancelled,
	}

	legal := map[[2]types.RideStatus]bool{
		{types.StatusPending, types.StatusAccepted}:     true,
		{types.StatusPending, types.StatusCancelled}:    true,
		{types.StatusAccepted, types.StatusInProgress}:  true,
		{types.StatusAccepted, types.StatusCancelled}:   true,
		{types.StatusInProgress, types.StatusCompleted}: true,
	}

	// every pair, including self-transitions: everything outside the table
	// must be rejected with ErrInvalidTransition
	for _, from := range allStatuses {
		for _, to := range allStatuses {
			err := ValidateTransition(from, to)
			if legal[[2]types.RideStatus{from, to}] {
				if err != nil {
					t.Errorf("ValidateTransition(%s, %s) = %v, want nil", from, to, err)
				}
				continue
			}
			if !errors.Is(err, types.ErrInvalidTransition) {
				t.Errorf("ValidateTransition(%s, %s) = %v, want ErrInvalidTransition", from, to, err)
			}
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, terminal := range []types.RideStatus{types.StatusCompleted, types.StatusCancelled} {
		if !terminal.Terminal() {
			t.Errorf("%s.Terminal() = false", terminal)
		}
		if next, ok := allowedTransitions[terminal]; ok && len(next) > 0 {
			t.Errorf("terminal status %s has exits %v", terminal, next)
		}
	}
}
