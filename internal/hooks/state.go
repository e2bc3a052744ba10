package hooks

import (
	"errors"
	"time"

	"github.com/vietddude/storefront/internal/infra/api/apierr"
)

// Phase is where a resource sits in its fetch lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoaded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrInvalidTransition is returned when an invalid phase transition is attempted.
var ErrInvalidTransition = errors.New("invalid phase transition")

// ValidTransitions defines allowed phase transitions.
// Loading to Loading is a superseded fetch; Loading back to Idle or Loaded is
// a cancelled one.
var ValidTransitions = map[Phase][]Phase{
	PhaseIdle:    {PhaseLoading, PhaseLoaded},
	PhaseLoading: {PhaseLoading, PhaseLoaded, PhaseFailed, PhaseIdle},
	PhaseLoaded:  {PhaseLoading, PhaseLoaded},
	PhaseFailed:  {PhaseLoading, PhaseLoaded},
}

// CanTransition checks if a transition from one phase to another is valid.
func CanTransition(from, to Phase) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// State is a point-in-time view of a resource.
type State[T any] struct {
	Data    T
	Loading bool
	// Err wraps a *apierr.Error. It is never set by a cancelled fetch.
	Err   error
	Phase Phase
	// Generation identifies the fetch that produced this state.
	Generation uint64
	// Version increases on every change; subscribers may receive
	// notifications concurrently and use it to drop older ones.
	Version   uint64
	UpdatedAt time.Time
}

// Message renders Err for display. It is empty when there is no error.
func (s State[T]) Message() string {
	if s.Err == nil {
		return ""
	}
	return apierr.UserMessage(s.Err)
}

// Ready reports whether the last fetch settled successfully.
func (s State[T]) Ready() bool {
	return s.Phase == PhaseLoaded
}
