package retrieval

import (
	"errors"
)

var (
	ErrUnauthenticated    = errors.New("authentication is required to retrieve this media")
	ErrWrongMediaCategory = errors.New("wrong media category")
	ErrReleased           = errors.New("lease was released")
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailed
)

func (phase Phase) String() string {
	switch phase {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	default:
		return "idle"
	}
}

// State is what a consumer renders. Empty strings stand for absent values.
type State struct {
	URL         string
	Loading     bool
	Error       string
	ContentType string
	Phase       Phase
}

func loadingState() State {
	return State{
		Loading: true,
		Phase:   PhaseLoading,
	}
}

func successState(result *Result) State {
	return State{
		URL:         result.URL,
		ContentType: result.ContentType,
		Phase:       PhaseSuccess,
	}
}

func failedState(err error) State {
	return State{
		Error: err.Error(),
		Phase: PhaseFailed,
	}
}
