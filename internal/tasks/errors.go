package tasks

import (
	"errors"
	"fmt"

	"github.com/nissyi-gh/teamflow/internal/api"
)

// Kind classifies a failed load or mutation.
type Kind int

const (
	NetworkFailure Kind = iota + 1
	Unauthorized
	ValidationFailed
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network failure"
	case Unauthorized:
		return "unauthorized"
	case ValidationFailed:
		return "rejected"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrStale is returned by Load when a newer fetch has already been
	// applied, or the controller was closed. The result was discarded.
	ErrStale = errors.New("stale task list response")

	// ErrBusy is returned when a mutation is attempted while another is
	// still in flight.
	ErrBusy = errors.New("another action is in progress")

	// ErrNotConfirmed is returned by Delete when the user declined.
	ErrNotConfirmed = errors.New("delete not confirmed")
)

// LoadError reports a failed task fetch. The previous list is kept.
type LoadError struct {
	Kind Kind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load tasks: %s: %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Message is the text to show for a failed load.
func (e *LoadError) Message() string {
	if e.Kind == Unauthorized {
		return "Your session has expired. Please log in again."
	}
	return "Failed to load tasks."
}

// MutationError reports a refused or failed change. Message is the
// service's explanation when it gave one.
type MutationError struct {
	Op      string
	Kind    Kind
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *MutationError) Unwrap() error { return e.Err }

// UserMessage returns Message, or fallback when the service gave none.
func (e *MutationError) UserMessage(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

func classifyLoad(err error) *LoadError {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Unauthorized() {
		return &LoadError{Kind: Unauthorized, Err: err}
	}
	return &LoadError{Kind: NetworkFailure, Err: err}
}

func classifyMutation(op string, err error) *MutationError {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		kind := ValidationFailed
		switch {
		case apiErr.Unauthorized():
			kind = Unauthorized
		case apiErr.ServerFault():
			kind = NetworkFailure
		}
		return &MutationError{Op: op, Kind: kind, Message: apiErr.UserMessage(""), Err: err}
	}
	return &MutationError{Op: op, Kind: NetworkFailure, Err: err}
}
