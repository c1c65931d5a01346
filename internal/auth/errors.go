package auth

import (
	"errors"
	"fmt"

	"github.com/nissyi-gh/teamflow/internal/api"
)

// Kind classifies an authentication failure.
type Kind int

const (
	// InvalidCredentials means the service rejected the email/password.
	InvalidCredentials Kind = iota + 1
	// ValidationFailed means the service rejected a field; see Error.Field.
	ValidationFailed
	// NetworkFailure means the service could not be reached or failed.
	NetworkFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidCredentials:
		return "invalid credentials"
	case ValidationFailed:
		return "validation failed"
	case NetworkFailure:
		return "network failure"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is against an *Error's kind.
var (
	ErrInvalidCredentials = &Error{Kind: InvalidCredentials}
	ErrValidationFailed   = &Error{Kind: ValidationFailed}
	ErrNetworkFailure     = &Error{Kind: NetworkFailure}
)

// Error is returned by Login and Register. Presenting it to a user is
// the caller's job.
type Error struct {
	Kind Kind
	// Field and Message carry the first field error for ValidationFailed,
	// or the service message otherwise.
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// classifyLogin treats every rejection of a login as bad credentials;
// services commonly answer a wrong password with a 422 on "email".
func classifyLogin(err error) *Error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && (apiErr.Validation() || apiErr.Unauthorized()) {
		return &Error{Kind: InvalidCredentials, Message: apiErr.UserMessage(""), Err: err}
	}
	return classify(err)
}

func classify(err error) *Error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Validation() && len(apiErr.Fields) > 0:
			first, _ := apiErr.FirstField()
			return &Error{Kind: ValidationFailed, Field: first.Field, Message: first.Message, Err: err}
		case apiErr.Unauthorized() || apiErr.Validation():
			return &Error{Kind: InvalidCredentials, Message: apiErr.Message, Err: err}
		}
		return &Error{Kind: NetworkFailure, Message: apiErr.Message, Err: err}
	}
	return &Error{Kind: NetworkFailure, Err: err}
}
