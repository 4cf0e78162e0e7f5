package remote

import (
	"errors"
	"fmt"

	"github.com/society/backend/internal/domain/shared"
)

// Kind classifies a failed call
type Kind int

const (
	// KindTransport is a network failure or a server-side (5xx) error
	KindTransport Kind = iota
	// KindUnauthenticated means no valid identity or token (401)
	KindUnauthenticated
	// KindUnauthorized means the capability is missing or out of scope (403)
	KindUnauthorized
	// KindValidation is any other 4xx, per field or global
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	default:
		return "transport"
	}
}

// Error is a failed REST call
type Error struct {
	Kind     Kind
	Status   int
	Code     string
	Message  string
	Redirect string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("remote %s failure: %v", e.Kind, e.Err)
	case e.Code != "":
		return fmt.Sprintf("remote %s failure (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	default:
		return fmt.Sprintf("remote %s failure (%d)", e.Kind, e.Status)
	}
}

// Unwrap exposes the cause; for validation failures that is a
// *shared.ValidationError carrying the field errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the shared sentinels for the identity kinds
func (e *Error) Is(target error) bool {
	switch target {
	case shared.ErrUnauthenticated:
		return e.Kind == KindUnauthenticated
	case shared.ErrForbidden:
		return e.Kind == KindUnauthorized
	}
	return false
}

// IsTransport reports whether err is a transport failure
func IsTransport(err error) bool {
	var rerr *Error
	return errors.As(err, &rerr) && rerr.Kind == KindTransport
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthenticated
	case status == 403:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindValidation
	default:
		return KindTransport
	}
}
