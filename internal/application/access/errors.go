package access

import (
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/shared"
)

// DeniedError carries a non-granted decision out of a service call
type DeniedError struct {
	Decision access.Decision
}

func (e *DeniedError) Error() string {
	return "access denied: " + e.Decision.String()
}

// Is lets callers match on shared.ErrUnauthenticated or shared.ErrForbidden
func (e *DeniedError) Is(target error) bool {
	switch target {
	case shared.ErrUnauthenticated:
		return e.Decision.Outcome == access.DeniedUnauthorized
	case shared.ErrForbidden:
		return e.Decision.Outcome == access.DeniedRedirect
	}
	return false
}

// Enforce returns a DeniedError unless d is Granted
func Enforce(d access.Decision) error {
	if d.Allowed() {
		return nil
	}
	return &DeniedError{Decision: d}
}
