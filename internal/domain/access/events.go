package access

import (
	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
)

// EventTypeGrantsChanged is published whenever a role's grant set is replaced
const EventTypeGrantsChanged = "access.grants_changed"

// GrantsChangedEvent signals that permission maps derived from the role are stale
type GrantsChangedEvent struct {
	shared.BaseDomainEvent
	RoleID uuid.UUID `json:"role_id"`
}

// NewGrantsChangedEvent creates the event for a role
func NewGrantsChangedEvent(roleID, companyID uuid.UUID) *GrantsChangedEvent {
	return &GrantsChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGrantsChanged, roleID, companyID),
		RoleID:          roleID,
	}
}
