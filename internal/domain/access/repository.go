package access

import (
	"context"

	"github.com/google/uuid"
)

// RoleRepository persists roles and their grants
type RoleRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Role, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Role, error)
	FindUserIDsByRole(ctx context.Context, roleID uuid.UUID) ([]uuid.UUID, error)
	Save(ctx context.Context, role *Role) error
}
