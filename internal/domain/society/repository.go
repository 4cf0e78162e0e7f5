package society

import (
	"context"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
)

// ApartmentTypeRepository persists apartment types
type ApartmentTypeRepository interface {
	FindAll(ctx context.Context, companyID uuid.UUID) ([]ApartmentType, error)
	ExistsByName(ctx context.Context, companyID uuid.UUID, name string) (bool, error)
	Save(ctx context.Context, t *ApartmentType) error
}

// ApartmentRepository persists apartments
type ApartmentRepository interface {
	FindByID(ctx context.Context, companyID, id uuid.UUID) (*Apartment, error)
	// FindAllForCompany lists apartments; Search matches number or tower
	FindAllForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) ([]Apartment, error)
	CountForCompany(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, a *Apartment) error
}
