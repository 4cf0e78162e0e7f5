// Package society manages apartment types and apartments.
package society

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/society"
	"go.uber.org/zap"
)

// ApartmentService handles apartment types and apartments of a company
type ApartmentService struct {
	types      society.ApartmentTypeRepository
	apartments society.ApartmentRepository
	logger     *zap.Logger
}

// NewApartmentService creates the service
func NewApartmentService(types society.ApartmentTypeRepository, apartments society.ApartmentRepository, logger *zap.Logger) *ApartmentService {
	return &ApartmentService{types: types, apartments: apartments, logger: logger}
}

// ListTypes returns every apartment type of the company
func (s *ApartmentService) ListTypes(ctx context.Context, companyID uuid.UUID) ([]society.ApartmentType, error) {
	return s.types.FindAll(ctx, companyID)
}

// CreateType adds an apartment type. A name already used in the company,
// compared case-insensitively, is a field-level validation failure.
func (s *ApartmentService) CreateType(ctx context.Context, companyID uuid.UUID, name string) (*society.ApartmentType, error) {
	t, err := society.NewApartmentType(companyID, name)
	if err != nil {
		return nil, err
	}
	exists, err := s.types.ExistsByName(ctx, companyID, t.Name)
	if err != nil {
		return nil, fmt.Errorf("check apartment type name: %w", err)
	}
	if exists {
		return nil, duplicateName(t.Name)
	}
	if err := s.types.Save(ctx, t); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, duplicateName(t.Name)
		}
		return nil, fmt.Errorf("save apartment type: %w", err)
	}
	s.logger.Info("Apartment type created",
		zap.String("company_id", companyID.String()),
		zap.String("name", t.Name))
	return t, nil
}

func duplicateName(name string) error {
	return shared.NewValidationError(shared.FieldError{Field: "name", Message: "apartment type already exists: " + name})
}

// ApartmentPage is one page of apartments
type ApartmentPage struct {
	Items []society.Apartment
	Total int64
}

// ListApartments returns a page of apartments matching the filter
func (s *ApartmentService) ListApartments(ctx context.Context, companyID uuid.UUID, filter shared.Filter) (*ApartmentPage, error) {
	items, err := s.apartments.FindAllForCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.apartments.CountForCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	return &ApartmentPage{Items: items, Total: total}, nil
}

// CreateApartmentInput describes a new apartment
type CreateApartmentInput struct {
	Number string
	Tower  string
	Floor  int
	TypeID uuid.UUID
}

// CreateApartment adds an apartment of a known type
func (s *ApartmentService) CreateApartment(ctx context.Context, companyID uuid.UUID, in CreateApartmentInput) (*society.Apartment, error) {
	a, err := society.NewApartment(companyID, in.Number, in.Tower, in.Floor, in.TypeID)
	if err != nil {
		return nil, err
	}
	types, err := s.types.FindAll(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(types, func(t society.ApartmentType) bool { return t.ID == in.TypeID }) {
		return nil, shared.NewValidationError(shared.FieldError{Field: "apartment_type", Message: "unknown apartment type"})
	}
	if err := s.apartments.Save(ctx, a); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewValidationError(shared.FieldError{Field: "number", Message: "apartment already exists: " + a.Label()})
		}
		return nil, fmt.Errorf("save apartment: %w", err)
	}
	return a, nil
}
