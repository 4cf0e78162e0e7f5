package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/society"
)

// CreateApartmentTypeRequest is the body of POST /apartment-types
type CreateApartmentTypeRequest struct {
	Name string `json:"name" binding:"required,max=64"`
}

// ApartmentTypeResponse describes an apartment type
type ApartmentTypeResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// NewApartmentTypeResponse converts an apartment type
func NewApartmentTypeResponse(t *society.ApartmentType) ApartmentTypeResponse {
	return ApartmentTypeResponse{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt}
}

// CreateApartmentRequest is the body of POST /apartments
type CreateApartmentRequest struct {
	Number          string `json:"number" binding:"required,max=16"`
	Tower           string `json:"tower" binding:"omitempty,max=16"`
	Floor           int    `json:"floor" binding:"min=0"`
	ApartmentTypeID string `json:"apartment_type_id" binding:"required,uuid"`
}

// ApartmentResponse describes an apartment
type ApartmentResponse struct {
	ID              uuid.UUID `json:"id"`
	Number          string    `json:"number"`
	Tower           string    `json:"tower,omitempty"`
	Floor           int       `json:"floor"`
	Label           string    `json:"label"`
	ApartmentTypeID uuid.UUID `json:"apartment_type_id"`
}

// NewApartmentResponse converts an apartment
func NewApartmentResponse(a *society.Apartment) ApartmentResponse {
	return ApartmentResponse{
		ID:              a.ID,
		Number:          a.Number,
		Tower:           a.Tower,
		Floor:           a.Floor,
		Label:           a.Label(),
		ApartmentTypeID: a.TypeID,
	}
}
