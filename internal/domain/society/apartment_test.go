package society

import (
	"testing"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApartmentType(t *testing.T) {
	at, err := NewApartmentType(uuid.New(), " 2BHK ")
	require.NoError(t, err)
	assert.Equal(t, "2BHK", at.Name)

	_, err = NewApartmentType(uuid.New(), "")
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestNewApartment(t *testing.T) {
	companyID := uuid.New()
	typeID := uuid.New()

	apt, err := NewApartment(companyID, "1204", "B", 12, typeID)
	require.NoError(t, err)
	assert.Equal(t, "B-1204", apt.Label())
	assert.Equal(t, companyID, apt.CompanyID)

	apt.Tower = ""
	assert.Equal(t, "1204", apt.Label())

	_, err = NewApartment(companyID, "", "B", -1, uuid.Nil)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}
