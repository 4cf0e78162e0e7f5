package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/society/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Maintenance ")
	require.NoError(t, err)
	assert.Equal(t, CategoryMaintenance, c)

	c, err = ParseCategory("")
	require.NoError(t, err)
	assert.Equal(t, CategoryAll, c)

	_, err = ParseCategory("parking")
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestBillDefinition_AddCost(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	def, err := NewBillDefinition(uuid.New(), "April", CategoryMaintenance, start, start.AddDate(0, 1, 0), start.AddDate(0, 0, 10))
	require.NoError(t, err)

	item, err := def.AddCost("Lift repair", inr("20"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, item.ID)

	_, err = def.AddCost("lift REPAIR", inr("5"))
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields[0].Message, "duplicate")

	_, err = def.AddCost("Refund", inr("-5"))
	require.ErrorAs(t, err, &verr)
	assert.Len(t, def.AdditionalCosts, 1)
}

func TestNewBillDefinition_Validation(t *testing.T) {
	start := time.Now()
	_, err := NewBillDefinition(uuid.New(), "", CategoryAll, start, start, start)
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 3)
}
