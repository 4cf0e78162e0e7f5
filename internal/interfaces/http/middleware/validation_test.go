package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Amount      string `json:"amount" binding:"required"`
	ApartmentID string `json:"apartment_id" binding:"required,uuid"`
}

func bind(t *testing.T, body string) error {
	t.Helper()
	SetupValidator()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	var req sampleRequest
	return c.ShouldBindJSON(&req)
}

func TestBindingError_Fields(t *testing.T) {
	err := bind(t, `{"apartment_id":"not-a-uuid"}`)
	require.Error(t, err)

	verr := BindingError(err)
	require.True(t, verr.HasErrors())

	byField := map[string]string{}
	for _, f := range verr.Fields {
		byField[f.Field] = f.Message
	}
	assert.Equal(t, "This field is required", byField["amount"])
	assert.Equal(t, "Invalid UUID format", byField["apartment_id"])
}

func TestBindingError_MalformedBody(t *testing.T) {
	err := bind(t, `{"amount":`)
	require.Error(t, err)

	verr := BindingError(err)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "", verr.Fields[0].Field)
}
