package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appsociety "github.com/society/backend/internal/application/society"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/society"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func apartmentRouter(svc ApartmentUsecase) *gin.Engine {
	h := NewApartmentHandler(svc)
	r := newRouter()
	r.GET("/apartment-types", h.ListTypes)
	r.POST("/apartment-types", h.CreateType)
	r.GET("/apartments", h.ListApartments)
	r.POST("/apartments", h.CreateApartment)
	return r
}

func TestApartmentHandler_CreateType(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := new(mockApartments)
		created, err := society.NewApartmentType(testCompanyID, "2BHK")
		require.NoError(t, err)
		svc.On("CreateType", mock.Anything, testCompanyID, "2BHK").Return(created, nil)

		rec := do(apartmentRouter(svc), http.MethodPost, "/apartment-types", dto.CreateApartmentTypeRequest{Name: "2BHK"})
		require.Equal(t, http.StatusCreated, rec.Code)
		var got dto.ApartmentTypeResponse
		decodeData(t, rec, &got)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "2BHK", got.Name)
	})

	t.Run("duplicate name is a field failure", func(t *testing.T) {
		svc := new(mockApartments)
		svc.On("CreateType", mock.Anything, testCompanyID, "2bhk").
			Return(nil, shared.NewValidationError(shared.FieldError{Field: "name", Message: "apartment type already exists: 2bhk"}))

		rec := do(apartmentRouter(svc), http.MethodPost, "/apartment-types", dto.CreateApartmentTypeRequest{Name: "2bhk"})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		env := decode(t, rec)
		assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
		assert.Equal(t, []string{"name"}, fieldNames(env.Error))
	})

	t.Run("empty body", func(t *testing.T) {
		svc := new(mockApartments)
		rec := do(apartmentRouter(svc), http.MethodPost, "/apartment-types", "{}")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		svc.AssertNotCalled(t, "CreateType", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestApartmentHandler_ListTypes(t *testing.T) {
	svc := new(mockApartments)
	a, _ := society.NewApartmentType(testCompanyID, "1BHK")
	b, _ := society.NewApartmentType(testCompanyID, "3BHK")
	svc.On("ListTypes", mock.Anything, testCompanyID).Return([]society.ApartmentType{*a, *b}, nil)

	rec := do(apartmentRouter(svc), http.MethodGet, "/apartment-types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []dto.ApartmentTypeResponse
	decodeData(t, rec, &got)
	require.Len(t, got, 2)
	assert.Equal(t, "1BHK", got[0].Name)
}

func TestApartmentHandler_ListApartments(t *testing.T) {
	svc := new(mockApartments)
	typeID := uuid.New()
	apt, err := society.NewApartment(testCompanyID, "101", "A", 1, typeID)
	require.NoError(t, err)
	svc.On("ListApartments", mock.Anything, testCompanyID, shared.Filter{
		Page: 2, PageSize: 10, OrderBy: "number", OrderDir: "asc", Search: "A",
	}).Return(&appsociety.ApartmentPage{Items: []society.Apartment{*apt}, Total: 11}, nil)

	rec := do(apartmentRouter(svc), http.MethodGet, "/apartments?page=2&page_size=10&search=A", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	env := decode(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(11), env.Meta.Total)
	svc.AssertExpectations(t)

	rec = do(apartmentRouter(svc), http.MethodGet, "/apartments?order_by=owner", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestApartmentHandler_CreateApartment(t *testing.T) {
	svc := new(mockApartments)
	typeID := uuid.New()
	apt, err := society.NewApartment(testCompanyID, "102", "B", 1, typeID)
	require.NoError(t, err)
	svc.On("CreateApartment", mock.Anything, testCompanyID, appsociety.CreateApartmentInput{
		Number: "102", Tower: "B", Floor: 1, TypeID: typeID,
	}).Return(apt, nil)

	rec := do(apartmentRouter(svc), http.MethodPost, "/apartments", dto.CreateApartmentRequest{
		Number: "102", Tower: "B", Floor: 1, ApartmentTypeID: typeID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got dto.ApartmentResponse
	decodeData(t, rec, &got)
	assert.Equal(t, typeID, got.ApartmentTypeID)
	assert.Equal(t, apt.Label(), got.Label)

	rec = do(apartmentRouter(svc), http.MethodPost, "/apartments", dto.CreateApartmentRequest{Number: "103", ApartmentTypeID: "nope"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, []string{"apartment_type_id"}, fieldNames(decode(t, rec).Error))
}
