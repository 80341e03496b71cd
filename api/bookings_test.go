package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/service/bookings"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) Create(ctx context.Context, input bookings.CreateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Update(ctx context.Context, id string, input bookings.UpdateBookingInput) (*domain.Booking, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) AssignApartment(ctx context.Context, bookingID, apartmentID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, apartmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) AssignTemporary(ctx context.Context, bookingID, label string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Unassign(ctx context.Context, bookingID string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingUseCase) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func mustApartment(id string) domain.Assignment {
	a, err := domain.AssignedToApartment(id)
	if err != nil {
		panic(err)
	}
	return a
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		GuestName: "Olga",
		CheckIn:   "2024-03-10",
		CheckOut:  "2024-03-14",
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID:         "B1",
		GuestName:  "Olga",
		CheckIn:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Assignment: domain.Unassigned(),
	}

	mockService.On("Create", c.Request.Context(), mock.AnythingOfType("bookings.CreateBookingInput")).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "B1", response.ID)
	assert.Equal(t, "2024-03-10", response.CheckIn)
	assert.Equal(t, string(domain.AssignmentNone), response.Status)
	assert.Empty(t, response.ApartmentID)

	mockService.AssertExpectations(t)
}

// A stay can carry a time of day, so an 11:00 check-out and an 11:00 check-in
// on the same date are expressible through the API.
func TestBookingHandler_create_TimestampStay(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		GuestName: "Ivan",
		CheckIn:   "2024-03-14T11:00:00Z",
		CheckOut:  "2024-03-18T11:00:00Z",
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	created := &domain.Booking{
		ID:         "B2",
		GuestName:  "Ivan",
		CheckIn:    time.Date(2024, 3, 14, 11, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 3, 18, 11, 0, 0, 0, time.UTC),
		Assignment: domain.Unassigned(),
	}

	mockService.On("Create", c.Request.Context(), mock.MatchedBy(func(input bookings.CreateBookingInput) bool {
		return input.CheckIn.Equal(created.CheckIn) && input.CheckOut.Equal(created.CheckOut)
	})).Return(created, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "2024-03-14T11:00:00Z", response.CheckIn)
	assert.Equal(t, "2024-03-18T11:00:00Z", response.CheckOut)

	mockService.AssertExpectations(t)
}

func TestBookingHandler_create_BadDate(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		GuestName: "Olga",
		CheckIn:   "not-a-date",
		CheckOut:  "2024-03-14",
	})
	c.Request = httptest.NewRequest("POST", "/bookings", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Create")
}

func TestBookingHandler_assignApartment_Conflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(assignApartmentRequest{ApartmentID: "A1"})
	c.Request = httptest.NewRequest("PUT", "/bookings/B2/apartment", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "B2"}}

	conflict := &domain.ConflictError{ApartmentID: "A1", BookingID: "B1"}
	mockService.On("AssignApartment", c.Request.Context(), "B2", "A1").Return(nil, conflict)

	handler.assignApartment(c)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "A1", response["apartment_id"])
	assert.Equal(t, "B1", response["booking_id"])

	mockService.AssertExpectations(t)
}

func TestBookingHandler_assignApartment_Success(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(assignApartmentRequest{ApartmentID: "A1"})
	c.Request = httptest.NewRequest("PUT", "/bookings/B1/apartment", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "B1"}}

	updated := &domain.Booking{
		ID:         "B1",
		GuestName:  "Olga",
		CheckIn:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		Assignment: mustApartment("A1"),
	}
	mockService.On("AssignApartment", c.Request.Context(), "B1", "A1").Return(updated, nil)

	handler.assignApartment(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response bookingResponse
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "A1", response.ApartmentID)
	assert.Equal(t, string(domain.AssignmentApartment), response.Status)
}

func TestBookingHandler_get_NotFound(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("GET", "/bookings/B9", nil)
	c.Params = gin.Params{{Key: "id", Value: "B9"}}

	mockService.On("GetByID", c.Request.Context(), "B9").Return(nil, bookings.ErrNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_deleteMany(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(deleteManyRequest{IDs: []string{"B1", "B2"}})
	c.Request = httptest.NewRequest("DELETE", "/bookings/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("DeleteMany", c.Request.Context(), []string{"B1", "B2"}).Return(int64(2), nil)

	handler.deleteMany(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]int64
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), response["deleted"])
}
