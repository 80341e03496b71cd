package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthUseCase struct {
	mock.Mock
}

func (m *MockAuthUseCase) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthUseCase) CreateUser(ctx context.Context, input auth.CreateUserInput) (*domain.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockAuthUseCase) ValidateToken(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

func newAuthedRouter(service auth.AuthUseCase, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", Authenticate(service))
	if role != "" {
		group = group.Group("/", RequireRole(role))
	}
	group.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": auth.ActorFrom(c.Request.Context())})
	})
	return router
}

func TestAuthenticate_MissingToken(t *testing.T) {
	mockService := &MockAuthUseCase{}
	router := newAuthedRouter(mockService, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertNotCalled(t, "ValidateToken")
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	mockService := &MockAuthUseCase{}
	router := newAuthedRouter(mockService, "")

	mockService.On("ValidateToken", "bad-token").Return(nil, auth.ErrInvalidToken).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}

func TestAuthenticate_SetsActor(t *testing.T) {
	mockService := &MockAuthUseCase{}
	router := newAuthedRouter(mockService, "")

	claims := &auth.Claims{UserID: "U1", Email: "admin@example.com", Role: "admin"}
	mockService.On("ValidateToken", "good-token").Return(claims, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@example.com")
}

func TestRequireRole_Forbidden(t *testing.T) {
	mockService := &MockAuthUseCase{}
	router := newAuthedRouter(mockService, "admin")

	claims := &auth.Claims{UserID: "U2", Email: "manager@example.com", Role: "manager"}
	mockService.On("ValidateToken", "manager-token").Return(claims, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer manager-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

// Admins pass role gates for other roles.
func TestRequireRole_AdminBypass(t *testing.T) {
	mockService := &MockAuthUseCase{}
	router := newAuthedRouter(mockService, "manager")

	claims := &auth.Claims{UserID: "U1", Email: "admin@example.com", Role: "admin"}
	mockService.On("ValidateToken", "admin-token").Return(claims, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
