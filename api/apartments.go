package api

import (
	"net/http"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/service/apartments"
	"github.com/gin-gonic/gin"
)

type ApartmentHandler struct {
	service apartments.ApartmentUseCase
}

type apartmentRequest struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
	IsFavorite bool     `json:"is_favorite"`
}

type favoriteRequest struct {
	IsFavorite bool `json:"is_favorite"`
}

type apartmentResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
	IsFavorite bool     `json:"is_favorite"`
	CreatedAt  string   `json:"created_at,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

func NewApartmentHandler(service apartments.ApartmentUseCase) *ApartmentHandler {
	return &ApartmentHandler{service: service}
}

func (h *ApartmentHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.PATCH("/:id/favorite", h.setFavorite)
	router.DELETE("/:id", h.delete)
}

func (h *ApartmentHandler) create(c *gin.Context) {
	var req apartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apartment, err := h.service.Create(c.Request.Context(), apartments.CreateApartmentInput{
		Name:       req.Name,
		Properties: req.Properties,
		IsFavorite: req.IsFavorite,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toApartmentResponse(apartment))
}

func (h *ApartmentHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]apartmentResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toApartmentResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ApartmentHandler) get(c *gin.Context) {
	apartment, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApartmentResponse(apartment))
}

func (h *ApartmentHandler) update(c *gin.Context) {
	var req apartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apartment, err := h.service.Update(c.Request.Context(), c.Param("id"), apartments.UpdateApartmentInput{
		Name:       req.Name,
		Properties: req.Properties,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApartmentResponse(apartment))
}

func (h *ApartmentHandler) setFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	apartment, err := h.service.SetFavorite(c.Request.Context(), c.Param("id"), req.IsFavorite)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApartmentResponse(apartment))
}

func (h *ApartmentHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toApartmentResponse(a *domain.Apartment) apartmentResponse {
	resp := apartmentResponse{
		ID:         a.ID,
		Name:       a.Name,
		Properties: a.Properties,
		IsFavorite: a.IsFavorite,
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		resp.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}
