package api

import (
	"net/http"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/service/bookings"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service bookings.BookingUseCase
}

type createBookingRequest struct {
	GuestName          string `json:"guest_name"`
	CheckIn            string `json:"check_in"`
	CheckOut           string `json:"check_out"`
	ApartmentID        string `json:"apartment_id,omitempty"`
	TemporaryApartment string `json:"temporary_apartment,omitempty"`
}

type updateBookingRequest struct {
	GuestName string `json:"guest_name"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
}

type assignApartmentRequest struct {
	ApartmentID string `json:"apartment_id"`
}

type assignTemporaryRequest struct {
	Label string `json:"label"`
}

type deleteManyRequest struct {
	IDs []string `json:"ids"`
}

type bookingResponse struct {
	ID                 string `json:"id"`
	GuestName          string `json:"guest_name"`
	CheckIn            string `json:"check_in"`
	CheckOut           string `json:"check_out"`
	Status             string `json:"status"`
	ApartmentID        string `json:"apartment_id,omitempty"`
	TemporaryApartment string `json:"temporary_apartment,omitempty"`
}

func NewBookingHandler(service bookings.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/", h.list)
	router.GET("/:id", h.get)
	router.PUT("/:id", h.update)
	router.PUT("/:id/apartment", h.assignApartment)
	router.PUT("/:id/temporary", h.assignTemporary)
	router.DELETE("/:id/apartment", h.unassign)
	router.DELETE("/:id", h.delete)
	router.DELETE("/", h.deleteMany)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.Create(c.Request.Context(), bookings.CreateBookingInput{
		GuestName:          req.GuestName,
		CheckIn:            checkIn,
		CheckOut:           checkOut,
		ApartmentID:        req.ApartmentID,
		TemporaryApartment: req.TemporaryApartment,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toBookingResponse(&list[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) update(c *gin.Context) {
	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.Update(c.Request.Context(), c.Param("id"), bookings.UpdateBookingInput{
		GuestName: req.GuestName,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) assignApartment(c *gin.Context) {
	var req assignApartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.AssignApartment(c.Request.Context(), c.Param("id"), req.ApartmentID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) assignTemporary(c *gin.Context) {
	var req assignTemporaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.AssignTemporary(c.Request.Context(), c.Param("id"), req.Label)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) unassign(c *gin.Context) {
	booking, err := h.service.Unassign(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) deleteMany(c *gin.Context) {
	var req deleteManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	deleted, err := h.service.DeleteMany(c.Request.Context(), req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := parseInstant(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := parseInstant(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}

// parseInstant accepts an RFC3339 timestamp or a bare YYYY-MM-DD date, which
// reads as midnight UTC. Same-day turnovers need the time part.
func parseInstant(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(dateFormat, s)
}

// formatInstant keeps the plain date shape for midnight instants and spells
// out the full timestamp otherwise, so intra-day check-ins round-trip.
func formatInstant(t time.Time) string {
	if h, m, sec := t.Clock(); h == 0 && m == 0 && sec == 0 {
		return t.Format(dateFormat)
	}
	return t.Format(time.RFC3339)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:        b.ID,
		GuestName: b.GuestName,
		CheckIn:   formatInstant(b.CheckIn),
		CheckOut:  formatInstant(b.CheckOut),
		Status:    string(b.Assignment.Kind()),
	}
	if aptID, ok := b.Assignment.ApartmentID(); ok {
		resp.ApartmentID = aptID
	}
	if label, ok := b.Assignment.TemporaryLabel(); ok {
		resp.TemporaryApartment = label
	}
	return resp
}
