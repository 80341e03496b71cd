package api

import (
	"errors"
	"net/http"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/service/apartments"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/avoronova/flatbook/internal/service/backup"
	"github.com/avoronova/flatbook/internal/service/bookings"
	"github.com/gin-gonic/gin"
)

const dateFormat = "2006-01-02"

// writeError maps service errors onto HTTP statuses. Conflicts carry the
// blocking booking so the client can show which stay is in the way.
func writeError(c *gin.Context, err error) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, gin.H{
			"error":        conflict.Error(),
			"apartment_id": conflict.ApartmentID,
			"booking_id":   conflict.BookingID,
		})
		return
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrHasBookings),
		errors.Is(err, bookings.ErrApartmentLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInterval),
		errors.Is(err, domain.ErrGuestNameRequired),
		errors.Is(err, domain.ErrEmptyAssignment),
		errors.Is(err, apartments.ErrNameRequired),
		errors.Is(err, bookings.ErrAmbiguousAssignment),
		errors.Is(err, backup.ErrInvalidArchive),
		errors.Is(err, auth.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
