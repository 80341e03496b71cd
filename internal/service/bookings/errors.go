package bookings

import (
	"errors"

	"github.com/avoronova/flatbook/internal/repository"
)

var (
	// ErrApartmentLocked means another request holds the apartment's
	// single-writer lock; the caller should retry.
	ErrApartmentLocked = errors.New("apartment is being assigned by another request")

	ErrAmbiguousAssignment = errors.New("a booking cannot target both an apartment and a temporary accommodation")

	ErrNotFound = repository.ErrNotFound
)
