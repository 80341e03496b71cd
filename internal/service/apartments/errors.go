package apartments

import (
	"errors"

	"github.com/avoronova/flatbook/internal/repository"
)

var (
	ErrNameRequired = errors.New("apartment name is required")

	// ErrNotFound and ErrHasBookings are the repository sentinels; re-exported
	// so handlers do not import the repository package.
	ErrNotFound    = repository.ErrNotFound
	ErrHasBookings = repository.ErrHasBookings
)
