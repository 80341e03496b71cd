package bookings

import (
	"context"
	"strconv"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/observability"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/scheduling"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type BookingUseCase interface {
	Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	Update(ctx context.Context, id string, input UpdateBookingInput) (*domain.Booking, error)
	AssignApartment(ctx context.Context, bookingID, apartmentID string) (*domain.Booking, error)
	AssignTemporary(ctx context.Context, bookingID, label string) (*domain.Booking, error)
	Unassign(ctx context.Context, bookingID string) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// Locker is the per-apartment single-writer lock. Assignment checks and
// writes for one apartment run under it, so two concurrent callers cannot
// both observe "available" and then both commit.
type Locker interface {
	AcquireAssignLock(ctx context.Context, apartmentID string, ttl time.Duration) (bool, error)
	ReleaseAssignLock(ctx context.Context, apartmentID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateBookingInput struct {
	GuestName          string    `json:"guest_name"`
	CheckIn            time.Time `json:"check_in"`
	CheckOut           time.Time `json:"check_out"`
	ApartmentID        string    `json:"apartment_id,omitempty"`
	TemporaryApartment string    `json:"temporary_apartment,omitempty"`
}

type UpdateBookingInput struct {
	GuestName string    `json:"guest_name"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
}

type Service struct {
	bookings   repository.BookingRepository
	apartments repository.ApartmentRepository
	locker     Locker
	producer   Producer
	auditTopic string
	lockTTL    time.Duration
	log        zerolog.Logger
}

func NewService(
	bookings repository.BookingRepository,
	apartments repository.ApartmentRepository,
	locker Locker,
	producer Producer,
	auditTopic string,
	lockTTL time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		bookings:   bookings,
		apartments: apartments,
		locker:     locker,
		producer:   producer,
		auditTopic: auditTopic,
		lockTTL:    lockTTL,
		log:        log,
	}
}

func (s *Service) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.ApartmentID != "" && input.TemporaryApartment != "" {
		return nil, ErrAmbiguousAssignment
	}

	booking := &domain.Booking{
		ID:         uuid.NewString(),
		GuestName:  input.GuestName,
		CheckIn:    input.CheckIn,
		CheckOut:   input.CheckOut,
		Assignment: domain.Unassigned(),
	}
	if err := booking.Validate(); err != nil {
		return nil, err
	}

	switch {
	case input.ApartmentID != "":
		// Pre-assigned creation goes through the same gate as manual
		// assignment.
		if err := s.withApartmentLock(ctx, input.ApartmentID, func() error {
			if err := s.checkConflict(ctx, input.ApartmentID, booking.CheckIn, booking.CheckOut, booking.ID); err != nil {
				return err
			}
			assignment, err := domain.AssignedToApartment(input.ApartmentID)
			if err != nil {
				return err
			}
			booking.Assignment = assignment
			return s.bookings.Create(ctx, booking)
		}); err != nil {
			return nil, err
		}
	case input.TemporaryApartment != "":
		assignment, err := domain.AssignedTemporary(input.TemporaryApartment)
		if err != nil {
			return nil, err
		}
		booking.Assignment = assignment
		if err := s.bookings.Create(ctx, booking); err != nil {
			return nil, err
		}
	default:
		if err := s.bookings.Create(ctx, booking); err != nil {
			return nil, err
		}
	}

	s.audit(ctx, domain.AuditBookingCreated, booking.ID, map[string]string{"guest": booking.GuestName})
	return booking, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

func (s *Service) Update(ctx context.Context, id string, input UpdateBookingInput) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	booking.GuestName = input.GuestName
	booking.CheckIn = input.CheckIn
	booking.CheckOut = input.CheckOut
	if err := booking.Validate(); err != nil {
		return nil, err
	}

	if aptID, ok := booking.Assignment.ApartmentID(); ok {
		err = s.withApartmentLock(ctx, aptID, func() error {
			if err := s.checkConflict(ctx, aptID, booking.CheckIn, booking.CheckOut, booking.ID); err != nil {
				return err
			}
			return s.bookings.Update(ctx, booking)
		})
	} else {
		err = s.bookings.Update(ctx, booking)
	}
	if err != nil {
		return nil, err
	}

	s.audit(ctx, domain.AuditBookingUpdated, booking.ID, map[string]string{"guest": booking.GuestName})
	return booking, nil
}

// AssignApartment is the manual assignment path. It applies the same overlap
// gate as the batch assigner: the apartment is offered only when no existing
// stay on it overlaps the booking's half-open window.
func (s *Service) AssignApartment(ctx context.Context, bookingID, apartmentID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.apartments.GetByID(ctx, apartmentID); err != nil {
		return nil, err
	}

	assignment, err := domain.AssignedToApartment(apartmentID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Booking
	err = s.withApartmentLock(ctx, apartmentID, func() error {
		if err := s.checkConflict(ctx, apartmentID, booking.CheckIn, booking.CheckOut, booking.ID); err != nil {
			return err
		}
		u, err := s.bookings.SetAssignment(ctx, bookingID, assignment)
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		if _, ok := err.(*domain.ConflictError); ok {
			observability.ObserveAssignment("manual", "conflict")
		}
		return nil, err
	}

	observability.ObserveAssignment("manual", "assigned")
	s.audit(ctx, domain.AuditBookingAssigned, bookingID, map[string]string{"apartment_id": apartmentID})
	return updated, nil
}

func (s *Service) AssignTemporary(ctx context.Context, bookingID, label string) (*domain.Booking, error) {
	assignment, err := domain.AssignedTemporary(label)
	if err != nil {
		return nil, err
	}

	updated, err := s.bookings.SetAssignment(ctx, bookingID, assignment)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, domain.AuditBookingAssigned, bookingID, map[string]string{"temporary": label})
	return updated, nil
}

func (s *Service) Unassign(ctx context.Context, bookingID string) (*domain.Booking, error) {
	updated, err := s.bookings.SetAssignment(ctx, bookingID, domain.Unassigned())
	if err != nil {
		return nil, err
	}

	s.audit(ctx, domain.AuditBookingUnassigned, bookingID, nil)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.bookings.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, domain.AuditBookingDeleted, id, nil)
	return nil
}

func (s *Service) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	deleted, err := s.bookings.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.audit(ctx, domain.AuditBookingDeleted, "bulk", map[string]string{"count": strconv.FormatInt(deleted, 10)})
	}
	return deleted, nil
}

func (s *Service) checkConflict(ctx context.Context, apartmentID string, checkIn, checkOut time.Time, excludeID string) error {
	existing, err := s.bookings.ListByApartment(ctx, apartmentID)
	if err != nil {
		return err
	}
	if hit := scheduling.FindConflict(existing, apartmentID, checkIn, checkOut, excludeID); hit != nil {
		return &domain.ConflictError{ApartmentID: apartmentID, BookingID: hit.ID}
	}
	return nil
}

func (s *Service) withApartmentLock(ctx context.Context, apartmentID string, fn func() error) error {
	if s.locker != nil {
		ok, err := s.locker.AcquireAssignLock(ctx, apartmentID, s.lockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return ErrApartmentLocked
		}
		defer func() {
			_ = s.locker.ReleaseAssignLock(ctx, apartmentID)
		}()
	}
	return fn()
}

func (s *Service) audit(ctx context.Context, action domain.AuditAction, entityID string, details map[string]string) {
	if s.producer == nil || s.auditTopic == "" {
		return
	}
	event := kafka.AuditEvent{
		Action:     action,
		EntityType: "booking",
		EntityID:   entityID,
		Actor:      auth.ActorFrom(ctx),
		Details:    details,
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.auditTopic, entityID, event); err != nil {
		s.log.Warn().Err(err).Str("action", string(action)).Msg("audit publish failed")
	}
}

var _ BookingUseCase = (*Service)(nil)
