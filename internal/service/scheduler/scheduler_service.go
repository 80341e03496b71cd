package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/observability"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/scheduling"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/rs/zerolog"
)

type SchedulerUseCase interface {
	Availability(ctx context.Context, start, end time.Time) ([]domain.Apartment, error)
	AutoAssign(ctx context.Context) (*BatchResult, error)
	BestDates(ctx context.Context, from time.Time, days, nights, limit int) ([]scheduling.StayWindow, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Locker is the same per-apartment single-writer lock the manual assignment
// path takes, so a batch commit and a manual assignment for one apartment
// never run concurrently.
type Locker interface {
	AcquireAssignLock(ctx context.Context, apartmentID string, ttl time.Duration) (bool, error)
	ReleaseAssignLock(ctx context.Context, apartmentID string) error
}

// BatchResult reports one auto-assignment run. Partial success is the normal
// shape: Failed lists bookings no apartment could take.
type BatchResult struct {
	Assigned []scheduling.PlannedAssignment `json:"assigned"`
	Failed   []string                       `json:"failed"`
}

func (r BatchResult) AssignedCount() int { return len(r.Assigned) }
func (r BatchResult) FailedCount() int   { return len(r.Failed) }

type Service struct {
	apartments repository.ApartmentRepository
	bookings   repository.BookingRepository
	locker     Locker
	producer   Producer
	auditTopic string
	lockTTL    time.Duration
	weights    scheduling.Weights
	log        zerolog.Logger
}

func NewService(
	apartments repository.ApartmentRepository,
	bookings repository.BookingRepository,
	locker Locker,
	producer Producer,
	auditTopic string,
	lockTTL time.Duration,
	weights scheduling.Weights,
	log zerolog.Logger,
) *Service {
	return &Service{
		apartments: apartments,
		bookings:   bookings,
		locker:     locker,
		producer:   producer,
		auditTopic: auditTopic,
		lockTTL:    lockTTL,
		weights:    weights,
		log:        log,
	}
}

func (s *Service) Availability(ctx context.Context, start, end time.Time) ([]domain.Apartment, error) {
	apartments, bookings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scheduling.AvailableApartments(apartments, bookings, start, end)
}

// AutoAssign plans against a snapshot and commits each planned assignment
// through the guarded repository write. A plan entry that loses a race after
// the snapshot is moved to the failed list rather than aborting the batch.
func (s *Service) AutoAssign(ctx context.Context) (*BatchResult, error) {
	apartments, bookings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	plan, err := scheduling.AutoAssign(ctx, apartments, bookings)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	result := &BatchResult{Failed: plan.Failed}
	for _, pa := range plan.Assigned {
		assignment, aerr := domain.AssignedToApartment(pa.ApartmentID)
		if aerr != nil {
			result.Failed = append(result.Failed, pa.BookingID)
			continue
		}
		werr := s.withApartmentLock(ctx, pa.ApartmentID, func() error {
			_, err := s.bookings.SetAssignment(ctx, pa.BookingID, assignment)
			return err
		})
		if werr != nil {
			var conflict *domain.ConflictError
			if errors.As(werr, &conflict) {
				s.log.Info().Str("booking_id", pa.BookingID).Str("apartment_id", pa.ApartmentID).
					Msg("planned assignment lost a race, marking failed")
				observability.ObserveAssignment("batch", "conflict")
				result.Failed = append(result.Failed, pa.BookingID)
				continue
			}
			if errors.Is(werr, ErrApartmentBusy) {
				s.log.Info().Str("booking_id", pa.BookingID).Str("apartment_id", pa.ApartmentID).
					Msg("apartment lock held elsewhere, marking failed")
				observability.ObserveAssignment("batch", "locked")
				result.Failed = append(result.Failed, pa.BookingID)
				continue
			}
			return nil, werr
		}
		observability.ObserveAssignment("batch", "assigned")
		result.Assigned = append(result.Assigned, pa)
		s.audit(ctx, pa)
	}
	for range plan.Failed {
		observability.ObserveAssignment("batch", "failed")
	}

	s.log.Info().Int("assigned", result.AssignedCount()).Int("failed", result.FailedCount()).
		Msg("auto-assign batch finished")
	return result, err
}

func (s *Service) BestDates(ctx context.Context, from time.Time, days, nights, limit int) ([]scheduling.StayWindow, error) {
	apartments, bookings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scheduling.BestDates(apartments, bookings, from, days, nights, limit, s.weights)
}

// ErrApartmentBusy means another writer holds the apartment's assignment lock
// right now; the booking stays unassigned and a later sweep retries it.
var ErrApartmentBusy = errors.New("apartment is being assigned by another writer")

func (s *Service) withApartmentLock(ctx context.Context, apartmentID string, fn func() error) error {
	if s.locker != nil {
		ok, err := s.locker.AcquireAssignLock(ctx, apartmentID, s.lockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return ErrApartmentBusy
		}
		defer func() {
			_ = s.locker.ReleaseAssignLock(ctx, apartmentID)
		}()
	}
	return fn()
}

func (s *Service) snapshot(ctx context.Context) ([]domain.Apartment, []domain.Booking, error) {
	apartments, err := s.apartments.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return apartments, bookings, nil
}

func (s *Service) audit(ctx context.Context, pa scheduling.PlannedAssignment) {
	if s.producer == nil || s.auditTopic == "" {
		return
	}
	event := kafka.AuditEvent{
		Action:     domain.AuditBookingAssigned,
		EntityType: "booking",
		EntityID:   pa.BookingID,
		Actor:      auth.ActorFrom(ctx),
		Details:    map[string]string{"apartment_id": pa.ApartmentID, "mode": "batch"},
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.auditTopic, pa.BookingID, event); err != nil {
		s.log.Warn().Err(err).Str("booking_id", pa.BookingID).Msg("audit publish failed")
	}
}

var _ SchedulerUseCase = (*Service)(nil)
