package backup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/scheduling"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/rs/zerolog"
)

var ErrInvalidArchive = errors.New("invalid backup archive")

type BackupUseCase interface {
	Export(ctx context.Context) (*Archive, error)
	Import(ctx context.Context, archive *Archive) (*ImportSummary, error)
}

type Cache interface {
	InvalidateApartments(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// Archive is the portable snapshot format. Field names are part of the
// interchange contract, so existing exports keep importing across versions.
type Archive struct {
	ExportedAt time.Time         `json:"exportedAt"`
	Apartments []ApartmentRecord `json:"apartments"`
	Bookings   []BookingRecord   `json:"bookings"`
}

type ApartmentRecord struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Properties []string `json:"properties,omitempty"`
	IsFavorite bool     `json:"isFavorite"`
}

type BookingRecord struct {
	ID                 string    `json:"id"`
	GuestName          string    `json:"guestName"`
	CheckIn            time.Time `json:"checkIn"`
	CheckOut           time.Time `json:"checkOut"`
	ApartmentID        string    `json:"apartmentId,omitempty"`
	TemporaryApartment string    `json:"temporaryApartment,omitempty"`
}

type ImportSummary struct {
	Apartments int `json:"apartments"`
	Bookings   int `json:"bookings"`
}

type Service struct {
	apartments repository.ApartmentRepository
	bookings   repository.BookingRepository
	backups    repository.BackupRepository
	cache      Cache
	producer   Producer
	auditTopic string
	log        zerolog.Logger
}

func NewService(
	apartments repository.ApartmentRepository,
	bookings repository.BookingRepository,
	backups repository.BackupRepository,
	cache Cache,
	producer Producer,
	auditTopic string,
	log zerolog.Logger,
) *Service {
	return &Service{
		apartments: apartments,
		bookings:   bookings,
		backups:    backups,
		cache:      cache,
		producer:   producer,
		auditTopic: auditTopic,
		log:        log,
	}
}

func (s *Service) Export(ctx context.Context) (*Archive, error) {
	apartments, err := s.apartments.List(ctx)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.List(ctx)
	if err != nil {
		return nil, err
	}

	archive := &Archive{
		ExportedAt: time.Now().UTC(),
		Apartments: make([]ApartmentRecord, 0, len(apartments)),
		Bookings:   make([]BookingRecord, 0, len(bookings)),
	}
	for _, a := range apartments {
		archive.Apartments = append(archive.Apartments, ApartmentRecord{
			ID:         a.ID,
			Name:       a.Name,
			Properties: a.Properties,
			IsFavorite: a.IsFavorite,
		})
	}
	for _, b := range bookings {
		rec := BookingRecord{
			ID:        b.ID,
			GuestName: b.GuestName,
			CheckIn:   b.CheckIn,
			CheckOut:  b.CheckOut,
		}
		if aptID, ok := b.Assignment.ApartmentID(); ok {
			rec.ApartmentID = aptID
		}
		if label, ok := b.Assignment.TemporaryLabel(); ok {
			rec.TemporaryApartment = label
		}
		archive.Bookings = append(archive.Bookings, rec)
	}
	return archive, nil
}

// Import validates the whole archive before touching storage, then replaces
// all apartments and bookings atomically.
func (s *Service) Import(ctx context.Context, archive *Archive) (*ImportSummary, error) {
	apartments, bookings, err := decodeArchive(archive)
	if err != nil {
		return nil, err
	}

	if err := s.backups.RestoreAll(ctx, apartments, bookings); err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.InvalidateApartments(ctx)
	}
	s.audit(ctx, len(apartments), len(bookings))

	s.log.Info().Int("apartments", len(apartments)).Int("bookings", len(bookings)).
		Msg("backup imported")
	return &ImportSummary{Apartments: len(apartments), Bookings: len(bookings)}, nil
}

func decodeArchive(archive *Archive) ([]domain.Apartment, []domain.Booking, error) {
	if archive == nil {
		return nil, nil, fmt.Errorf("%w: empty payload", ErrInvalidArchive)
	}

	apartmentIDs := make(map[string]struct{}, len(archive.Apartments))
	apartments := make([]domain.Apartment, 0, len(archive.Apartments))
	for i, rec := range archive.Apartments {
		if rec.ID == "" || rec.Name == "" {
			return nil, nil, fmt.Errorf("%w: apartment %d is missing id or name", ErrInvalidArchive, i)
		}
		if _, dup := apartmentIDs[rec.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate apartment id %s", ErrInvalidArchive, rec.ID)
		}
		apartmentIDs[rec.ID] = struct{}{}
		apartments = append(apartments, domain.Apartment{
			ID:         rec.ID,
			Name:       rec.Name,
			Properties: domain.NormalizeProperties(rec.Properties),
			IsFavorite: rec.IsFavorite,
		})
	}

	bookingIDs := make(map[string]struct{}, len(archive.Bookings))
	bookings := make([]domain.Booking, 0, len(archive.Bookings))
	for i, rec := range archive.Bookings {
		if rec.ID == "" {
			return nil, nil, fmt.Errorf("%w: booking %d is missing id", ErrInvalidArchive, i)
		}
		if _, dup := bookingIDs[rec.ID]; dup {
			return nil, nil, fmt.Errorf("%w: duplicate booking id %s", ErrInvalidArchive, rec.ID)
		}
		bookingIDs[rec.ID] = struct{}{}

		booking := domain.Booking{
			ID:         rec.ID,
			GuestName:  rec.GuestName,
			CheckIn:    rec.CheckIn,
			CheckOut:   rec.CheckOut,
			Assignment: domain.Unassigned(),
		}
		switch {
		case rec.ApartmentID != "" && rec.TemporaryApartment != "":
			return nil, nil, fmt.Errorf("%w: booking %s targets both an apartment and a temporary accommodation", ErrInvalidArchive, rec.ID)
		case rec.ApartmentID != "":
			if _, ok := apartmentIDs[rec.ApartmentID]; !ok {
				return nil, nil, fmt.Errorf("%w: booking %s references unknown apartment %s", ErrInvalidArchive, rec.ID, rec.ApartmentID)
			}
			assignment, err := domain.AssignedToApartment(rec.ApartmentID)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: booking %s: %v", ErrInvalidArchive, rec.ID, err)
			}
			booking.Assignment = assignment
		case rec.TemporaryApartment != "":
			assignment, err := domain.AssignedTemporary(rec.TemporaryApartment)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: booking %s: %v", ErrInvalidArchive, rec.ID, err)
			}
			booking.Assignment = assignment
		}
		if err := booking.Validate(); err != nil {
			return nil, nil, fmt.Errorf("%w: booking %s: %v", ErrInvalidArchive, rec.ID, err)
		}

		if aptID, ok := booking.Assignment.ApartmentID(); ok {
			if hit := scheduling.FindConflict(bookings, aptID, booking.CheckIn, booking.CheckOut, booking.ID); hit != nil {
				return nil, nil, fmt.Errorf("%w: bookings %s and %s overlap on apartment %s", ErrInvalidArchive, booking.ID, hit.ID, aptID)
			}
		}
		bookings = append(bookings, booking)
	}

	return apartments, bookings, nil
}

func (s *Service) audit(ctx context.Context, apartments, bookings int) {
	if s.producer == nil || s.auditTopic == "" {
		return
	}
	event := kafka.AuditEvent{
		Action:     domain.AuditBackupImported,
		EntityType: "backup",
		EntityID:   "archive",
		Actor:      auth.ActorFrom(ctx),
		Details: map[string]string{
			"apartments": strconv.Itoa(apartments),
			"bookings":   strconv.Itoa(bookings),
		},
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.auditTopic, "backup", event); err != nil {
		s.log.Warn().Err(err).Msg("audit publish failed")
	}
}

var _ BackupUseCase = (*Service)(nil)
