package apartments

import (
	"context"
	"time"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ApartmentUseCase interface {
	Create(ctx context.Context, input CreateApartmentInput) (*domain.Apartment, error)
	GetByID(ctx context.Context, id string) (*domain.Apartment, error)
	List(ctx context.Context) ([]domain.Apartment, error)
	Update(ctx context.Context, id string, input UpdateApartmentInput) (*domain.Apartment, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Apartment, error)
	Delete(ctx context.Context, id string) error
}

type Cache interface {
	GetApartments(ctx context.Context) ([]domain.Apartment, error)
	SetApartments(ctx context.Context, apartments []domain.Apartment) error
	InvalidateApartments(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type CreateApartmentInput struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
	IsFavorite bool     `json:"is_favorite"`
}

type UpdateApartmentInput struct {
	Name       string   `json:"name"`
	Properties []string `json:"properties"`
}

type Service struct {
	apartments repository.ApartmentRepository
	cache      Cache
	producer   Producer
	auditTopic string
	log        zerolog.Logger
}

func NewService(apartments repository.ApartmentRepository, cache Cache, producer Producer, auditTopic string, log zerolog.Logger) *Service {
	return &Service{
		apartments: apartments,
		cache:      cache,
		producer:   producer,
		auditTopic: auditTopic,
		log:        log,
	}
}

func (s *Service) Create(ctx context.Context, input CreateApartmentInput) (*domain.Apartment, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	apartment := &domain.Apartment{
		ID:         uuid.NewString(),
		Name:       input.Name,
		Properties: domain.NormalizeProperties(input.Properties),
		IsFavorite: input.IsFavorite,
	}
	if err := s.apartments.Create(ctx, apartment); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.audit(ctx, domain.AuditApartmentCreated, apartment.ID, map[string]string{"name": apartment.Name})
	return apartment, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*domain.Apartment, error) {
	return s.apartments.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Apartment, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetApartments(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	apartments, err := s.apartments.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetApartments(ctx, apartments)
	}
	return apartments, nil
}

func (s *Service) Update(ctx context.Context, id string, input UpdateApartmentInput) (*domain.Apartment, error) {
	if input.Name == "" {
		return nil, ErrNameRequired
	}

	apartment, err := s.apartments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	apartment.Name = input.Name
	apartment.Properties = domain.NormalizeProperties(input.Properties)

	if err := s.apartments.Update(ctx, apartment); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.audit(ctx, domain.AuditApartmentUpdated, apartment.ID, map[string]string{"name": apartment.Name})
	return apartment, nil
}

func (s *Service) SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Apartment, error) {
	apartment, err := s.apartments.SetFavorite(ctx, id, favorite)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.audit(ctx, domain.AuditApartmentUpdated, apartment.ID, map[string]string{"favorite": boolString(favorite)})
	return apartment, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.apartments.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.audit(ctx, domain.AuditApartmentDeleted, id, nil)
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.InvalidateApartments(ctx)
	}
}

func (s *Service) audit(ctx context.Context, action domain.AuditAction, entityID string, details map[string]string) {
	if s.producer == nil || s.auditTopic == "" {
		return
	}
	event := kafka.AuditEvent{
		Action:     action,
		EntityType: "apartment",
		EntityID:   entityID,
		Actor:      auth.ActorFrom(ctx),
		Details:    details,
		OccurredAt: time.Now(),
	}
	if err := s.producer.Publish(ctx, s.auditTopic, entityID, event); err != nil {
		s.log.Warn().Err(err).Str("action", string(action)).Msg("audit publish failed")
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
