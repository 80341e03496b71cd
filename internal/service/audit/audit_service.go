package audit

import (
	"context"
	"encoding/json"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/avoronova/flatbook/internal/kafka"
	"github.com/avoronova/flatbook/internal/repository"
	"github.com/rs/zerolog"
)

const defaultPageSize = 50

type AuditUseCase interface {
	Record(ctx context.Context, event kafka.AuditEvent) error
	List(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error)
}

type Service struct {
	records repository.AuditRepository
	log     zerolog.Logger
}

func NewService(records repository.AuditRepository, log zerolog.Logger) *Service {
	return &Service{records: records, log: log}
}

// Record persists one audit event consumed from the broker.
func (s *Service) Record(ctx context.Context, event kafka.AuditEvent) error {
	var details json.RawMessage
	if len(event.Details) > 0 {
		data, err := json.Marshal(event.Details)
		if err != nil {
			return err
		}
		details = data
	}

	record := &domain.AuditRecord{
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Actor:      event.Actor,
		Details:    details,
		OccurredAt: event.OccurredAt,
	}
	if err := s.records.Insert(ctx, record); err != nil {
		return err
	}

	s.log.Debug().Str("action", string(event.Action)).Str("entity_id", event.EntityID).
		Msg("audit record stored")
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.records.List(ctx, limit, offset)
}

var _ AuditUseCase = (*Service)(nil)
