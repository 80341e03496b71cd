package repository

import (
	"context"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AuditRepository interface {
	Insert(ctx context.Context, record *domain.AuditRecord) error
	List(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error)
}

type PGAuditRepository struct {
	db *pgxpool.Pool
}

func NewAuditRepository(db *pgxpool.Pool) AuditRepository {
	return &PGAuditRepository{db: db}
}

func (r *PGAuditRepository) Insert(ctx context.Context, record *domain.AuditRecord) error {
	return r.db.QueryRow(ctx, `INSERT INTO audit_log (action, entity_type, entity_id, actor, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		record.Action, record.EntityType, record.EntityID, record.Actor, record.Details, record.OccurredAt).
		Scan(&record.ID)
}

func (r *PGAuditRepository) List(ctx context.Context, limit, offset int) ([]domain.AuditRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, action, entity_type, entity_id, actor, details, occurred_at
		FROM audit_log ORDER BY occurred_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.AuditRecord
	for rows.Next() {
		var rec domain.AuditRecord
		if err := rows.Scan(&rec.ID, &rec.Action, &rec.EntityType, &rec.EntityID, &rec.Actor, &rec.Details, &rec.OccurredAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

var _ AuditRepository = (*PGAuditRepository)(nil)
