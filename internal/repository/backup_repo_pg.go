package repository

import (
	"context"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BackupRepository interface {
	// RestoreAll replaces the apartment and booking tables with the given
	// records in one transaction. On any failure nothing is changed.
	RestoreAll(ctx context.Context, apartments []domain.Apartment, bookings []domain.Booking) error
}

type PGBackupRepository struct {
	db *pgxpool.Pool
}

func NewBackupRepository(db *pgxpool.Pool) BackupRepository {
	return &PGBackupRepository{db: db}
}

func (r *PGBackupRepository) RestoreAll(ctx context.Context, apartments []domain.Apartment, bookings []domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM bookings`); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM apartments`); err != nil {
		return err
	}

	for i := range apartments {
		a := &apartments[i]
		if _, err := tx.Exec(ctx, `INSERT INTO apartments (id, name, properties, is_favorite)
			VALUES ($1, $2, $3, $4)`, a.ID, a.Name, a.Properties, a.IsFavorite); err != nil {
			return err
		}
	}

	for i := range bookings {
		b := &bookings[i]
		aptID, temporary := assignmentColumns(b.Assignment)
		if _, err := tx.Exec(ctx, `INSERT INTO bookings (id, guest_name, check_in, check_out, apartment_id, temporary_apartment)
			VALUES ($1, $2, $3, $4, $5, $6)`, b.ID, b.GuestName, b.CheckIn, b.CheckOut, aptID, temporary); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

var _ BackupRepository = (*PGBackupRepository)(nil)
