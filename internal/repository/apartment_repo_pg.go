package repository

import (
	"context"
	"errors"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrHasBookings = errors.New("apartment still has bookings")
)

type ApartmentRepository interface {
	Create(ctx context.Context, apartment *domain.Apartment) error
	GetByID(ctx context.Context, id string) (*domain.Apartment, error)
	List(ctx context.Context) ([]domain.Apartment, error)
	Update(ctx context.Context, apartment *domain.Apartment) error
	SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Apartment, error)
	// Delete removes the apartment only when no booking references it,
	// returning ErrHasBookings otherwise.
	Delete(ctx context.Context, id string) error
}

type PGApartmentRepository struct {
	db *pgxpool.Pool
}

func NewApartmentRepository(db *pgxpool.Pool) ApartmentRepository {
	return &PGApartmentRepository{db: db}
}

func (r *PGApartmentRepository) Create(ctx context.Context, apartment *domain.Apartment) error {
	return r.db.QueryRow(ctx, `INSERT INTO apartments (id, name, properties, is_favorite)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		apartment.ID, apartment.Name, apartment.Properties, apartment.IsFavorite).
		Scan(&apartment.CreatedAt, &apartment.UpdatedAt)
}

func (r *PGApartmentRepository) GetByID(ctx context.Context, id string) (*domain.Apartment, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, properties, is_favorite, created_at, updated_at FROM apartments WHERE id=$1`, id)
	var a domain.Apartment
	if err := row.Scan(&a.ID, &a.Name, &a.Properties, &a.IsFavorite, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGApartmentRepository) List(ctx context.Context) ([]domain.Apartment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, properties, is_favorite, created_at, updated_at FROM apartments ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apartments []domain.Apartment
	for rows.Next() {
		var a domain.Apartment
		if err := rows.Scan(&a.ID, &a.Name, &a.Properties, &a.IsFavorite, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		apartments = append(apartments, a)
	}
	return apartments, rows.Err()
}

func (r *PGApartmentRepository) Update(ctx context.Context, apartment *domain.Apartment) error {
	row := r.db.QueryRow(ctx, `UPDATE apartments SET name=$1, properties=$2, updated_at=now() WHERE id=$3 RETURNING updated_at`,
		apartment.Name, apartment.Properties, apartment.ID)
	if err := row.Scan(&apartment.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *PGApartmentRepository) SetFavorite(ctx context.Context, id string, favorite bool) (*domain.Apartment, error) {
	row := r.db.QueryRow(ctx, `UPDATE apartments SET is_favorite=$1, updated_at=now() WHERE id=$2
		RETURNING id, name, properties, is_favorite, created_at, updated_at`, favorite, id)
	var a domain.Apartment
	if err := row.Scan(&a.ID, &a.Name, &a.Properties, &a.IsFavorite, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *PGApartmentRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var bookings int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE apartment_id=$1`, id).Scan(&bookings); err != nil {
		return err
	}
	if bookings > 0 {
		return ErrHasBookings
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM apartments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

var _ ApartmentRepository = (*PGApartmentRepository)(nil)
