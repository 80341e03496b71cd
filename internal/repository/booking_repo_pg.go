package repository

import (
	"context"
	"errors"

	"github.com/avoronova/flatbook/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context) ([]domain.Booking, error)
	ListByApartment(ctx context.Context, apartmentID string) ([]domain.Booking, error)
	Update(ctx context.Context, booking *domain.Booking) error
	// SetAssignment commits an assignment decision. For apartment targets the
	// write re-verifies the no-overlap invariant inside the transaction and
	// returns *domain.ConflictError when another stay got there first.
	SetAssignment(ctx context.Context, bookingID string, assignment domain.Assignment) (*domain.Booking, error)
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, guest_name, check_in, check_out, apartment_id, temporary_apartment, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b         domain.Booking
		aptID     *string
		temporary *string
	)
	if err := row.Scan(&b.ID, &b.GuestName, &b.CheckIn, &b.CheckOut, &aptID, &temporary, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	assignment, err := assignmentFromColumns(aptID, temporary)
	if err != nil {
		return nil, err
	}
	b.Assignment = assignment
	return &b, nil
}

func assignmentFromColumns(apartmentID, temporary *string) (domain.Assignment, error) {
	switch {
	case apartmentID != nil:
		return domain.AssignedToApartment(*apartmentID)
	case temporary != nil:
		return domain.AssignedTemporary(*temporary)
	default:
		return domain.Unassigned(), nil
	}
}

func assignmentColumns(a domain.Assignment) (apartmentID, temporary *string) {
	if id, ok := a.ApartmentID(); ok {
		return &id, nil
	}
	if label, ok := a.TemporaryLabel(); ok {
		return nil, &label
	}
	return nil, nil
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	aptID, temporary := assignmentColumns(booking.Assignment)
	if aptID != nil {
		if err := guardOverlap(ctx, tx, *aptID, booking, booking.ID); err != nil {
			return err
		}
	}

	if err := tx.QueryRow(ctx, `INSERT INTO bookings (id, guest_name, check_in, check_out, apartment_id, temporary_apartment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		booking.ID, booking.GuestName, booking.CheckIn, booking.CheckOut, aptID, temporary).
		Scan(&booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *PGBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY check_in, id`)
}

func (r *PGBookingRepository) ListByApartment(ctx context.Context, apartmentID string) ([]domain.Booking, error) {
	return r.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE apartment_id=$1 ORDER BY check_in, id`, apartmentID)
}

func (r *PGBookingRepository) queryBookings(ctx context.Context, sql string, args ...any) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

// Update rewrites guest and stay fields. When the booking is assigned to an
// apartment, changing the stay window re-runs the overlap guard because the
// new window may collide with a neighbour the old one did not touch.
func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if aptID, ok := booking.Assignment.ApartmentID(); ok {
		if err := guardOverlap(ctx, tx, aptID, booking, booking.ID); err != nil {
			return err
		}
	}

	row := tx.QueryRow(ctx, `UPDATE bookings SET guest_name=$1, check_in=$2, check_out=$3, updated_at=now() WHERE id=$4 RETURNING updated_at`,
		booking.GuestName, booking.CheckIn, booking.CheckOut, booking.ID)
	if err := row.Scan(&booking.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGBookingRepository) SetAssignment(ctx context.Context, bookingID string, assignment domain.Assignment) (*domain.Booking, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	current, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1 FOR UPDATE`, bookingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if aptID, ok := assignment.ApartmentID(); ok {
		if err := guardOverlap(ctx, tx, aptID, current, bookingID); err != nil {
			return nil, err
		}
	}

	aptID, temporary := assignmentColumns(assignment)
	updated, err := scanBooking(tx.QueryRow(ctx, `UPDATE bookings SET apartment_id=$1, temporary_apartment=$2, updated_at=now() WHERE id=$3
		RETURNING `+bookingColumns, aptID, temporary, bookingID))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// guardOverlap serializes assignment writers on the parent apartment row and
// fails with *domain.ConflictError when an overlapping stay exists. Locking
// the apartment itself, not just existing bookings, is what closes the
// check-then-act race: two transactions assigning overlapping stays to the
// same apartment cannot both pass the overlap check, because the second one
// blocks on the row lock until the first commits and then sees its write.
func guardOverlap(ctx context.Context, tx pgx.Tx, apartmentID string, b *domain.Booking, excludeID string) error {
	var lockedID string
	if err := tx.QueryRow(ctx, `SELECT id FROM apartments WHERE id=$1 FOR UPDATE`, apartmentID).Scan(&lockedID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	var conflictID string
	err := tx.QueryRow(ctx, `SELECT id FROM bookings
		WHERE apartment_id=$1 AND id<>$2 AND check_in < $4 AND check_out > $3
		ORDER BY check_in LIMIT 1`, apartmentID, excludeID, b.CheckIn, b.CheckOut).Scan(&conflictID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	return &domain.ConflictError{ApartmentID: apartmentID, BookingID: conflictID}
}

func (r *PGBookingRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGBookingRepository) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
