package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smartcharger/internal/models"
)

// ReservationRepository handles persistence of pile reservations.
type ReservationRepository struct {
	db *sql.DB
}

// NewReservationRepository returns repository.
func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

const reservationColumns = `id, user_id, charging_pile_id, start_time, end_time, status, created_time, updated_time`

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	var res models.Reservation
	if err := row.Scan(
		&res.ID,
		&res.UserID,
		&res.ChargingPileID,
		&res.StartTime,
		&res.EndTime,
		&res.Status,
		&res.CreatedTime,
		&res.UpdatedTime,
	); err != nil {
		return nil, err
	}
	return &res, nil
}

func collectReservations(rows *sql.Rows) ([]models.Reservation, error) {
	defer rows.Close()
	var out []models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a reservation and fills generated fields.
func (r *ReservationRepository) Create(ctx context.Context, res *models.Reservation) error {
	const query = `
		INSERT INTO reservations (user_id, charging_pile_id, start_time, end_time, status, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_time, updated_time
	`
	return r.db.QueryRowContext(ctx, query,
		res.UserID,
		res.ChargingPileID,
		res.StartTime,
		res.EndTime,
		res.Status,
	).Scan(&res.ID, &res.CreatedTime, &res.UpdatedTime)
}

// GetByIDAndUser returns the reservation only when it belongs to the user.
func (r *ReservationRepository) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Reservation, error) {
	query := fmt.Sprintf(`SELECT %s FROM reservations WHERE id = $1 AND user_id = $2`, reservationColumns)
	return scanReservation(r.db.QueryRowContext(ctx, query, id, userID))
}

// FindPendingByUser returns the user's pending reservation or sql.ErrNoRows.
func (r *ReservationRepository) FindPendingByUser(ctx context.Context, userID int64) (*models.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reservations
		WHERE user_id = $1 AND status = $2
		ORDER BY created_time DESC
		LIMIT 1
	`, reservationColumns)
	return scanReservation(r.db.QueryRowContext(ctx, query, userID, models.ReservationPending))
}

// FindPendingByPileEndingAfter returns pending reservations on the pile whose
// end time is after the given instant.
func (r *ReservationRepository) FindPendingByPileEndingAfter(ctx context.Context, pileID int64, after time.Time) ([]models.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reservations
		WHERE charging_pile_id = $1 AND status = $2 AND end_time > $3
		ORDER BY start_time
	`, reservationColumns)
	rows, err := r.db.QueryContext(ctx, query, pileID, models.ReservationPending, after)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// FindExpiredPending returns pending reservations whose end time has passed.
func (r *ReservationRepository) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM reservations
		WHERE status = $1 AND end_time < $2
		ORDER BY end_time
	`, reservationColumns)
	rows, err := r.db.QueryContext(ctx, query, models.ReservationPending, now)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

// UpdateStatusFrom moves the reservation to the target status only if its
// current status matches. Returns whether a row changed.
func (r *ReservationRepository) UpdateStatusFrom(ctx context.Context, id int64, to, from models.ReservationStatus) (bool, error) {
	const query = `
		UPDATE reservations
		SET status = $2, updated_time = NOW()
		WHERE id = $1 AND status = $3
	`
	result, err := r.db.ExecContext(ctx, query, id, to, from)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListByUser returns the user's reservations, newest first, optionally
// filtered by status.
func (r *ReservationRepository) ListByUser(ctx context.Context, userID int64, status *models.ReservationStatus, limit, offset int) ([]models.Reservation, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status != nil {
		query := fmt.Sprintf(`
			SELECT %s FROM reservations
			WHERE user_id = $1 AND status = $2
			ORDER BY created_time DESC
			LIMIT $3 OFFSET $4
		`, reservationColumns)
		rows, err = r.db.QueryContext(ctx, query, userID, *status, limit, offset)
	} else {
		query := fmt.Sprintf(`
			SELECT %s FROM reservations
			WHERE user_id = $1
			ORDER BY created_time DESC
			LIMIT $2 OFFSET $3
		`, reservationColumns)
		rows, err = r.db.QueryContext(ctx, query, userID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}
