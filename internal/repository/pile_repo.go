package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"smartcharger/internal/models"
)

// PileRepository handles persistence of charging piles.
type PileRepository struct {
	db *sql.DB
}

// NewPileRepository returns repository.
func NewPileRepository(db *sql.DB) *PileRepository {
	return &PileRepository{db: db}
}

const pileColumns = `id, code, location, lng, lat, type, power, status, created_time, updated_time`

func scanPile(row interface{ Scan(...any) error }) (*models.ChargingPile, error) {
	var p models.ChargingPile
	if err := row.Scan(
		&p.ID,
		&p.Code,
		&p.Location,
		&p.Lng,
		&p.Lat,
		&p.Type,
		&p.Power,
		&p.Status,
		&p.CreatedTime,
		&p.UpdatedTime,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID returns one pile or sql.ErrNoRows.
func (r *PileRepository) GetByID(ctx context.Context, id int64) (*models.ChargingPile, error) {
	query := fmt.Sprintf(`SELECT %s FROM charging_piles WHERE id = $1`, pileColumns)
	return scanPile(r.db.QueryRowContext(ctx, query, id))
}

// Create inserts a pile and fills generated fields.
func (r *PileRepository) Create(ctx context.Context, p *models.ChargingPile) error {
	const query = `
		INSERT INTO charging_piles (code, location, lng, lat, type, power, status, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_time, updated_time
	`
	return r.db.QueryRowContext(ctx, query,
		p.Code,
		p.Location,
		p.Lng,
		p.Lat,
		p.Type,
		p.Power,
		p.Status,
	).Scan(&p.ID, &p.CreatedTime, &p.UpdatedTime)
}

// UpdateStatusFrom moves the pile to the target status only if its current
// status is one of the listed from-states. Returns whether a row changed, so
// callers can detect a concurrent transition instead of clobbering it.
func (r *PileRepository) UpdateStatusFrom(ctx context.Context, id int64, to models.PileStatus, from ...models.PileStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("pile repo: conditional update needs at least one from-state")
	}

	placeholders := make([]string, 0, len(from))
	args := []any{id, to}
	for i, s := range from {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+3))
		args = append(args, s)
	}
	query := fmt.Sprintf(`
		UPDATE charging_piles
		SET status = $2, updated_time = NOW()
		WHERE id = $1 AND status IN (%s)
	`, strings.Join(placeholders, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// HasHistory reports whether the pile is referenced by any reservation or
// charging record. Piles with history must never be deleted.
func (r *PileRepository) HasHistory(ctx context.Context, id int64) (bool, error) {
	const query = `
		SELECT EXISTS (SELECT 1 FROM reservations WHERE charging_pile_id = $1)
		    OR EXISTS (SELECT 1 FROM charging_records WHERE charging_pile_id = $1)
	`
	var has bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

// Delete removes a pile row.
func (r *PileRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM charging_piles WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
