package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"smartcharger/internal/models"
)

// RecordRepository handles persistence of charging records.
type RecordRepository struct {
	db *sql.DB
}

// NewRecordRepository returns repository.
func NewRecordRepository(db *sql.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

const recordColumns = `id, user_id, charging_pile_id, vehicle_id, start_time, end_time, duration, electric_quantity, fee, status, created_time, updated_time`

func scanRecord(row interface{ Scan(...any) error }) (*models.ChargingRecord, error) {
	var (
		rec      models.ChargingRecord
		vehicle  sql.NullInt64
		endTime  sql.NullTime
		duration sql.NullInt64
		quantity decimal.NullDecimal
		fee      decimal.NullDecimal
	)
	if err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ChargingPileID,
		&vehicle,
		&rec.StartTime,
		&endTime,
		&duration,
		&quantity,
		&fee,
		&rec.Status,
		&rec.CreatedTime,
		&rec.UpdatedTime,
	); err != nil {
		return nil, err
	}
	if vehicle.Valid {
		rec.VehicleID = &vehicle.Int64
	}
	if endTime.Valid {
		rec.EndTime = &endTime.Time
	}
	if duration.Valid {
		minutes := int(duration.Int64)
		rec.Duration = &minutes
	}
	if quantity.Valid {
		rec.ElectricQuantity = &quantity.Decimal
	}
	if fee.Valid {
		rec.Fee = &fee.Decimal
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]models.ChargingRecord, error) {
	defer rows.Close()
	var out []models.ChargingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts a charging record and fills generated fields.
func (r *RecordRepository) Create(ctx context.Context, rec *models.ChargingRecord) error {
	const query = `
		INSERT INTO charging_records (user_id, charging_pile_id, vehicle_id, start_time, status, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_time, updated_time
	`
	var vehicle sql.NullInt64
	if rec.VehicleID != nil {
		vehicle = sql.NullInt64{Int64: *rec.VehicleID, Valid: true}
	}
	return r.db.QueryRowContext(ctx, query,
		rec.UserID,
		rec.ChargingPileID,
		vehicle,
		rec.StartTime,
		rec.Status,
	).Scan(&rec.ID, &rec.CreatedTime, &rec.UpdatedTime)
}

// GetByID returns one record or sql.ErrNoRows.
func (r *RecordRepository) GetByID(ctx context.Context, id int64) (*models.ChargingRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM charging_records WHERE id = $1`, recordColumns)
	return scanRecord(r.db.QueryRowContext(ctx, query, id))
}

// FindChargingByUser returns the user's active record or sql.ErrNoRows.
func (r *RecordRepository) FindChargingByUser(ctx context.Context, userID int64) (*models.ChargingRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM charging_records
		WHERE user_id = $1 AND status = $2
		ORDER BY start_time DESC
		LIMIT 1
	`, recordColumns)
	return scanRecord(r.db.QueryRowContext(ctx, query, userID, models.RecordCharging))
}

// Complete finalizes a record with end time, duration, quantity and fee. The
// write is conditional on the record still being in CHARGING state.
func (r *RecordRepository) Complete(ctx context.Context, id int64, endTime time.Time, durationMinutes int, quantity, fee decimal.Decimal) (bool, error) {
	const query = `
		UPDATE charging_records
		SET end_time = $2,
		    duration = $3,
		    electric_quantity = $4,
		    fee = $5,
		    status = $6,
		    updated_time = NOW()
		WHERE id = $1 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query, id, endTime, durationMinutes, quantity, fee, models.RecordCompleted, models.RecordCharging)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdateStatusFrom moves the record to the target status only if its current
// status matches. Returns whether a row changed.
func (r *RecordRepository) UpdateStatusFrom(ctx context.Context, id int64, to, from models.RecordStatus) (bool, error) {
	const query = `
		UPDATE charging_records
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

// FindByStatus returns all records in the given status, oldest ended first.
// Used by the overtime sweep over COMPLETED records.
func (r *RecordRepository) FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.ChargingRecord, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM charging_records
		WHERE status = $1
		ORDER BY end_time NULLS LAST
	`, recordColumns)
	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}

// ListByUser returns the user's records, newest first, optionally filtered by status.
func (r *RecordRepository) ListByUser(ctx context.Context, userID int64, status *models.RecordStatus, limit, offset int) ([]models.ChargingRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status != nil {
		query := fmt.Sprintf(`
			SELECT %s FROM charging_records
			WHERE user_id = $1 AND status = $2
			ORDER BY start_time DESC
			LIMIT $3 OFFSET $4
		`, recordColumns)
		rows, err = r.db.QueryContext(ctx, query, userID, *status, limit, offset)
	} else {
		query := fmt.Sprintf(`
			SELECT %s FROM charging_records
			WHERE user_id = $1
			ORDER BY start_time DESC
			LIMIT $2 OFFSET $3
		`, recordColumns)
		rows, err = r.db.QueryContext(ctx, query, userID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	return collectRecords(rows)
}
