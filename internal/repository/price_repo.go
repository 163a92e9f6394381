package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"smartcharger/internal/models"
)

// PriceRepository handles persistence of price configurations.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository returns repository.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

const priceColumns = `id, charging_pile_type, price_per_kwh, service_fee, start_time, end_time, is_active, created_time, updated_time`

func scanPriceConfig(row interface{ Scan(...any) error }) (*models.PriceConfig, error) {
	var (
		cfg   models.PriceConfig
		start sql.NullTime
		end   sql.NullTime
	)
	if err := row.Scan(
		&cfg.ID,
		&cfg.PileType,
		&cfg.PricePerKwh,
		&cfg.ServiceFee,
		&start,
		&end,
		&cfg.Active,
		&cfg.CreatedTime,
		&cfg.UpdatedTime,
	); err != nil {
		return nil, err
	}
	if start.Valid {
		cfg.StartTime = &start.Time
	}
	if end.Valid {
		cfg.EndTime = &end.Time
	}
	return &cfg, nil
}

func collectPriceConfigs(rows *sql.Rows) ([]models.PriceConfig, error) {
	defer rows.Close()
	var out []models.PriceConfig
	for rows.Next() {
		cfg, err := scanPriceConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Create inserts a config and fills generated fields.
func (r *PriceRepository) Create(ctx context.Context, cfg *models.PriceConfig) error {
	const query = `
		INSERT INTO price_configs (charging_pile_type, price_per_kwh, service_fee, start_time, end_time, is_active, created_time, updated_time)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_time, updated_time
	`
	return r.db.QueryRowContext(ctx, query,
		cfg.PileType,
		cfg.PricePerKwh,
		cfg.ServiceFee,
		nullTime(cfg.StartTime),
		nullTime(cfg.EndTime),
		cfg.Active,
	).Scan(&cfg.ID, &cfg.CreatedTime, &cfg.UpdatedTime)
}

// Update rewrites the mutable fields of a config.
func (r *PriceRepository) Update(ctx context.Context, cfg *models.PriceConfig) error {
	const query = `
		UPDATE price_configs
		SET price_per_kwh = $2,
		    service_fee = $3,
		    start_time = $4,
		    end_time = $5,
		    is_active = $6,
		    updated_time = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.PricePerKwh,
		cfg.ServiceFee,
		nullTime(cfg.StartTime),
		nullTime(cfg.EndTime),
		cfg.Active,
	)
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

// Delete removes a config row.
func (r *PriceRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM price_configs WHERE id = $1`
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

// GetByID returns one config or sql.ErrNoRows.
func (r *PriceRepository) GetByID(ctx context.Context, id int64) (*models.PriceConfig, error) {
	query := fmt.Sprintf(`SELECT %s FROM price_configs WHERE id = $1`, priceColumns)
	return scanPriceConfig(r.db.QueryRowContext(ctx, query, id))
}

// FindCurrentActive returns active configs for the type whose validity window
// contains the given instant, newest creation first. The first element is the
// deterministic "current" pick.
func (r *PriceRepository) FindCurrentActive(ctx context.Context, pileType models.PileType, at time.Time) ([]models.PriceConfig, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM price_configs
		WHERE charging_pile_type = $1
		  AND is_active = true
		  AND (start_time IS NULL OR start_time <= $2)
		  AND (end_time IS NULL OR end_time >= $2)
		ORDER BY created_time DESC
	`, priceColumns)
	rows, err := r.db.QueryContext(ctx, query, pileType, at)
	if err != nil {
		return nil, err
	}
	return collectPriceConfigs(rows)
}

// FindActiveByType returns all active configs for the type except the given
// id. The overlap decision lives in the service so the null-bound cases stay
// in one tested place.
func (r *PriceRepository) FindActiveByType(ctx context.Context, pileType models.PileType, excludeID int64) ([]models.PriceConfig, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM price_configs
		WHERE charging_pile_type = $1 AND is_active = true AND id <> $2
	`, priceColumns)
	rows, err := r.db.QueryContext(ctx, query, pileType, excludeID)
	if err != nil {
		return nil, err
	}
	return collectPriceConfigs(rows)
}

// List returns configs, newest creation first, optionally filtered.
func (r *PriceRepository) List(ctx context.Context, pileType *models.PileType, active *bool, limit, offset int) ([]models.PriceConfig, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM price_configs WHERE 1=1`, priceColumns)
	args := []any{}
	if pileType != nil {
		args = append(args, *pileType)
		query += fmt.Sprintf(` AND charging_pile_type = $%d`, len(args))
	}
	if active != nil {
		args = append(args, *active)
		query += fmt.Sprintf(` AND is_active = $%d`, len(args))
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(` ORDER BY created_time DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectPriceConfigs(rows)
}
