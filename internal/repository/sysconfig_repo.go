package repository

import (
	"context"
	"database/sql"
)

// SystemConfigRepository handles key/value settings with optional per-user scope.
type SystemConfigRepository struct {
	db *sql.DB
}

// NewSystemConfigRepository returns repository.
func NewSystemConfigRepository(db *sql.DB) *SystemConfigRepository {
	return &SystemConfigRepository{db: db}
}

// GetUserValue returns the per-user value for the key or sql.ErrNoRows.
func (r *SystemConfigRepository) GetUserValue(ctx context.Context, userID int64, key string) (string, error) {
	const query = `SELECT config_value FROM system_configs WHERE user_id = $1 AND config_key = $2`
	var value string
	if err := r.db.QueryRowContext(ctx, query, userID, key).Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

// GetSystemValue returns the system-wide value for the key or sql.ErrNoRows.
func (r *SystemConfigRepository) GetSystemValue(ctx context.Context, key string) (string, error) {
	const query = `SELECT config_value FROM system_configs WHERE user_id IS NULL AND config_key = $1`
	var value string
	if err := r.db.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		return "", err
	}
	return value, nil
}

// UpsertUserValue creates or replaces the per-user value for the key.
func (r *SystemConfigRepository) UpsertUserValue(ctx context.Context, userID int64, key, value, description string) error {
	const query = `
		INSERT INTO system_configs (user_id, config_key, config_value, description, updated_time)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (user_id, config_key) DO UPDATE SET
			config_value = EXCLUDED.config_value,
			updated_time = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, userID, key, value, description)
	return err
}
