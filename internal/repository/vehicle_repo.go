package repository

import (
	"context"
	"database/sql"

	"smartcharger/internal/models"
)

// VehicleRepository exposes the vehicle lookups the engine needs.
type VehicleRepository struct {
	db *sql.DB
}

// NewVehicleRepository returns repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// FindByIDAndUser returns the vehicle only when it belongs to the user.
func (r *VehicleRepository) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Vehicle, error) {
	const query = `
		SELECT id, user_id, license_plate, brand, model, created_time
		FROM vehicles
		WHERE id = $1 AND user_id = $2
	`
	var v models.Vehicle
	if err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&v.ID,
		&v.UserID,
		&v.LicensePlate,
		&v.Brand,
		&v.Model,
		&v.CreatedTime,
	); err != nil {
		return nil, err
	}
	return &v, nil
}
