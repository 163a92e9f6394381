package models

import "time"

// Vehicle belongs to a user; the engine only ever checks ownership.
type Vehicle struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	LicensePlate string    `db:"license_plate" json:"license_plate"`
	Brand        string    `db:"brand" json:"brand"`
	Model        string    `db:"model" json:"model"`
	CreatedTime  time.Time `db:"created_time" json:"created_time"`
}
