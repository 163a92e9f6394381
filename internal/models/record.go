package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordStatus is the lifecycle state of one charging session.
type RecordStatus string

const (
	RecordCharging  RecordStatus = "CHARGING"
	RecordCompleted RecordStatus = "COMPLETED"
	RecordOvertime  RecordStatus = "OVERTIME"
	RecordCancelled RecordStatus = "CANCELLED"
)

// Description returns the human-readable label for the status.
func (s RecordStatus) Description() string {
	switch s {
	case RecordCharging:
		return "charging"
	case RecordCompleted:
		return "completed"
	case RecordOvertime:
		return "overstayed"
	case RecordCancelled:
		return "cancelled"
	}
	return string(s)
}

// Valid reports whether the value is a known record status.
func (s RecordStatus) Valid() bool {
	switch s {
	case RecordCharging, RecordCompleted, RecordOvertime, RecordCancelled:
		return true
	}
	return false
}

// ChargingRecord is one actual charging event and its computed fee.
// EndTime, Duration, ElectricQuantity and Fee are set when the session ends.
type ChargingRecord struct {
	ID               int64            `db:"id" json:"id"`
	UserID           int64            `db:"user_id" json:"user_id"`
	ChargingPileID   int64            `db:"charging_pile_id" json:"charging_pile_id"`
	VehicleID        *int64           `db:"vehicle_id" json:"vehicle_id,omitempty"`
	StartTime        time.Time        `db:"start_time" json:"start_time"`
	EndTime          *time.Time       `db:"end_time" json:"end_time,omitempty"`
	Duration         *int             `db:"duration" json:"duration,omitempty"`
	ElectricQuantity *decimal.Decimal `db:"electric_quantity" json:"electric_quantity,omitempty"`
	Fee              *decimal.Decimal `db:"fee" json:"fee,omitempty"`
	Status           RecordStatus     `db:"status" json:"status"`
	CreatedTime      time.Time        `db:"created_time" json:"created_time"`
	UpdatedTime      time.Time        `db:"updated_time" json:"updated_time"`
}
