package models

import "time"

// ReservationStatus is the lifecycle state of a time-boxed pile hold.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationCompleted ReservationStatus = "COMPLETED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// Description returns the human-readable label for the status.
func (s ReservationStatus) Description() string {
	switch s {
	case ReservationPending:
		return "pending"
	case ReservationCompleted:
		return "completed"
	case ReservationCancelled:
		return "cancelled"
	case ReservationExpired:
		return "expired"
	}
	return string(s)
}

// Valid reports whether the value is a known reservation status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationCompleted, ReservationCancelled, ReservationExpired:
		return true
	}
	return false
}

// Reservation is a hold on one pile for one user over [StartTime, EndTime).
type Reservation struct {
	ID             int64             `db:"id" json:"id"`
	UserID         int64             `db:"user_id" json:"user_id"`
	ChargingPileID int64             `db:"charging_pile_id" json:"charging_pile_id"`
	StartTime      time.Time         `db:"start_time" json:"start_time"`
	EndTime        time.Time         `db:"end_time" json:"end_time"`
	Status         ReservationStatus `db:"status" json:"status"`
	CreatedTime    time.Time         `db:"created_time" json:"created_time"`
	UpdatedTime    time.Time         `db:"updated_time" json:"updated_time"`
}

// Overlaps reports whether the reservation's interval intersects [start, end).
func (r Reservation) Overlaps(start, end time.Time) bool {
	return start.Before(r.EndTime) && r.StartTime.Before(end)
}
