package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PileType distinguishes slow AC piles from fast DC piles.
type PileType string

const (
	PileTypeAC PileType = "AC"
	PileTypeDC PileType = "DC"
)

// Description returns the human-readable label for the pile type.
func (t PileType) Description() string {
	switch t {
	case PileTypeAC:
		return "AC slow charging"
	case PileTypeDC:
		return "DC fast charging"
	}
	return string(t)
}

// Valid reports whether the value is a known pile type.
func (t PileType) Valid() bool {
	return t == PileTypeAC || t == PileTypeDC
}

// PileStatus is the authoritative availability state of one physical pile.
// All mutation paths (reservation admission, session start/end, fault
// handling, the sweepers) funnel through the transition table below.
type PileStatus string

const (
	PileIdle     PileStatus = "IDLE"
	PileCharging PileStatus = "CHARGING"
	PileReserved PileStatus = "RESERVED"
	PileOvertime PileStatus = "OVERTIME"
	PileFault    PileStatus = "FAULT"
)

// Description returns the human-readable label for the status.
func (s PileStatus) Description() string {
	switch s {
	case PileIdle:
		return "available"
	case PileCharging:
		return "charging"
	case PileReserved:
		return "reserved"
	case PileOvertime:
		return "overstayed"
	case PileFault:
		return "out of service"
	}
	return string(s)
}

// Valid reports whether the value is a known pile status.
func (s PileStatus) Valid() bool {
	switch s {
	case PileIdle, PileCharging, PileReserved, PileOvertime, PileFault:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving to the
// target status from the current one.
func (s PileStatus) CanTransitionTo(to PileStatus) bool {
	switch s {
	case PileIdle:
		return to == PileReserved || to == PileCharging || to == PileFault
	case PileReserved:
		return to == PileCharging || to == PileIdle
	case PileCharging:
		return to == PileIdle || to == PileOvertime
	case PileOvertime:
		return to == PileIdle
	case PileFault:
		return to == PileIdle
	}
	return false
}

// ChargingPile is the contended physical resource.
type ChargingPile struct {
	ID          int64           `db:"id" json:"id"`
	Code        string          `db:"code" json:"code"`
	Location    string          `db:"location" json:"location"`
	Lng         decimal.Decimal `db:"lng" json:"lng"`
	Lat         decimal.Decimal `db:"lat" json:"lat"`
	Type        PileType        `db:"type" json:"type"`
	Power       decimal.Decimal `db:"power" json:"power"`
	Status      PileStatus      `db:"status" json:"status"`
	CreatedTime time.Time       `db:"created_time" json:"created_time"`
	UpdatedTime time.Time       `db:"updated_time" json:"updated_time"`
}
