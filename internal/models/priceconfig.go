package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceConfig is one rate table for a pile type. A nil StartTime or EndTime
// means the validity window is open on that side.
type PriceConfig struct {
	ID          int64           `db:"id" json:"id"`
	PileType    PileType        `db:"charging_pile_type" json:"charging_pile_type"`
	PricePerKwh decimal.Decimal `db:"price_per_kwh" json:"price_per_kwh"`
	ServiceFee  decimal.Decimal `db:"service_fee" json:"service_fee"`
	StartTime   *time.Time      `db:"start_time" json:"start_time,omitempty"`
	EndTime     *time.Time      `db:"end_time" json:"end_time,omitempty"`
	Active      bool            `db:"is_active" json:"is_active"`
	CreatedTime time.Time       `db:"created_time" json:"created_time"`
	UpdatedTime time.Time       `db:"updated_time" json:"updated_time"`
}

// Covers reports whether the validity window contains the given instant.
func (c PriceConfig) Covers(at time.Time) bool {
	if c.StartTime != nil && at.Before(*c.StartTime) {
		return false
	}
	if c.EndTime != nil && at.After(*c.EndTime) {
		return false
	}
	return true
}

// WindowOverlaps reports whether the config's validity window intersects the
// given window. A nil bound on either side is open-ended, so two windows only
// miss each other when one provably ends before the other starts.
func (c PriceConfig) WindowOverlaps(start, end *time.Time) bool {
	if c.EndTime != nil && start != nil && c.EndTime.Before(*start) {
		return false
	}
	if c.StartTime != nil && end != nil && c.StartTime.After(*end) {
		return false
	}
	return true
}
