package models

import "time"

// ConfigKeyOvertimeThreshold stores the overstay warning threshold in minutes.
const ConfigKeyOvertimeThreshold = "overtime_warning_threshold"

// SystemConfig is a key/value setting. UserID nil means the system-wide row;
// a non-nil UserID is a per-user override.
type SystemConfig struct {
	ID          int64     `db:"id" json:"id"`
	UserID      *int64    `db:"user_id" json:"user_id,omitempty"`
	Key         string    `db:"config_key" json:"config_key"`
	Value       string    `db:"config_value" json:"config_value"`
	Description string    `db:"description" json:"description"`
	UpdatedTime time.Time `db:"updated_time" json:"updated_time"`
}
