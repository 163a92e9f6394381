package models

import "time"

// NoticeType classifies warning notices pushed to a user.
type NoticeType string

const (
	NoticeOvertimeWarning     NoticeType = "OVERTIME_WARNING"
	NoticeIdleReminder        NoticeType = "IDLE_REMINDER"
	NoticeFault               NoticeType = "FAULT_NOTICE"
	NoticeReservationReminder NoticeType = "RESERVATION_REMINDER"
)

// SendStatus tracks out-of-band delivery of a notice.
type SendStatus string

const (
	SendPending SendStatus = "PENDING"
	SendSent    SendStatus = "SENT"
	SendFailed  SendStatus = "FAILED"
)

// WarningNotice is a persisted notification. Overtime warnings are created at
// most once per charging record; the sweep checks for an existing row before
// inserting another.
type WarningNotice struct {
	ID               int64      `db:"id" json:"id"`
	UserID           int64      `db:"user_id" json:"user_id"`
	ChargingPileID   int64      `db:"charging_pile_id" json:"charging_pile_id"`
	ChargingRecordID int64      `db:"charging_record_id" json:"charging_record_id"`
	Type             NoticeType `db:"type" json:"type"`
	Content          string     `db:"content" json:"content"`
	OvertimeMinutes  int        `db:"overtime_minutes" json:"overtime_minutes"`
	Read             bool       `db:"is_read" json:"is_read"`
	SendStatus       SendStatus `db:"send_status" json:"send_status"`
	CreatedTime      time.Time  `db:"created_time" json:"created_time"`
}
