package apperr

import "errors"

// Error is a business-rule failure with a stable code that clients can branch on.
// Infrastructure failures are never wrapped in Error; they stay plain errors and
// surface as a generic internal failure.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

// Is matches by code so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

// From extracts a business error, if err carries one.
func From(err error) (*Error, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}

var (
	ErrUserAlreadyReserved = &Error{Code: "USER_ALREADY_RESERVED", Message: "user already has a pending reservation"}
	ErrUserAlreadyCharging = &Error{Code: "USER_ALREADY_CHARGING", Message: "user already has an active charging session"}
	ErrPileNotFound        = &Error{Code: "PILE_NOT_FOUND", Message: "charging pile not found"}
	ErrPileNotIdle         = &Error{Code: "PILE_NOT_IDLE", Message: "charging pile is not idle"}
	ErrTimeConflict        = &Error{Code: "TIME_CONFLICT", Message: "requested time overlaps an existing reservation"}
	ErrSystemBusy          = &Error{Code: "SYSTEM_BUSY", Message: "resource is busy, please retry"}
	ErrCannotCancel        = &Error{Code: "CANNOT_CANCEL", Message: "reservation can no longer be cancelled"}
	ErrRecordNotFound      = &Error{Code: "RECORD_NOT_FOUND", Message: "charging record not found"}
	ErrRecordNotCharging   = &Error{Code: "RECORD_NOT_CHARGING", Message: "charging record is not in charging state"}
	ErrForbidden           = &Error{Code: "FORBIDDEN", Message: "operation not permitted for this user"}
	ErrNoValidReservation  = &Error{Code: "NO_VALID_RESERVATION", Message: "charging pile is held by another user's reservation"}
	ErrNoActiveConfig      = &Error{Code: "NO_ACTIVE_PRICE_CONFIG", Message: "no active price configuration for this pile type"}
	ErrConfigConflict      = &Error{Code: "PRICE_CONFIG_CONFLICT", Message: "an active price configuration already covers this window"}
	ErrInvalidTransition   = &Error{Code: "INVALID_TRANSITION", Message: "charging pile status transition is not allowed"}
	ErrConfigNotFound      = &Error{Code: "PRICE_CONFIG_NOT_FOUND", Message: "price configuration not found"}
	ErrVehicleNotFound     = &Error{Code: "VEHICLE_NOT_FOUND", Message: "vehicle not found or not owned by user"}
	ErrNoticeNotFound      = &Error{Code: "NOTICE_NOT_FOUND", Message: "warning notice not found"}
	ErrPileHasHistory      = &Error{Code: "PILE_HAS_HISTORY", Message: "charging pile has historical records or reservations"}
	ErrInvalidTimeRange    = &Error{Code: "INVALID_TIME_RANGE", Message: "start time must be before end time"}
	ErrInvalidThreshold    = &Error{Code: "INVALID_THRESHOLD", Message: "threshold must be a positive number of minutes"}
)
