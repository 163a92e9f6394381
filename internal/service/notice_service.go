package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"smartcharger/internal/apperr"
	"smartcharger/internal/models"
)

// NoticeService manages warning notices and the per-user overstay threshold.
type NoticeService struct {
	notices          NoticeStore
	settings         SettingsStore
	logger           *zap.Logger
	defaultThreshold int
}

// NewNoticeService builds service.
func NewNoticeService(notices NoticeStore, settings SettingsStore, logger *zap.Logger, defaultThreshold int) *NoticeService {
	return &NoticeService{
		notices:          notices,
		settings:         settings,
		logger:           logger,
		defaultThreshold: defaultThreshold,
	}
}

// CreateOvertimeWarning records an overstay warning for the record. At most
// one warning per record is ever created; repeat calls are no-ops.
func (s *NoticeService) CreateOvertimeWarning(ctx context.Context, rec *models.ChargingRecord, pileCode string, overtimeMinutes int) (bool, error) {
	exists, err := s.notices.ExistsForRecord(ctx, rec.ID, models.NoticeOvertimeWarning)
	if err != nil {
		return false, fmt.Errorf("notice: check existing: %w", err)
	}
	if exists {
		return false, nil
	}

	n := &models.WarningNotice{
		UserID:           rec.UserID,
		ChargingPileID:   rec.ChargingPileID,
		ChargingRecordID: rec.ID,
		Type:             models.NoticeOvertimeWarning,
		Content: fmt.Sprintf(
			"Charging at pile %s finished %d minutes ago; please move your vehicle to free the pile.",
			pileCode, overtimeMinutes,
		),
		OvertimeMinutes: overtimeMinutes,
		Read:            false,
		SendStatus:      models.SendPending,
	}
	if err := s.notices.Create(ctx, n); err != nil {
		return false, fmt.Errorf("notice: create: %w", err)
	}

	s.logger.Info("overtime warning created",
		zap.Int64("notice_id", n.ID),
		zap.Int64("user_id", rec.UserID),
		zap.Int64("record_id", rec.ID),
		zap.Int("overtime_minutes", overtimeMinutes),
	)
	return true, nil
}

// List returns the user's notices, newest first.
func (s *NoticeService) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.WarningNotice, error) {
	return s.notices.ListByUser(ctx, userID, unreadOnly, limit, offset)
}

// UnreadCount returns the user's unread notice count.
func (s *NoticeService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.notices.CountUnread(ctx, userID)
}

// MarkRead marks one of the user's notices as read.
func (s *NoticeService) MarkRead(ctx context.Context, userID, id int64) error {
	if err := s.notices.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNoticeNotFound
		}
		return fmt.Errorf("notice: mark read: %w", err)
	}
	return nil
}

// MarkAllRead marks all of the user's notices as read.
func (s *NoticeService) MarkAllRead(ctx context.Context, userID int64) error {
	if err := s.notices.MarkAllRead(ctx, userID); err != nil {
		return fmt.Errorf("notice: mark all read: %w", err)
	}
	return nil
}

// Delete removes one of the user's notices.
func (s *NoticeService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.notices.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrNoticeNotFound
		}
		return fmt.Errorf("notice: delete: %w", err)
	}
	return nil
}

// Threshold resolves the overstay warning threshold in minutes for the user:
// per-user override, then the system-wide row, then the built-in default.
func (s *NoticeService) Threshold(ctx context.Context, userID int64) (int, error) {
	if v, err := s.settings.GetUserValue(ctx, userID, models.ConfigKeyOvertimeThreshold); err == nil {
		if minutes, pErr := strconv.Atoi(v); pErr == nil && minutes > 0 {
			return minutes, nil
		}
		s.logger.Warn("ignoring malformed user threshold",
			zap.Int64("user_id", userID), zap.String("value", v))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("notice: load user threshold: %w", err)
	}

	if v, err := s.settings.GetSystemValue(ctx, models.ConfigKeyOvertimeThreshold); err == nil {
		if minutes, pErr := strconv.Atoi(v); pErr == nil && minutes > 0 {
			return minutes, nil
		}
		s.logger.Warn("ignoring malformed system threshold", zap.String("value", v))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("notice: load system threshold: %w", err)
	}

	return s.defaultThreshold, nil
}

// SetThreshold stores a per-user overstay threshold override.
func (s *NoticeService) SetThreshold(ctx context.Context, userID int64, minutes int) error {
	if minutes <= 0 {
		return apperr.ErrInvalidThreshold
	}
	if err := s.settings.UpsertUserValue(ctx, userID, models.ConfigKeyOvertimeThreshold,
		strconv.Itoa(minutes), "overstay warning threshold in minutes"); err != nil {
		return fmt.Errorf("notice: save threshold: %w", err)
	}
	s.logger.Info("overtime threshold updated", zap.Int64("user_id", userID), zap.Int("minutes", minutes))
	return nil
}
