package sweeper

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"smartcharger/internal/models"
)

// RecordSweepStore is the record slice the overtime sweep needs.
type RecordSweepStore interface {
	FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.ChargingRecord, error)
	UpdateStatusFrom(ctx context.Context, id int64, to, from models.RecordStatus) (bool, error)
}

// OvertimeNotifier creates the warning notice and resolves the per-user
// threshold. The notice service implements it.
type OvertimeNotifier interface {
	Threshold(ctx context.Context, userID int64) (int, error)
	CreateOvertimeWarning(ctx context.Context, rec *models.ChargingRecord, pileCode string, overtimeMinutes int) (bool, error)
}

// OvertimeSweeper finds completed sessions whose vehicle has overstayed past
// the warning threshold, notifies the user once and flags the pile and record
// as OVERTIME. Conditional writes keep it safe to run concurrently with the
// session and fault flows.
type OvertimeSweeper struct {
	records  RecordSweepStore
	piles    PileSweepStore
	notifier OvertimeNotifier
	logger   *zap.Logger
}

// NewOvertimeSweeper builds sweeper.
func NewOvertimeSweeper(records RecordSweepStore, piles PileSweepStore, notifier OvertimeNotifier, logger *zap.Logger) *OvertimeSweeper {
	return &OvertimeSweeper{records: records, piles: piles, notifier: notifier, logger: logger}
}

// Run performs one sweep over completed records.
func (s *OvertimeSweeper) Run(ctx context.Context) {
	completed, err := s.records.FindByStatus(ctx, models.RecordCompleted)
	if err != nil {
		s.logger.Error("overtime sweep: load completed records", zap.Error(err))
		return
	}

	now := time.Now()
	for i := range completed {
		rec := &completed[i]
		if rec.EndTime == nil {
			continue
		}

		threshold, err := s.notifier.Threshold(ctx, rec.UserID)
		if err != nil {
			s.logger.Error("overtime sweep: resolve threshold",
				zap.Int64("user_id", rec.UserID), zap.Error(err))
			continue
		}

		overstay := int(now.Sub(*rec.EndTime).Minutes())
		if overstay < threshold {
			continue
		}

		pile, err := s.piles.GetByID(ctx, rec.ChargingPileID)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				s.logger.Error("overtime sweep: load pile",
					zap.Int64("pile_id", rec.ChargingPileID), zap.Error(err))
			}
			continue
		}
		if pile.Status != models.PileIdle {
			// A new session, reservation or fault already owns the pile; the
			// previous occupant is no longer blocking anyone.
			continue
		}

		created, err := s.notifier.CreateOvertimeWarning(ctx, rec, pile.Code, overstay)
		if err != nil {
			s.logger.Error("overtime sweep: create warning",
				zap.Int64("record_id", rec.ID), zap.Error(err))
			continue
		}

		if _, err := s.piles.UpdateStatusFrom(ctx, pile.ID, models.PileOvertime, models.PileIdle); err != nil {
			s.logger.Error("overtime sweep: flag pile",
				zap.Int64("pile_id", pile.ID), zap.Error(err))
		}
		if _, err := s.records.UpdateStatusFrom(ctx, rec.ID, models.RecordOvertime, models.RecordCompleted); err != nil {
			s.logger.Error("overtime sweep: flag record",
				zap.Int64("record_id", rec.ID), zap.Error(err))
		}

		if created {
			s.logger.Info("overstay flagged",
				zap.Int64("record_id", rec.ID),
				zap.Int64("pile_id", pile.ID),
				zap.Int64("user_id", rec.UserID),
				zap.Int("overstay_minutes", overstay),
			)
		}
	}
}
