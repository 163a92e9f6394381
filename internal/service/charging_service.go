package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smartcharger/internal/apperr"
	"smartcharger/internal/lock"
	"smartcharger/internal/models"
)

// FeeCalculator is the slice of the price catalog the session flow consumes.
type FeeCalculator interface {
	Current(ctx context.Context, pileType models.PileType) (*models.PriceConfig, error)
	CalculateFee(ctx context.Context, pileType models.PileType, quantity decimal.Decimal) (decimal.Decimal, error)
}

// ChargingService starts and ends charging sessions. Start shares the
// per-pile lock with reservation admission so the two flows are linearized
// per pile.
type ChargingService struct {
	records      RecordStore
	reservations ReservationStore
	piles        PileStore
	vehicles     VehicleStore
	prices       FeeCalculator
	locker       lock.Locker
	logger       *zap.Logger

	lockWait time.Duration
	lockHold time.Duration
	grace    time.Duration
}

// NewChargingService builds service.
func NewChargingService(
	records RecordStore,
	reservations ReservationStore,
	piles PileStore,
	vehicles VehicleStore,
	prices FeeCalculator,
	locker lock.Locker,
	logger *zap.Logger,
	lockWait, lockHold, grace time.Duration,
) *ChargingService {
	return &ChargingService{
		records:      records,
		reservations: reservations,
		piles:        piles,
		vehicles:     vehicles,
		prices:       prices,
		locker:       locker,
		logger:       logger,
		lockWait:     lockWait,
		lockHold:     lockHold,
		grace:        grace,
	}
}

// Start opens a charging session on the pile, consuming the caller's own
// reservation when one is within the grace window. A pending reservation held
// by any other user blocks the start regardless of the pile's literal status.
func (s *ChargingService) Start(ctx context.Context, userID, pileID int64, vehicleID *int64) (*models.ChargingRecord, error) {
	if _, err := s.records.FindChargingByUser(ctx, userID); err == nil {
		return nil, apperr.ErrUserAlreadyCharging
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("charging: check active record: %w", err)
	}

	if _, err := s.piles.GetByID(ctx, pileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrPileNotFound
		}
		return nil, fmt.Errorf("charging: load pile: %w", err)
	}

	release, err := s.locker.Acquire(ctx, pileLockKey(pileID), s.lockWait, s.lockHold)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperr.ErrSystemBusy
		}
		return nil, fmt.Errorf("charging: acquire pile lock: %w", err)
	}
	defer release()

	pile, err := s.piles.GetByID(ctx, pileID)
	if err != nil {
		return nil, fmt.Errorf("charging: reload pile: %w", err)
	}
	if pile.Status == models.PileCharging || pile.Status == models.PileFault {
		return nil, apperr.ErrPileNotIdle
	}

	now := time.Now()
	pending, err := s.reservations.FindPendingByPileEndingAfter(ctx, pileID, now)
	if err != nil {
		return nil, fmt.Errorf("charging: load reservations: %w", err)
	}

	var ownReservation *models.Reservation
	for i := range pending {
		r := &pending[i]
		if r.UserID != userID {
			// The pile is held for someone else. If its status drifted back
			// to IDLE, repair it so the hold is visible again.
			if pile.Status == models.PileIdle {
				if _, rErr := s.piles.UpdateStatusFrom(ctx, pileID, models.PileReserved, models.PileIdle); rErr != nil {
					s.logger.Warn("failed to repair pile status to reserved",
						zap.Int64("pile_id", pileID), zap.Error(rErr))
				} else {
					s.logger.Info("repaired pile status to reserved",
						zap.Int64("pile_id", pileID), zap.Int64("reservation_id", r.ID))
				}
			}
			return nil, apperr.ErrNoValidReservation
		}
		if ownReservation == nil && r.StartTime.Before(now.Add(s.grace)) {
			ownReservation = r
		}
	}

	if vehicleID != nil {
		if _, err := s.vehicles.FindByIDAndUser(ctx, *vehicleID, userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, apperr.ErrVehicleNotFound
			}
			return nil, fmt.Errorf("charging: load vehicle: %w", err)
		}
	}

	rec := &models.ChargingRecord{
		UserID:         userID,
		ChargingPileID: pileID,
		VehicleID:      vehicleID,
		StartTime:      now,
		Status:         models.RecordCharging,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("charging: create record: %w", err)
	}

	if ownReservation != nil {
		if _, err := s.reservations.UpdateStatusFrom(ctx, ownReservation.ID, models.ReservationCompleted, models.ReservationPending); err != nil {
			s.logger.Warn("failed to complete consumed reservation",
				zap.Int64("reservation_id", ownReservation.ID), zap.Error(err))
		} else {
			s.logger.Info("reservation consumed by charging start",
				zap.Int64("reservation_id", ownReservation.ID), zap.Int64("user_id", userID))
		}
	}

	changed, err := s.piles.UpdateStatusFrom(ctx, pileID, models.PileCharging, models.PileIdle, models.PileReserved, models.PileOvertime)
	if err != nil {
		return nil, fmt.Errorf("charging: occupy pile: %w", err)
	}
	if !changed {
		// The pile escaped underneath us despite the lock (external fault).
		if _, cErr := s.records.UpdateStatusFrom(ctx, rec.ID, models.RecordCancelled, models.RecordCharging); cErr != nil {
			s.logger.Error("failed to undo record after pile race",
				zap.Int64("record_id", rec.ID), zap.Error(cErr))
		}
		return nil, apperr.ErrPileNotIdle
	}

	s.logger.Info("charging started",
		zap.Int64("record_id", rec.ID),
		zap.Int64("user_id", userID),
		zap.Int64("pile_id", pileID),
	)
	return rec, nil
}

// End closes the user's session: records the quantity, computes the fee from
// the active price config of the pile's type and frees the pile. A missing
// active config fails the call; the fee is never silently defaulted.
func (s *ChargingService) End(ctx context.Context, userID, recordID int64, quantity decimal.Decimal) (*models.ChargingRecord, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrRecordNotFound
		}
		return nil, fmt.Errorf("charging: load record: %w", err)
	}
	if rec.UserID != userID {
		return nil, apperr.ErrForbidden
	}
	if rec.Status != models.RecordCharging {
		return nil, apperr.ErrRecordNotCharging
	}

	pile, err := s.piles.GetByID(ctx, rec.ChargingPileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrPileNotFound
		}
		return nil, fmt.Errorf("charging: load pile: %w", err)
	}

	fee, err := s.prices.CalculateFee(ctx, pile.Type, quantity)
	if err != nil {
		return nil, err
	}

	endTime := time.Now()
	durationMinutes := int(endTime.Sub(rec.StartTime).Minutes())

	changed, err := s.records.Complete(ctx, recordID, endTime, durationMinutes, quantity, fee)
	if err != nil {
		return nil, fmt.Errorf("charging: complete record: %w", err)
	}
	if !changed {
		return nil, apperr.ErrRecordNotCharging
	}

	if _, err := s.piles.UpdateStatusFrom(ctx, rec.ChargingPileID, models.PileIdle, models.PileCharging, models.PileOvertime); err != nil {
		s.logger.Warn("failed to free pile after charging end",
			zap.Int64("pile_id", rec.ChargingPileID), zap.Error(err))
	}

	rec.EndTime = &endTime
	rec.Duration = &durationMinutes
	rec.ElectricQuantity = &quantity
	rec.Fee = &fee
	rec.Status = models.RecordCompleted

	s.logger.Info("charging ended",
		zap.Int64("record_id", recordID),
		zap.Int64("user_id", userID),
		zap.Int("duration_minutes", durationMinutes),
		zap.String("fee", fee.String()),
	)
	return rec, nil
}

// FeeBreakdown splits a completed fee into its components.
type FeeBreakdown struct {
	PricePerKwh    decimal.Decimal `json:"price_per_kwh"`
	ServiceFee     decimal.Decimal `json:"service_fee"`
	ElectricityFee decimal.Decimal `json:"electricity_fee"`
	ServiceTotal   decimal.Decimal `json:"service_fee_total"`
}

// RecordDetail is a record with its pile and, for completed sessions, the fee
// breakdown under the currently active config.
type RecordDetail struct {
	Record    *models.ChargingRecord `json:"record"`
	Pile      *models.ChargingPile   `json:"pile,omitempty"`
	Breakdown *FeeBreakdown          `json:"fee_breakdown,omitempty"`
}

// Detail returns the user's record with pile info and fee breakdown.
func (s *ChargingService) Detail(ctx context.Context, userID, recordID int64) (*RecordDetail, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrRecordNotFound
		}
		return nil, fmt.Errorf("charging: load record: %w", err)
	}
	if rec.UserID != userID {
		return nil, apperr.ErrForbidden
	}

	detail := &RecordDetail{Record: rec}

	pile, err := s.piles.GetByID(ctx, rec.ChargingPileID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("charging: load pile: %w", err)
		}
		return detail, nil
	}
	detail.Pile = pile

	if rec.Status == models.RecordCompleted && rec.ElectricQuantity != nil {
		cfg, err := s.prices.Current(ctx, pile.Type)
		if err == nil {
			detail.Breakdown = &FeeBreakdown{
				PricePerKwh:    cfg.PricePerKwh,
				ServiceFee:     cfg.ServiceFee,
				ElectricityFee: rec.ElectricQuantity.Mul(cfg.PricePerKwh).Round(2),
				ServiceTotal:   rec.ElectricQuantity.Mul(cfg.ServiceFee).Round(2),
			}
		} else if !errors.Is(err, apperr.ErrNoActiveConfig) {
			return nil, err
		}
	}

	return detail, nil
}

// Current returns the user's active record, or nil when there is none.
func (s *ChargingService) Current(ctx context.Context, userID int64) (*models.ChargingRecord, error) {
	rec, err := s.records.FindChargingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("charging: load current record: %w", err)
	}
	return rec, nil
}

// ListMine returns the user's records, newest first.
func (s *ChargingService) ListMine(ctx context.Context, userID int64, status *models.RecordStatus, limit, offset int) ([]models.ChargingRecord, error) {
	return s.records.ListByUser(ctx, userID, status, limit, offset)
}
