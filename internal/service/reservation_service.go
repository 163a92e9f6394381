package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"smartcharger/internal/apperr"
	"smartcharger/internal/lock"
	"smartcharger/internal/models"
)

func pileLockKey(pileID int64) string {
	return fmt.Sprintf("lock:pile:%d", pileID)
}

// ReservationService creates, cancels and expires reservations. Admission
// decisions for one pile are serialized by the per-pile lock shared with the
// charging flow, so no two concurrent callers can both observe IDLE and win.
type ReservationService struct {
	reservations ReservationStore
	piles        PileStore
	locker       lock.Locker
	logger       *zap.Logger

	lockWait time.Duration
	lockHold time.Duration
	hold     time.Duration
}

// NewReservationService builds service.
func NewReservationService(
	reservations ReservationStore,
	piles PileStore,
	locker lock.Locker,
	logger *zap.Logger,
	lockWait, lockHold, hold time.Duration,
) *ReservationService {
	return &ReservationService{
		reservations: reservations,
		piles:        piles,
		locker:       locker,
		logger:       logger,
		lockWait:     lockWait,
		lockHold:     lockHold,
		hold:         hold,
	}
}

// Create admits a reservation for the pile. startTime nil means now; the hold
// window is fixed. Fails with UserAlreadyReserved, PileNotFound, SystemBusy,
// PileNotIdle or TimeConflict.
func (s *ReservationService) Create(ctx context.Context, userID, pileID int64, startTime *time.Time) (*models.Reservation, error) {
	if _, err := s.reservations.FindPendingByUser(ctx, userID); err == nil {
		return nil, apperr.ErrUserAlreadyReserved
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reservation: check pending: %w", err)
	}

	if _, err := s.piles.GetByID(ctx, pileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrPileNotFound
		}
		return nil, fmt.Errorf("reservation: load pile: %w", err)
	}

	release, err := s.locker.Acquire(ctx, pileLockKey(pileID), s.lockWait, s.lockHold)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperr.ErrSystemBusy
		}
		return nil, fmt.Errorf("reservation: acquire pile lock: %w", err)
	}
	defer release()

	// Re-read inside the critical section; the pre-lock read may be stale.
	pile, err := s.piles.GetByID(ctx, pileID)
	if err != nil {
		return nil, fmt.Errorf("reservation: reload pile: %w", err)
	}
	if pile.Status != models.PileIdle {
		return nil, apperr.ErrPileNotIdle
	}

	start := time.Now()
	if startTime != nil {
		start = *startTime
	}
	end := start.Add(s.hold)

	pending, err := s.reservations.FindPendingByPileEndingAfter(ctx, pileID, start)
	if err != nil {
		return nil, fmt.Errorf("reservation: load pending: %w", err)
	}
	for _, other := range pending {
		if other.Overlaps(start, end) {
			return nil, apperr.ErrTimeConflict
		}
	}

	res := &models.Reservation{
		UserID:         userID,
		ChargingPileID: pileID,
		StartTime:      start,
		EndTime:        end,
		Status:         models.ReservationPending,
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("reservation: create: %w", err)
	}

	changed, err := s.piles.UpdateStatusFrom(ctx, pileID, models.PileReserved, models.PileIdle)
	if err != nil {
		return nil, fmt.Errorf("reservation: reserve pile: %w", err)
	}
	if !changed {
		// The pile left IDLE underneath us (e.g. an external fault report).
		// Undo the reservation and report the pile as unavailable.
		if _, cErr := s.reservations.UpdateStatusFrom(ctx, res.ID, models.ReservationCancelled, models.ReservationPending); cErr != nil {
			s.logger.Error("failed to undo reservation after pile race",
				zap.Int64("reservation_id", res.ID), zap.Error(cErr))
		}
		return nil, apperr.ErrPileNotIdle
	}

	s.logger.Info("reservation created",
		zap.Int64("reservation_id", res.ID),
		zap.Int64("user_id", userID),
		zap.Int64("pile_id", pileID),
	)
	return res, nil
}

// Cancel cancels the user's pending reservation and frees the pile. A pile
// that already left RESERVED through a concurrent transition is left alone.
func (s *ReservationService) Cancel(ctx context.Context, userID, id int64) error {
	res, err := s.reservations.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrForbidden
		}
		return fmt.Errorf("reservation: load: %w", err)
	}
	if res.Status != models.ReservationPending {
		return apperr.ErrCannotCancel
	}

	changed, err := s.reservations.UpdateStatusFrom(ctx, id, models.ReservationCancelled, models.ReservationPending)
	if err != nil {
		return fmt.Errorf("reservation: cancel: %w", err)
	}
	if !changed {
		return apperr.ErrCannotCancel
	}

	if _, err := s.piles.UpdateStatusFrom(ctx, res.ChargingPileID, models.PileIdle, models.PileReserved); err != nil {
		s.logger.Warn("failed to free pile after cancellation",
			zap.Int64("pile_id", res.ChargingPileID), zap.Error(err))
	}

	s.logger.Info("reservation cancelled", zap.Int64("reservation_id", id), zap.Int64("user_id", userID))
	return nil
}

// Availability is the read-only answer to "can this interval be booked".
type Availability struct {
	Available bool                 `json:"available"`
	Reason    string               `json:"reason"`
	Conflicts []models.Reservation `json:"conflicts,omitempty"`
}

// CheckAvailability reports whether the pile can serve the interval. It never
// mutates state and takes no lock.
func (s *ReservationService) CheckAvailability(ctx context.Context, pileID int64, start, end time.Time) (*Availability, error) {
	pile, err := s.piles.GetByID(ctx, pileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &Availability{Available: false, Reason: "charging pile not found"}, nil
		}
		return nil, fmt.Errorf("availability: load pile: %w", err)
	}

	if pile.Status != models.PileIdle {
		return &Availability{
			Available: false,
			Reason:    fmt.Sprintf("charging pile is currently %s", pile.Status.Description()),
		}, nil
	}

	pending, err := s.reservations.FindPendingByPileEndingAfter(ctx, pileID, start)
	if err != nil {
		return nil, fmt.Errorf("availability: load pending: %w", err)
	}
	var conflicts []models.Reservation
	for _, other := range pending {
		if other.Overlaps(start, end) {
			conflicts = append(conflicts, other)
		}
	}
	if len(conflicts) > 0 {
		return &Availability{
			Available: false,
			Reason:    "interval overlaps existing reservations",
			Conflicts: conflicts,
		}, nil
	}

	return &Availability{Available: true, Reason: "charging pile is available"}, nil
}

// GetByID returns the user's reservation.
func (s *ReservationService) GetByID(ctx context.Context, userID, id int64) (*models.Reservation, error) {
	res, err := s.reservations.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrForbidden
		}
		return nil, fmt.Errorf("reservation: load: %w", err)
	}
	return res, nil
}

// Current returns the user's pending reservation, or nil when there is none.
func (s *ReservationService) Current(ctx context.Context, userID int64) (*models.Reservation, error) {
	res, err := s.reservations.FindPendingByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("reservation: load current: %w", err)
	}
	return res, nil
}

// ListMine returns the user's reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, userID int64, status *models.ReservationStatus, limit, offset int) ([]models.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID, status, limit, offset)
}
