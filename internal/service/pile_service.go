package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"smartcharger/internal/apperr"
	"smartcharger/internal/models"
)

// PileService owns charging-pile records and enforces the state machine.
// CHARGING and RESERVED are only ever entered or left by the reservation and
// session flows; administrative writes are limited to IDLE and FAULT.
type PileService struct {
	piles  PileStore
	logger *zap.Logger
}

// NewPileService builds service.
func NewPileService(piles PileStore, logger *zap.Logger) *PileService {
	return &PileService{piles: piles, logger: logger}
}

// Get returns one pile.
func (s *PileService) Get(ctx context.Context, id int64) (*models.ChargingPile, error) {
	pile, err := s.piles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrPileNotFound
		}
		return nil, fmt.Errorf("pile: load %d: %w", id, err)
	}
	return pile, nil
}

// Create registers a new pile, starting IDLE.
func (s *PileService) Create(ctx context.Context, pile *models.ChargingPile) error {
	if !pile.Type.Valid() {
		return apperr.ErrInvalidTransition
	}
	pile.Status = models.PileIdle
	if err := s.piles.Create(ctx, pile); err != nil {
		return fmt.Errorf("pile: create: %w", err)
	}
	s.logger.Info("charging pile created", zap.Int64("pile_id", pile.ID), zap.String("code", pile.Code))
	return nil
}

// UpdateStatus performs an administrative transition. Only IDLE and FAULT are
// valid targets, and a pile that is currently CHARGING or RESERVED cannot be
// touched manually.
func (s *PileService) UpdateStatus(ctx context.Context, id int64, target models.PileStatus) error {
	if target != models.PileIdle && target != models.PileFault {
		return apperr.ErrInvalidTransition
	}

	pile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if pile.Status == models.PileCharging || pile.Status == models.PileReserved {
		return apperr.ErrInvalidTransition
	}
	if pile.Status == target {
		return nil
	}

	changed, err := s.piles.UpdateStatusFrom(ctx, id, target, pile.Status)
	if err != nil {
		return fmt.Errorf("pile: update status: %w", err)
	}
	if !changed {
		// Lost a race with a domain operation; the read-then-write is stale.
		return apperr.ErrInvalidTransition
	}

	s.logger.Info("pile status updated",
		zap.Int64("pile_id", id),
		zap.String("from", string(pile.Status)),
		zap.String("to", string(target)),
	)
	return nil
}

// ReportFault moves the pile to FAULT on behalf of fault reporting. A pile
// that is mid-session or held by a reservation cannot be faulted out from
// under its user.
func (s *PileService) ReportFault(ctx context.Context, id int64) error {
	pile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if pile.Status == models.PileFault {
		return nil
	}
	if pile.Status == models.PileCharging || pile.Status == models.PileReserved {
		return apperr.ErrInvalidTransition
	}

	changed, err := s.piles.UpdateStatusFrom(ctx, id, models.PileFault, models.PileIdle, models.PileOvertime)
	if err != nil {
		return fmt.Errorf("pile: report fault: %w", err)
	}
	if !changed {
		return apperr.ErrInvalidTransition
	}
	s.logger.Info("pile moved to fault", zap.Int64("pile_id", id))
	return nil
}

// ResolveFault returns the pile to IDLE if it is still FAULT. Already-resolved
// piles are left alone.
func (s *PileService) ResolveFault(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	changed, err := s.piles.UpdateStatusFrom(ctx, id, models.PileIdle, models.PileFault)
	if err != nil {
		return fmt.Errorf("pile: resolve fault: %w", err)
	}
	if changed {
		s.logger.Info("pile fault resolved", zap.Int64("pile_id", id))
	}
	return nil
}

// Delete removes a pile that carries no history. Piles referenced by any
// reservation or charging record are never deleted.
func (s *PileService) Delete(ctx context.Context, id int64) error {
	pile, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if pile.Status == models.PileCharging || pile.Status == models.PileReserved {
		return apperr.ErrInvalidTransition
	}

	has, err := s.piles.HasHistory(ctx, id)
	if err != nil {
		return fmt.Errorf("pile: check history: %w", err)
	}
	if has {
		return apperr.ErrPileHasHistory
	}

	if err := s.piles.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrPileNotFound
		}
		return fmt.Errorf("pile: delete: %w", err)
	}
	s.logger.Info("charging pile deleted", zap.Int64("pile_id", id))
	return nil
}
