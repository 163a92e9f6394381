package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smartcharger/internal/models"
)

// ReservationSweepStore is the reservation slice the expiry sweep needs.
type ReservationSweepStore interface {
	FindExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error)
	UpdateStatusFrom(ctx context.Context, id int64, to, from models.ReservationStatus) (bool, error)
}

// PileSweepStore is the pile slice the sweeps need.
type PileSweepStore interface {
	GetByID(ctx context.Context, id int64) (*models.ChargingPile, error)
	UpdateStatusFrom(ctx context.Context, id int64, to models.PileStatus, from ...models.PileStatus) (bool, error)
}

// ExpirySweeper expires pending reservations whose window has passed and
// frees their piles. It takes no locks; every write is conditional, so a
// reservation consumed or cancelled mid-sweep is simply skipped.
type ExpirySweeper struct {
	reservations ReservationSweepStore
	piles        PileSweepStore
	logger       *zap.Logger
}

// NewExpirySweeper builds sweeper.
func NewExpirySweeper(reservations ReservationSweepStore, piles PileSweepStore, logger *zap.Logger) *ExpirySweeper {
	return &ExpirySweeper{reservations: reservations, piles: piles, logger: logger}
}

// Run performs one sweep. Failures on individual reservations are logged and
// the sweep continues; one bad row never blocks the rest.
func (s *ExpirySweeper) Run(ctx context.Context) {
	expired, err := s.reservations.FindExpiredPending(ctx, time.Now())
	if err != nil {
		s.logger.Error("expiry sweep: load expired reservations", zap.Error(err))
		return
	}

	for _, res := range expired {
		changed, err := s.reservations.UpdateStatusFrom(ctx, res.ID, models.ReservationExpired, models.ReservationPending)
		if err != nil {
			s.logger.Error("expiry sweep: expire reservation",
				zap.Int64("reservation_id", res.ID), zap.Error(err))
			continue
		}
		if !changed {
			// Consumed or cancelled since the query; nothing to do.
			continue
		}

		// Only a pile still RESERVED is released. CHARGING and FAULT stay.
		freed, err := s.piles.UpdateStatusFrom(ctx, res.ChargingPileID, models.PileIdle, models.PileReserved)
		if err != nil {
			s.logger.Error("expiry sweep: free pile",
				zap.Int64("pile_id", res.ChargingPileID), zap.Error(err))
			continue
		}

		s.logger.Info("reservation expired",
			zap.Int64("reservation_id", res.ID),
			zap.Int64("pile_id", res.ChargingPileID),
			zap.Bool("pile_freed", freed),
		)
	}
}
