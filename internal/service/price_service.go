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
	"smartcharger/internal/models"
)

// PriceService resolves the active rate table per pile type and computes fees.
// It is a read-through resolver: every fee computation re-reads the current
// config, so a config change takes effect immediately.
type PriceService struct {
	store  PriceStore
	logger *zap.Logger
}

// NewPriceService builds service.
func NewPriceService(store PriceStore, logger *zap.Logger) *PriceService {
	return &PriceService{store: store, logger: logger}
}

// PriceConfigInput carries the writable fields of a config.
type PriceConfigInput struct {
	PileType    models.PileType
	PricePerKwh decimal.Decimal
	ServiceFee  decimal.Decimal
	StartTime   *time.Time
	EndTime     *time.Time
	Active      bool
}

// Estimate is a fee projection with its breakdown.
type Estimate struct {
	ElectricQuantity decimal.Decimal `json:"electric_quantity"`
	PricePerKwh      decimal.Decimal `json:"price_per_kwh"`
	ServiceFee       decimal.Decimal `json:"service_fee"`
	ElectricityFee   decimal.Decimal `json:"electricity_fee"`
	ServiceFeeTotal  decimal.Decimal `json:"service_fee_total"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// Current returns the single config in force for the pile type: active,
// validity window containing now, latest created when several qualify.
func (s *PriceService) Current(ctx context.Context, pileType models.PileType) (*models.PriceConfig, error) {
	configs, err := s.store.FindCurrentActive(ctx, pileType, time.Now())
	if err != nil {
		return nil, fmt.Errorf("price: load current config: %w", err)
	}
	if len(configs) == 0 {
		return nil, apperr.ErrNoActiveConfig
	}
	return &configs[0], nil
}

// CalculateFee computes (pricePerKwh + serviceFee) * quantity, rounded
// half-up to 2 decimal places.
func (s *PriceService) CalculateFee(ctx context.Context, pileType models.PileType, quantity decimal.Decimal) (decimal.Decimal, error) {
	cfg, err := s.Current(ctx, pileType)
	if err != nil {
		return decimal.Zero, err
	}
	return cfg.PricePerKwh.Add(cfg.ServiceFee).Mul(quantity).Round(2), nil
}

// EstimateFee projects the fee for a quantity with a breakdown of
// electricity cost vs. service cost.
func (s *PriceService) EstimateFee(ctx context.Context, pileType models.PileType, quantity decimal.Decimal) (*Estimate, error) {
	cfg, err := s.Current(ctx, pileType)
	if err != nil {
		return nil, err
	}
	electricity := quantity.Mul(cfg.PricePerKwh).Round(2)
	service := quantity.Mul(cfg.ServiceFee).Round(2)
	return &Estimate{
		ElectricQuantity: quantity,
		PricePerKwh:      cfg.PricePerKwh,
		ServiceFee:       cfg.ServiceFee,
		ElectricityFee:   electricity,
		ServiceFeeTotal:  service,
		TotalPrice:       electricity.Add(service).Round(2),
	}, nil
}

// Create persists a new config, rejecting active configs whose validity
// window overlaps another active config for the same pile type.
func (s *PriceService) Create(ctx context.Context, input PriceConfigInput) (*models.PriceConfig, error) {
	if !input.PileType.Valid() {
		return nil, apperr.ErrConfigNotFound
	}
	if input.StartTime != nil && input.EndTime != nil && input.StartTime.After(*input.EndTime) {
		return nil, apperr.ErrInvalidTimeRange
	}

	if input.Active {
		if err := s.checkConflicts(ctx, input.PileType, input.StartTime, input.EndTime, 0); err != nil {
			return nil, err
		}
	}

	cfg := &models.PriceConfig{
		PileType:    input.PileType,
		PricePerKwh: input.PricePerKwh,
		ServiceFee:  input.ServiceFee,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Active:      input.Active,
	}
	if err := s.store.Create(ctx, cfg); err != nil {
		return nil, fmt.Errorf("price: create config: %w", err)
	}

	s.logger.Info("price config created",
		zap.Int64("config_id", cfg.ID),
		zap.String("pile_type", string(cfg.PileType)),
	)
	return cfg, nil
}

// PriceConfigUpdate carries optional field updates; nil means keep current.
type PriceConfigUpdate struct {
	PricePerKwh *decimal.Decimal
	ServiceFee  *decimal.Decimal
	Active      *bool
}

// Update applies partial changes. Activating a config re-runs the window
// conflict check against the other active configs of the same type.
func (s *PriceService) Update(ctx context.Context, id int64, update PriceConfigUpdate) (*models.PriceConfig, error) {
	cfg, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrConfigNotFound
		}
		return nil, fmt.Errorf("price: load config: %w", err)
	}

	if update.PricePerKwh != nil {
		cfg.PricePerKwh = *update.PricePerKwh
	}
	if update.ServiceFee != nil {
		cfg.ServiceFee = *update.ServiceFee
	}
	if update.Active != nil {
		if *update.Active {
			if err := s.checkConflicts(ctx, cfg.PileType, cfg.StartTime, cfg.EndTime, id); err != nil {
				return nil, err
			}
		}
		cfg.Active = *update.Active
	}

	if err := s.store.Update(ctx, cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrConfigNotFound
		}
		return nil, fmt.Errorf("price: update config: %w", err)
	}

	s.logger.Info("price config updated", zap.Int64("config_id", id))
	return cfg, nil
}

// Delete removes a config.
func (s *PriceService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.ErrConfigNotFound
		}
		return fmt.Errorf("price: delete config: %w", err)
	}
	s.logger.Info("price config deleted", zap.Int64("config_id", id))
	return nil
}

// Get returns one config.
func (s *PriceService) Get(ctx context.Context, id int64) (*models.PriceConfig, error) {
	cfg, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrConfigNotFound
		}
		return nil, fmt.Errorf("price: load config: %w", err)
	}
	return cfg, nil
}

// List returns configs matching the optional filters.
func (s *PriceService) List(ctx context.Context, pileType *models.PileType, active *bool, limit, offset int) ([]models.PriceConfig, error) {
	return s.store.List(ctx, pileType, active, limit, offset)
}

// checkConflicts rejects a window that overlaps any other active window for
// the type. Open (nil) bounds count as overlapping everything they do not
// provably miss, so two unbounded active configs always conflict.
func (s *PriceService) checkConflicts(ctx context.Context, pileType models.PileType, start, end *time.Time, excludeID int64) error {
	others, err := s.store.FindActiveByType(ctx, pileType, excludeID)
	if err != nil {
		return fmt.Errorf("price: load active configs: %w", err)
	}
	for _, other := range others {
		if other.WindowOverlaps(start, end) {
			return apperr.ErrConfigConflict
		}
	}
	return nil
}
