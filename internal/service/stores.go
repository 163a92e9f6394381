package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"smartcharger/internal/models"
)

// Store interfaces are defined on the consumer side so services can be tested
// against in-memory fakes. The repository package provides the SQL-backed
// implementations.

// PileStore persists charging piles.
type PileStore interface {
	GetByID(ctx context.Context, id int64) (*models.ChargingPile, error)
	Create(ctx context.Context, p *models.ChargingPile) error
	UpdateStatusFrom(ctx context.Context, id int64, to models.PileStatus, from ...models.PileStatus) (bool, error)
	HasHistory(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// ReservationStore persists reservations.
type ReservationStore interface {
	Create(ctx context.Context, res *models.Reservation) error
	GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Reservation, error)
	FindPendingByUser(ctx context.Context, userID int64) (*models.Reservation, error)
	FindPendingByPileEndingAfter(ctx context.Context, pileID int64, after time.Time) ([]models.Reservation, error)
	FindExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error)
	UpdateStatusFrom(ctx context.Context, id int64, to, from models.ReservationStatus) (bool, error)
	ListByUser(ctx context.Context, userID int64, status *models.ReservationStatus, limit, offset int) ([]models.Reservation, error)
}

// RecordStore persists charging records.
type RecordStore interface {
	Create(ctx context.Context, rec *models.ChargingRecord) error
	GetByID(ctx context.Context, id int64) (*models.ChargingRecord, error)
	FindChargingByUser(ctx context.Context, userID int64) (*models.ChargingRecord, error)
	Complete(ctx context.Context, id int64, endTime time.Time, durationMinutes int, quantity, fee decimal.Decimal) (bool, error)
	UpdateStatusFrom(ctx context.Context, id int64, to, from models.RecordStatus) (bool, error)
	FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.ChargingRecord, error)
	ListByUser(ctx context.Context, userID int64, status *models.RecordStatus, limit, offset int) ([]models.ChargingRecord, error)
}

// PriceStore persists price configurations.
type PriceStore interface {
	Create(ctx context.Context, cfg *models.PriceConfig) error
	Update(ctx context.Context, cfg *models.PriceConfig) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.PriceConfig, error)
	FindCurrentActive(ctx context.Context, pileType models.PileType, at time.Time) ([]models.PriceConfig, error)
	FindActiveByType(ctx context.Context, pileType models.PileType, excludeID int64) ([]models.PriceConfig, error)
	List(ctx context.Context, pileType *models.PileType, active *bool, limit, offset int) ([]models.PriceConfig, error)
}

// NoticeStore persists warning notices.
type NoticeStore interface {
	Create(ctx context.Context, n *models.WarningNotice) error
	ExistsForRecord(ctx context.Context, recordID int64, noticeType models.NoticeType) (bool, error)
	ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.WarningNotice, error)
	CountUnread(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
}

// VehicleStore is the vehicle-directory collaborator.
type VehicleStore interface {
	FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Vehicle, error)
}

// SettingsStore persists key/value settings with optional per-user scope.
type SettingsStore interface {
	GetUserValue(ctx context.Context, userID int64, key string) (string, error)
	GetSystemValue(ctx context.Context, key string) (string, error)
	UpsertUserValue(ctx context.Context, userID int64, key, value, description string) error
}
