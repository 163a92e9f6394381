package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartcharger/internal/apperr"
	"smartcharger/internal/lock"
	"smartcharger/internal/models"
)

type chargingFixture struct {
	svc          *ChargingService
	reservations *fakeReservationStore
	records      *fakeRecordStore
	piles        *fakePileStore
	vehicles     *fakeVehicleStore
	prices       *fakePriceStore
	locker       lock.Locker
}

func newChargingFixture() *chargingFixture {
	reservations := newFakeReservationStore()
	records := newFakeRecordStore()
	piles := newFakePileStore()
	vehicles := newFakeVehicleStore()
	prices := newFakePriceStore()
	locker := lock.NewMemory()
	logger := zap.NewNop()

	priceSvc := NewPriceService(prices, logger)
	svc := NewChargingService(
		records, reservations, piles, vehicles, priceSvc, locker, logger,
		2*time.Second, 10*time.Second, 30*time.Minute,
	)
	return &chargingFixture{
		svc:          svc,
		reservations: reservations,
		records:      records,
		piles:        piles,
		vehicles:     vehicles,
		prices:       prices,
		locker:       locker,
	}
}

func (f *chargingFixture) addACPrice(pricePerKwh, serviceFee string) {
	f.prices.add(models.PriceConfig{
		PileType:    models.PileTypeAC,
		PricePerKwh: decimal.RequireFromString(pricePerKwh),
		ServiceFee:  decimal.RequireFromString(serviceFee),
		Active:      true,
	})
}

func TestStartChargingOnIdlePile(t *testing.T) {
	f := newChargingFixture()
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RecordCharging, rec.Status)
	assert.Equal(t, models.PileCharging, f.piles.status(pile.ID))
}

func TestStartChargingConsumesOwnReservation(t *testing.T) {
	f := newChargingFixture()
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileReserved})
	now := time.Now()
	res := f.reservations.add(models.Reservation{
		UserID:         1,
		ChargingPileID: pile.ID,
		StartTime:      now.Add(10 * time.Minute),
		EndTime:        now.Add(2 * time.Hour),
		Status:         models.ReservationPending,
	})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RecordCharging, rec.Status)
	assert.Equal(t, models.ReservationCompleted, f.reservations.get(res.ID).Status)
	assert.Equal(t, models.PileCharging, f.piles.status(pile.ID))
}

func TestStartChargingBlockedByOtherUsersReservation(t *testing.T) {
	f := newChargingFixture()
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileReserved})
	now := time.Now()
	f.reservations.add(models.Reservation{
		UserID:         2,
		ChargingPileID: pile.ID,
		StartTime:      now.Add(-10 * time.Minute),
		EndTime:        now.Add(2 * time.Hour),
		Status:         models.ReservationPending,
	})

	_, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrNoValidReservation)
	assert.Equal(t, models.PileReserved, f.piles.status(pile.ID))
}

func TestStartChargingRepairsDriftedPileStatus(t *testing.T) {
	f := newChargingFixture()
	// Pile reads IDLE even though another user holds a pending reservation.
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})
	now := time.Now()
	f.reservations.add(models.Reservation{
		UserID:         2,
		ChargingPileID: pile.ID,
		StartTime:      now.Add(-10 * time.Minute),
		EndTime:        now.Add(2 * time.Hour),
		Status:         models.ReservationPending,
	})

	_, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrNoValidReservation)
	assert.Equal(t, models.PileReserved, f.piles.status(pile.ID))
}

func TestStartChargingRejectsSecondActiveSession(t *testing.T) {
	f := newChargingFixture()
	first := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})
	second := f.piles.add(models.ChargingPile{Code: "P-002", Type: models.PileTypeAC, Status: models.PileIdle})

	_, err := f.svc.Start(context.Background(), 1, first.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), 1, second.ID, nil)
	assert.ErrorIs(t, err, apperr.ErrUserAlreadyCharging)
}

func TestStartChargingOnBusyPile(t *testing.T) {
	f := newChargingFixture()

	for _, status := range []models.PileStatus{models.PileCharging, models.PileFault} {
		pile := f.piles.add(models.ChargingPile{Code: "P-" + string(status), Type: models.PileTypeAC, Status: status})
		_, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
		assert.ErrorIs(t, err, apperr.ErrPileNotIdle, "status %s", status)
	}
}

func TestStartChargingValidatesVehicleOwnership(t *testing.T) {
	f := newChargingFixture()
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})
	f.vehicles.add(models.Vehicle{ID: 7, UserID: 2, LicensePlate: "AB-123"})

	vehicleID := int64(7)
	_, err := f.svc.Start(context.Background(), 1, pile.ID, &vehicleID)
	assert.ErrorIs(t, err, apperr.ErrVehicleNotFound)
}

func TestConcurrentStartsAdmitExactlyOne(t *testing.T) {
	f := newChargingFixture()
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = f.svc.Start(context.Background(), int64(n+1), pile.ID, nil)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		ok := errors.Is(err, apperr.ErrPileNotIdle) || errors.Is(err, apperr.ErrSystemBusy)
		assert.True(t, ok, "unexpected error: %v", err)
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, models.PileCharging, f.piles.status(pile.ID))
}

func TestEndChargingComputesFeeAndFreesPile(t *testing.T) {
	f := newChargingFixture()
	f.addACPrice("2.00", "0.50")
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)

	ended, err := f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("10"))
	require.NoError(t, err)
	require.NotNil(t, ended.Fee)
	assert.Equal(t, "25.00", ended.Fee.StringFixed(2))
	assert.Equal(t, models.RecordCompleted, ended.Status)
	assert.Equal(t, models.PileIdle, f.piles.status(pile.ID))
}

func TestEndChargingWithoutPriceConfigFails(t *testing.T) {
	f := newChargingFixture()
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("10"))
	assert.ErrorIs(t, err, apperr.ErrNoActiveConfig)

	// The session stays open and the pile stays occupied.
	assert.Equal(t, models.RecordCharging, f.records.get(rec.ID).Status)
	assert.Equal(t, models.PileCharging, f.piles.status(pile.ID))
}

func TestEndChargingOfAnotherUserIsForbidden(t *testing.T) {
	f := newChargingFixture()
	f.addACPrice("2.00", "0.50")
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.End(context.Background(), 2, rec.ID, decimal.RequireFromString("10"))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestEndChargingTwiceFails(t *testing.T) {
	f := newChargingFixture()
	f.addACPrice("2.00", "0.50")
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("10"))
	require.NoError(t, err)

	_, err = f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("10"))
	assert.ErrorIs(t, err, apperr.ErrRecordNotCharging)
}

func TestEndChargingFreesOvertimePile(t *testing.T) {
	f := newChargingFixture()
	f.addACPrice("2.00", "0.50")
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileOvertime})
	rec := f.records.add(models.ChargingRecord{
		UserID:         1,
		ChargingPileID: pile.ID,
		StartTime:      time.Now().Add(-time.Hour),
		Status:         models.RecordCharging,
	})

	_, err := f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("5"))
	require.NoError(t, err)
	assert.Equal(t, models.PileIdle, f.piles.status(pile.ID))
}

func TestReserveStartEndLifecycle(t *testing.T) {
	f := newChargingFixture()
	f.addACPrice("1.50", "0.50")
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	resSvc := NewReservationService(
		f.reservations, f.piles, f.locker, zap.NewNop(),
		2*time.Second, 10*time.Second, 2*time.Hour,
	)

	res, err := resSvc.Create(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PileReserved, f.piles.status(pile.ID))

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCompleted, f.reservations.get(res.ID).Status)
	assert.Equal(t, models.PileCharging, f.piles.status(pile.ID))

	ended, err := f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("8"))
	require.NoError(t, err)
	assert.Equal(t, "16.00", ended.Fee.StringFixed(2))
	assert.Equal(t, models.PileIdle, f.piles.status(pile.ID))
}

func TestDetailIncludesFeeBreakdown(t *testing.T) {
	f := newChargingFixture()
	f.addACPrice("2.00", "0.50")
	pile := f.piles.add(models.ChargingPile{Code: "P-001", Type: models.PileTypeAC, Status: models.PileIdle})

	rec, err := f.svc.Start(context.Background(), 1, pile.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.End(context.Background(), 1, rec.ID, decimal.RequireFromString("10"))
	require.NoError(t, err)

	detail, err := f.svc.Detail(context.Background(), 1, rec.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Breakdown)
	assert.Equal(t, "20.00", detail.Breakdown.ElectricityFee.StringFixed(2))
	assert.Equal(t, "5.00", detail.Breakdown.ServiceTotal.StringFixed(2))
}
