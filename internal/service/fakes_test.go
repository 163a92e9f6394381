package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"smartcharger/internal/models"
)

// In-memory store fakes. Mutations take a mutex so the concurrency tests
// exercise the same conditional-update semantics as the SQL repositories.

type fakePileStore struct {
	mu    sync.Mutex
	seq   int64
	piles map[int64]models.ChargingPile
}

func newFakePileStore() *fakePileStore {
	return &fakePileStore{piles: make(map[int64]models.ChargingPile)}
}

func (f *fakePileStore) add(pile models.ChargingPile) models.ChargingPile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pile.ID == 0 {
		f.seq++
		pile.ID = f.seq
	}
	f.piles[pile.ID] = pile
	return pile
}

func (f *fakePileStore) GetByID(ctx context.Context, id int64) (*models.ChargingPile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pile, ok := f.piles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &pile, nil
}

func (f *fakePileStore) Create(ctx context.Context, p *models.ChargingPile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	p.ID = f.seq
	f.piles[p.ID] = *p
	return nil
}

func (f *fakePileStore) UpdateStatusFrom(ctx context.Context, id int64, to models.PileStatus, from ...models.PileStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pile, ok := f.piles[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if pile.Status == st {
			pile.Status = to
			f.piles[id] = pile
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePileStore) HasHistory(ctx context.Context, id int64) (bool, error) {
	return false, nil
}

func (f *fakePileStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.piles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.piles, id)
	return nil
}

func (f *fakePileStore) status(id int64) models.PileStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.piles[id].Status
}

type fakeReservationStore struct {
	mu           sync.Mutex
	seq          int64
	reservations map[int64]models.Reservation
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{reservations: make(map[int64]models.Reservation)}
}

func (f *fakeReservationStore) add(res models.Reservation) models.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	if res.ID == 0 {
		f.seq++
		res.ID = f.seq
	}
	f.reservations[res.ID] = res
	return res
}

func (f *fakeReservationStore) Create(ctx context.Context, res *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	res.ID = f.seq
	res.CreatedTime = time.Now()
	f.reservations[res.ID] = *res
	return nil
}

func (f *fakeReservationStore) GetByIDAndUser(ctx context.Context, id, userID int64) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok || res.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &res, nil
}

func (f *fakeReservationStore) FindPendingByUser(ctx context.Context, userID int64) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, res := range f.reservations {
		if res.UserID == userID && res.Status == models.ReservationPending {
			r := res
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReservationStore) FindPendingByPileEndingAfter(ctx context.Context, pileID int64, after time.Time) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, res := range f.reservations {
		if res.ChargingPileID == pileID && res.Status == models.ReservationPending && res.EndTime.After(after) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeReservationStore) FindExpiredPending(ctx context.Context, now time.Time) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, res := range f.reservations {
		if res.Status == models.ReservationPending && res.EndTime.Before(now) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (f *fakeReservationStore) UpdateStatusFrom(ctx context.Context, id int64, to, from models.ReservationStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok || res.Status != from {
		return false, nil
	}
	res.Status = to
	f.reservations[id] = res
	return true, nil
}

func (f *fakeReservationStore) ListByUser(ctx context.Context, userID int64, status *models.ReservationStatus, limit, offset int) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, res := range f.reservations {
		if res.UserID != userID {
			continue
		}
		if status != nil && res.Status != *status {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeReservationStore) get(id int64) models.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id]
}

func (f *fakeReservationStore) countByStatus(status models.ReservationStatus) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, res := range f.reservations {
		if res.Status == status {
			n++
		}
	}
	return n
}

type fakeRecordStore struct {
	mu      sync.Mutex
	seq     int64
	records map[int64]models.ChargingRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: make(map[int64]models.ChargingRecord)}
}

func (f *fakeRecordStore) add(rec models.ChargingRecord) models.ChargingRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec.ID == 0 {
		f.seq++
		rec.ID = f.seq
	}
	f.records[rec.ID] = rec
	return rec
}

func (f *fakeRecordStore) Create(ctx context.Context, rec *models.ChargingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	rec.ID = f.seq
	rec.CreatedTime = time.Now()
	f.records[rec.ID] = *rec
	return nil
}

func (f *fakeRecordStore) GetByID(ctx context.Context, id int64) (*models.ChargingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rec, nil
}

func (f *fakeRecordStore) FindChargingByUser(ctx context.Context, userID int64) (*models.ChargingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.UserID == userID && rec.Status == models.RecordCharging {
			r := rec
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRecordStore) Complete(ctx context.Context, id int64, endTime time.Time, durationMinutes int, quantity, fee decimal.Decimal) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.Status != models.RecordCharging {
		return false, nil
	}
	rec.EndTime = &endTime
	rec.Duration = &durationMinutes
	rec.ElectricQuantity = &quantity
	rec.Fee = &fee
	rec.Status = models.RecordCompleted
	f.records[id] = rec
	return true, nil
}

func (f *fakeRecordStore) UpdateStatusFrom(ctx context.Context, id int64, to, from models.RecordStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	f.records[id] = rec
	return true, nil
}

func (f *fakeRecordStore) FindByStatus(ctx context.Context, status models.RecordStatus) ([]models.ChargingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChargingRecord
	for _, rec := range f.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) ListByUser(ctx context.Context, userID int64, status *models.RecordStatus, limit, offset int) ([]models.ChargingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ChargingRecord
	for _, rec := range f.records {
		if rec.UserID != userID {
			continue
		}
		if status != nil && rec.Status != *status {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeRecordStore) get(id int64) models.ChargingRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[id]
}

type fakePriceStore struct {
	mu      sync.Mutex
	seq     int64
	configs map[int64]models.PriceConfig
}

func newFakePriceStore() *fakePriceStore {
	return &fakePriceStore{configs: make(map[int64]models.PriceConfig)}
}

func (f *fakePriceStore) add(cfg models.PriceConfig) models.PriceConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cfg.ID == 0 {
		f.seq++
		cfg.ID = f.seq
	}
	if cfg.CreatedTime.IsZero() {
		cfg.CreatedTime = time.Now()
	}
	f.configs[cfg.ID] = cfg
	return cfg
}

func (f *fakePriceStore) Create(ctx context.Context, cfg *models.PriceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	cfg.ID = f.seq
	cfg.CreatedTime = time.Now()
	f.configs[cfg.ID] = *cfg
	return nil
}

func (f *fakePriceStore) Update(ctx context.Context, cfg *models.PriceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.configs[cfg.ID]; !ok {
		return sql.ErrNoRows
	}
	f.configs[cfg.ID] = *cfg
	return nil
}

func (f *fakePriceStore) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.configs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.configs, id)
	return nil
}

func (f *fakePriceStore) GetByID(ctx context.Context, id int64) (*models.PriceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cfg, ok := f.configs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &cfg, nil
}

func (f *fakePriceStore) FindCurrentActive(ctx context.Context, pileType models.PileType, at time.Time) ([]models.PriceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PriceConfig
	for _, cfg := range f.configs {
		if cfg.PileType == pileType && cfg.Active && cfg.Covers(at) {
			out = append(out, cfg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedTime.After(out[j].CreatedTime) })
	return out, nil
}

func (f *fakePriceStore) FindActiveByType(ctx context.Context, pileType models.PileType, excludeID int64) ([]models.PriceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PriceConfig
	for _, cfg := range f.configs {
		if cfg.PileType == pileType && cfg.Active && cfg.ID != excludeID {
			out = append(out, cfg)
		}
	}
	return out, nil
}

func (f *fakePriceStore) List(ctx context.Context, pileType *models.PileType, active *bool, limit, offset int) ([]models.PriceConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PriceConfig
	for _, cfg := range f.configs {
		if pileType != nil && cfg.PileType != *pileType {
			continue
		}
		if active != nil && cfg.Active != *active {
			continue
		}
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type fakeNoticeStore struct {
	mu      sync.Mutex
	seq     int64
	notices map[int64]models.WarningNotice
}

func newFakeNoticeStore() *fakeNoticeStore {
	return &fakeNoticeStore{notices: make(map[int64]models.WarningNotice)}
}

func (f *fakeNoticeStore) Create(ctx context.Context, n *models.WarningNotice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	n.ID = f.seq
	n.CreatedTime = time.Now()
	f.notices[n.ID] = *n
	return nil
}

func (f *fakeNoticeStore) ExistsForRecord(ctx context.Context, recordID int64, noticeType models.NoticeType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.notices {
		if n.ChargingRecordID == recordID && n.Type == noticeType {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNoticeStore) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]models.WarningNotice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WarningNotice
	for _, n := range f.notices {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.Read {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeNoticeStore) CountUnread(ctx context.Context, userID int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, notice := range f.notices {
		if notice.UserID == userID && !notice.Read {
			n++
		}
	}
	return n, nil
}

func (f *fakeNoticeStore) MarkRead(ctx context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notices[id]
	if !ok || n.UserID != userID {
		return sql.ErrNoRows
	}
	n.Read = true
	f.notices[id] = n
	return nil
}

func (f *fakeNoticeStore) MarkAllRead(ctx context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, n := range f.notices {
		if n.UserID == userID {
			n.Read = true
			f.notices[id] = n
		}
	}
	return nil
}

func (f *fakeNoticeStore) Delete(ctx context.Context, id, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.notices[id]
	if !ok || n.UserID != userID {
		return sql.ErrNoRows
	}
	delete(f.notices, id)
	return nil
}

func (f *fakeNoticeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
}

type fakeVehicleStore struct {
	mu       sync.Mutex
	vehicles map[int64]models.Vehicle
}

func newFakeVehicleStore() *fakeVehicleStore {
	return &fakeVehicleStore{vehicles: make(map[int64]models.Vehicle)}
}

func (f *fakeVehicleStore) add(v models.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vehicles[v.ID] = v
}

func (f *fakeVehicleStore) FindByIDAndUser(ctx context.Context, id, userID int64) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok || v.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return &v, nil
}

type fakeSettingsStore struct {
	mu     sync.Mutex
	user   map[int64]map[string]string
	system map[string]string
}

func newFakeSettingsStore() *fakeSettingsStore {
	return &fakeSettingsStore{
		user:   make(map[int64]map[string]string),
		system: make(map[string]string),
	}
}

func (f *fakeSettingsStore) GetUserValue(ctx context.Context, userID int64, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if vals, ok := f.user[userID]; ok {
		if v, ok := vals[key]; ok {
			return v, nil
		}
	}
	return "", sql.ErrNoRows
}

func (f *fakeSettingsStore) GetSystemValue(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.system[key]; ok {
		return v, nil
	}
	return "", sql.ErrNoRows
}

func (f *fakeSettingsStore) UpsertUserValue(ctx context.Context, userID int64, key, value, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user[userID] == nil {
		f.user[userID] = make(map[string]string)
	}
	f.user[userID][key] = value
	return nil
}

func (f *fakeSettingsStore) setSystem(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.system[key] = value
}
