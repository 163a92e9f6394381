package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartcharger/internal/apperr"
	"smartcharger/internal/models"
)

func newNoticeFixture() (*NoticeService, *fakeNoticeStore, *fakeSettingsStore) {
	notices := newFakeNoticeStore()
	settings := newFakeSettingsStore()
	svc := NewNoticeService(notices, settings, zap.NewNop(), 30)
	return svc, notices, settings
}

func TestCreateOvertimeWarningOncePerRecord(t *testing.T) {
	svc, notices, _ := newNoticeFixture()
	rec := &models.ChargingRecord{ID: 1, UserID: 1, ChargingPileID: 2}

	created, err := svc.CreateOvertimeWarning(context.Background(), rec, "P-001", 45)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.CreateOvertimeWarning(context.Background(), rec, "P-001", 60)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, notices.count())
}

func TestThresholdResolutionOrder(t *testing.T) {
	svc, _, settings := newNoticeFixture()
	ctx := context.Background()

	// No rows anywhere: built-in default.
	minutes, err := svc.Threshold(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 30, minutes)

	// System row overrides the default.
	settings.setSystem(models.ConfigKeyOvertimeThreshold, "45")
	minutes, err = svc.Threshold(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 45, minutes)

	// Per-user override wins over the system row.
	require.NoError(t, svc.SetThreshold(ctx, 1, 15))
	minutes, err = svc.Threshold(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 15, minutes)

	// Another user still sees the system row.
	minutes, err = svc.Threshold(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 45, minutes)
}

func TestThresholdIgnoresMalformedValues(t *testing.T) {
	svc, _, settings := newNoticeFixture()
	settings.setSystem(models.ConfigKeyOvertimeThreshold, "not-a-number")

	minutes, err := svc.Threshold(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 30, minutes)
}

func TestSetThresholdRejectsNonPositive(t *testing.T) {
	svc, _, _ := newNoticeFixture()
	err := svc.SetThreshold(context.Background(), 1, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidThreshold)
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	svc, _, _ := newNoticeFixture()
	ctx := context.Background()

	rec1 := &models.ChargingRecord{ID: 1, UserID: 1, ChargingPileID: 2}
	rec2 := &models.ChargingRecord{ID: 2, UserID: 1, ChargingPileID: 3}
	_, err := svc.CreateOvertimeWarning(ctx, rec1, "P-002", 40)
	require.NoError(t, err)
	_, err = svc.CreateOvertimeWarning(ctx, rec2, "P-003", 50)
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	items, err := svc.List(ctx, 1, true, 20, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, svc.MarkRead(ctx, 1, items[0].ID))
	count, err = svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, svc.MarkAllRead(ctx, 1))
	count, err = svc.UnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMarkReadOfOtherUsersNotice(t *testing.T) {
	svc, _, _ := newNoticeFixture()
	ctx := context.Background()

	rec := &models.ChargingRecord{ID: 1, UserID: 1, ChargingPileID: 2}
	_, err := svc.CreateOvertimeWarning(ctx, rec, "P-002", 40)
	require.NoError(t, err)

	err = svc.MarkRead(ctx, 2, 1)
	assert.ErrorIs(t, err, apperr.ErrNoticeNotFound)
}
