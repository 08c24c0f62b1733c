package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage/memory"
)

func newWithdrawalService(t *testing.T) (WithdrawalService, *memory.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return NewWithdrawalService(store, NewAuditService(store)), store
}

func fundUser(t *testing.T, store *memory.Store, id string, points int) {
	t.Helper()
	require.NoError(t, store.SaveUser(context.Background(), &models.User{
		ID:             id,
		CompletedTasks: models.CompletedTasks{},
		TotalPoints:    points,
		Balance:        points,
	}))
}

func TestRequestWithdrawal(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 500)

	w, err := svc.Request(ctx, "u1", 200)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)
	assert.Equal(t, 200, w.Amount)
	// Default conversion rate is 100 points per USDC.
	assert.Equal(t, "2", w.USDCAmount.String())

	u, err := store.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 300, u.TotalPoints)
}

func TestRequestBelowMinimum(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 500)

	_, err := svc.Request(ctx, "u1", 50)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeBelowMinimum, appErr.Code)
}

func TestRequestDuringMaintenance(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 500)
	require.NoError(t, store.SetSetting(ctx, models.SettingMaintenanceMode, "true"))

	_, err := svc.Request(ctx, "u1", 200)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeMaintenance, appErr.Code)
}

func TestRequestInsufficientPoints(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 100)

	_, err := svc.Request(ctx, "u1", 300)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInsufficientFunds, appErr.Code)

	u, err := store.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, u.TotalPoints)
}

func TestRequestDailyLimit(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 1000)
	require.NoError(t, store.SetSetting(ctx, models.SettingMaxDailyWithdrawals, "1"))

	_, err := svc.Request(ctx, "u1", 100)
	require.NoError(t, err)

	_, err = svc.Request(ctx, "u1", 100)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeWithdrawalLimit, appErr.Code)
}

func TestCompleteWithdrawal(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 500)

	w, err := svc.Request(ctx, "u1", 200)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, "admin", w.ID, "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusCompleted, done.Status)
	assert.Equal(t, "0xdeadbeef", done.TxHash)

	// A completed withdrawal cannot be completed again.
	_, err = svc.Complete(ctx, "admin", w.ID, "0xother")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestFailWithdrawalRestoresPoints(t *testing.T) {
	svc, store := newWithdrawalService(t)
	ctx := context.Background()
	fundUser(t, store, "u1", 500)

	w, err := svc.Request(ctx, "u1", 200)
	require.NoError(t, err)

	failed, err := svc.Fail(ctx, "admin", w.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusFailed, failed.Status)

	u, err := store.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500, u.TotalPoints)

	// Failing twice is a conflict, not a double refund.
	_, err = svc.Fail(ctx, "admin", w.ID)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeConflict, appErr.Code)
}

func TestGetUnknownWithdrawal(t *testing.T) {
	svc, _ := newWithdrawalService(t)

	_, err := svc.Get(context.Background(), "ghost")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeWithdrawalNotFound, appErr.Code)
}
