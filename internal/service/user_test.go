package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage/memory"
)

const testWallet = "0x52908400098527886E0F7030069857D2E4169EE7"

func newUserService(t *testing.T) (UserService, *memory.Store, AuditService) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	audit := NewAuditService(store)
	return NewUserService(store, audit), store, audit
}

func activeAirdrop(t *testing.T, store *memory.Store, id string, taskPoints int) {
	t.Helper()
	require.NoError(t, store.SaveAirdrop(context.Background(), &models.Airdrop{
		ID:        id,
		Title:     "Drop",
		Status:    models.AirdropStatusActive,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Tasks: []models.Task{
			{ID: "t1", Type: models.TaskTypeTwitter, Title: "Follow", Points: taskPoints},
			{ID: "t2", Type: models.TaskTypeDiscord, Title: "Join", Points: 10},
		},
	}))
}

func TestConnectWalletRejectsBadAddress(t *testing.T) {
	svc, _, _ := newUserService(t)

	_, err := svc.ConnectWallet(context.Background(), "not-an-address")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidWallet, appErr.Code)
}

func TestConnectWalletCreatesThenReuses(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	u1, err := svc.ConnectWallet(ctx, testWallet)
	require.NoError(t, err)
	assert.True(t, u1.IsConnected)
	assert.Equal(t, "0x52908400098527886e0f7030069857d2e4169ee7", u1.WalletAddress)

	// Same address, regardless of case, maps to the same user.
	u2, err := svc.ConnectWallet(ctx, "0x52908400098527886e0f7030069857D2E4169EE7")
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
}

func TestCompleteTaskCreditsOnce(t *testing.T) {
	svc, store, _ := newUserService(t)
	ctx := context.Background()
	activeAirdrop(t, store, "a1", 50)

	u, err := svc.ConnectWallet(ctx, testWallet)
	require.NoError(t, err)

	u, err = svc.CompleteTask(ctx, u.ID, "a1", "t1")
	require.NoError(t, err)
	assert.Equal(t, 50, u.TotalPoints)
	assert.Equal(t, 50, u.Balance)

	// Repeat completion is rejected and changes nothing.
	_, err = svc.CompleteTask(ctx, u.ID, "a1", "t1")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeTaskCompleted, appErr.Code)

	got, err := store.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.TotalPoints)

	// A different task in the same airdrop still credits.
	got2, err := svc.CompleteTask(ctx, u.ID, "a1", "t2")
	require.NoError(t, err)
	assert.Equal(t, 60, got2.TotalPoints)
}

func TestCompleteTaskCountsParticipantOnce(t *testing.T) {
	svc, store, _ := newUserService(t)
	ctx := context.Background()
	activeAirdrop(t, store, "a1", 50)

	u, err := svc.ConnectWallet(ctx, testWallet)
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, u.ID, "a1", "t1")
	require.NoError(t, err)
	_, err = svc.CompleteTask(ctx, u.ID, "a1", "t2")
	require.NoError(t, err)

	a, err := store.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.Participants)
}

func TestCompleteTaskUnknownTargets(t *testing.T) {
	svc, store, _ := newUserService(t)
	ctx := context.Background()
	activeAirdrop(t, store, "a1", 50)
	u, err := svc.ConnectWallet(ctx, testWallet)
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, u.ID, "ghost", "t1")
	appErr, _ := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeAirdropNotFound, appErr.Code)

	_, err = svc.CompleteTask(ctx, u.ID, "a1", "ghost")
	appErr, _ = apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeTaskNotFound, appErr.Code)

	_, err = svc.CompleteTask(ctx, "ghost", "a1", "t1")
	appErr, _ = apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrCodeUserNotFound, appErr.Code)
}

func TestUserUpdateRejectsUnknownField(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()
	u, err := svc.ConnectWallet(ctx, testWallet)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "admin", u.ID, models.Patch{"bogus": 1})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)

	_, err = svc.Update(ctx, "admin", "ghost", models.Patch{"telegram": "@x"})
	appErr, ok = apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeUserNotFound, appErr.Code)
}

func TestMutationsAreAuditedOnce(t *testing.T) {
	svc, store, audit := newUserService(t)
	ctx := context.Background()
	activeAirdrop(t, store, "a1", 50)

	u, err := svc.ConnectWallet(ctx, testWallet)
	require.NoError(t, err)
	_, err = svc.CompleteTask(ctx, u.ID, "a1", "t1")
	require.NoError(t, err)
	// A rejected repeat must not add an audit row.
	_, _ = svc.CompleteTask(ctx, u.ID, "a1", "t1")

	entries, err := audit.Log(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionCompleteTask, entries[0].Action)
	assert.Equal(t, models.AuditActionCreate, entries[1].Action)
}
