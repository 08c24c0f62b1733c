package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage/memory"
	"airdrophub-backend/internal/storage/sqlite"
)

func newExportService(t *testing.T) (ExportService, *memory.Store) {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { _ = store.Close() })
	return NewExportService(store, NewAuditService(store)), store
}

func seedExportData(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.SaveAirdrop(ctx, &models.Airdrop{
		ID:        "a1",
		Title:     "O'Reilly Drop",
		Status:    models.AirdropStatusActive,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Tasks:     []models.Task{{ID: "t1", Type: models.TaskTypeTwitter, Title: "Follow", Points: 50}},
	}))
	require.NoError(t, store.SaveUser(ctx, &models.User{
		ID:             "u1",
		WalletAddress:  "0xabc",
		CompletedTasks: models.CompletedTasks{"a1": {"t1"}},
		TotalPoints:    300,
		Balance:        300,
	}))
	require.NoError(t, store.CreateWithdrawal(ctx, &models.Withdrawal{
		ID: "w1", UserID: "u1", Amount: 100,
	}))
}

func TestExportSQLDeterministic(t *testing.T) {
	svc, store := newExportService(t)
	seedExportData(t, store)

	first, err := svc.ExportSQL(context.Background())
	require.NoError(t, err)
	second, err := svc.ExportSQL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExportSQLShape(t *testing.T) {
	svc, store := newExportService(t)
	seedExportData(t, store)

	dump, err := svc.ExportSQL(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dump, "-- AirdropHub Database Export\n"))

	// Children are cleared before parents so the dump replays under
	// foreign keys.
	assert.Less(t, strings.Index(dump, "DELETE FROM withdrawals;"), strings.Index(dump, "DELETE FROM users;"))
	assert.Less(t, strings.Index(dump, "DELETE FROM users;"), strings.Index(dump, "DELETE FROM airdrops;"))

	// Embedded quotes are doubled.
	assert.Contains(t, dump, "'O''Reilly Drop'")
	assert.Contains(t, dump, "INSERT INTO users")
	assert.Contains(t, dump, "INSERT INTO withdrawals")
	// Settings are upserted, never deleted.
	assert.Contains(t, dump, "ON CONFLICT(setting_key) DO UPDATE")
	assert.NotContains(t, dump, "DELETE FROM settings")
}

func TestExportSQLEmptyDatabase(t *testing.T) {
	svc, _ := newExportService(t)

	dump, err := svc.ExportSQL(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dump, "DELETE FROM airdrops;")
	assert.NotContains(t, dump, "INSERT INTO airdrops")
	// Seeded defaults still export.
	assert.Contains(t, dump, "'points_to_usdc_rate'")
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	require.NoError(t, src.SaveAirdrop(ctx, &models.Airdrop{
		ID:        "a1",
		Title:     "Genesis",
		Status:    models.AirdropStatusActive,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Tasks:     []models.Task{{ID: "t1", Type: models.TaskTypeTwitter, Title: "Follow", Points: 50}},
	}))
	require.NoError(t, src.SaveUser(ctx, &models.User{
		ID:             "u1",
		WalletAddress:  "0xabc",
		CompletedTasks: models.CompletedTasks{"a1": {"t1"}},
		TotalPoints:    300,
		Balance:        300,
	}))
	require.NoError(t, src.CreateWithdrawal(ctx, &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 100}))

	srcSvc := NewExportService(src, NewAuditService(src))
	dump, err := srcSvc.ExportSQL(ctx)
	require.NoError(t, err)

	dst, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = dst.Close() })

	dstSvc := NewExportService(dst, NewAuditService(dst))
	require.NoError(t, dstSvc.ImportSQL(ctx, dump))

	// Replaying the dump into a fresh engine reproduces the dataset.
	again, err := dstSvc.ExportSQL(ctx)
	require.NoError(t, err)
	assert.Equal(t, dump, again)

	u, err := dst.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 200, u.TotalPoints)
	assert.True(t, u.CompletedTasks.Contains("a1", "t1"))
}

func TestImportSQLUnsupportedEngine(t *testing.T) {
	svc, _ := newExportService(t)

	err := svc.ImportSQL(context.Background(), "DELETE FROM users;")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeBadRequest, appErr.Code)
}
