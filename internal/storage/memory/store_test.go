package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

func seedAirdrop(t *testing.T, s *Store, id string) *models.Airdrop {
	t.Helper()
	a := &models.Airdrop{
		ID:        id,
		Title:     "Drop " + id,
		Status:    models.AirdropStatusActive,
		StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Tasks: []models.Task{
			{ID: "t1", Type: models.TaskTypeTwitter, Title: "Follow", Points: 50},
		},
	}
	require.NoError(t, s.SaveAirdrop(context.Background(), a))
	return a
}

func seedUser(t *testing.T, s *Store, id string, points int) *models.User {
	t.Helper()
	u := &models.User{
		ID:             id,
		CompletedTasks: models.CompletedTasks{},
		TotalPoints:    points,
		Balance:        points,
	}
	require.NoError(t, s.SaveUser(context.Background(), u))
	return u
}

func TestAirdropCRUD(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAirdrop(t, s, "a1")

	got, err := s.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Drop a1", got.Title)
	assert.False(t, got.CreatedAt.IsZero())

	updated, err := s.UpdateAirdrop(ctx, "a1", models.Patch{"title": "Renamed"})
	require.NoError(t, err)
	assert.True(t, updated)

	got, err = s.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)

	deleted, err := s.DeleteAirdrop(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.AirdropByID(ctx, "a1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	deleted, err = s.DeleteAirdrop(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestUpdateMissingAirdropReportsNoMatch(t *testing.T) {
	s := New()

	updated, err := s.UpdateAirdrop(context.Background(), "ghost", models.Patch{"title": "x"})
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAirdrop(t, s, "a1")

	_, err := s.UpdateAirdrop(ctx, "a1", models.Patch{"bogus": 1})
	assert.ErrorIs(t, err, storage.ErrConstraint)

	got, err := s.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Drop a1", got.Title)
}

func TestAirdropFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAirdrop(t, s, "a1")
	b := seedAirdrop(t, s, "a2")
	_, err := s.UpdateAirdrop(ctx, b.ID, models.Patch{"status": "completed", "category": "DeFi"})
	require.NoError(t, err)

	active, err := s.Airdrops(ctx, models.AirdropFilter{Status: models.AirdropStatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "a1", active[0].ID)

	defi, err := s.Airdrops(ctx, models.AirdropFilter{Category: "DeFi"})
	require.NoError(t, err)
	require.Len(t, defi, 1)
	assert.Equal(t, "a2", defi[0].ID)

	paged, err := s.Airdrops(ctx, models.AirdropFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, paged, 1)
}

func TestSaveAirdropKeepsCreationTime(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := seedAirdrop(t, s, "a1")
	created := a.CreatedAt

	again := *a
	again.CreatedAt = time.Time{}
	require.NoError(t, s.SaveAirdrop(ctx, &again))

	got, err := s.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(created))
}

func TestUpdateUserRejectsNegativePoints(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 100)

	_, err := s.UpdateUser(ctx, "u1", models.Patch{"total_points": -50})
	assert.ErrorIs(t, err, storage.ErrConstraint)

	_, err = s.UpdateUser(ctx, "u1", models.Patch{"balance": -1})
	assert.ErrorIs(t, err, storage.ErrConstraint)

	u, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, u.TotalPoints)
	assert.Equal(t, 100, u.Balance)
}

func TestUpdateUserKeepsLastActive(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 100)

	before, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)

	_, err = s.UpdateUser(ctx, "u1", models.Patch{"telegram": "@alice"})
	require.NoError(t, err)

	after, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, after.LastActive.Equal(before.LastActive))

	// Patching last_active explicitly still works.
	stamp := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	_, err = s.UpdateUser(ctx, "u1", models.Patch{"last_active": stamp})
	require.NoError(t, err)

	after, err = s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, after.LastActive.Equal(stamp))
}

func TestCreateWithdrawalDeductsAtomically(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 500)

	w := &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 200}
	require.NoError(t, s.CreateWithdrawal(ctx, w))
	assert.Equal(t, models.WithdrawalStatusPending, w.Status)

	u, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 300, u.TotalPoints)
	assert.Equal(t, 300, u.Balance)
}

func TestCreateWithdrawalInsufficientPoints(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 100)

	err := s.CreateWithdrawal(ctx, &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 200})
	assert.ErrorIs(t, err, storage.ErrConstraint)

	// Rejection leaves balances and the withdrawal table untouched.
	u, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 100, u.TotalPoints)

	all, err := s.Withdrawals(ctx, models.WithdrawalFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateWithdrawalMissingUser(t *testing.T) {
	s := New()

	err := s.CreateWithdrawal(context.Background(), &models.Withdrawal{ID: "w1", UserID: "ghost", Amount: 10})
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func TestCreateWithdrawalNonPositiveAmount(t *testing.T) {
	s := New()
	seedUser(t, s, "u1", 100)

	err := s.CreateWithdrawal(context.Background(), &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 0})
	assert.ErrorIs(t, err, storage.ErrConstraint)
}

func TestFailWithdrawalRefunds(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 500)
	require.NoError(t, s.CreateWithdrawal(ctx, &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 200}))

	failed, err := s.FailWithdrawal(ctx, "w1")
	require.NoError(t, err)
	assert.True(t, failed)

	u, err := s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500, u.TotalPoints)

	w, err := s.WithdrawalByID(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusFailed, w.Status)

	// A second fail must not refund twice.
	failed, err = s.FailWithdrawal(ctx, "w1")
	require.NoError(t, err)
	assert.False(t, failed)

	u, err = s.UserByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 500, u.TotalPoints)
}

func TestDeleteUserCascadesWithdrawals(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 500)
	require.NoError(t, s.CreateWithdrawal(ctx, &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 100}))

	deleted, err := s.DeleteUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, deleted)

	all, err := s.Withdrawals(ctx, models.WithdrawalFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSettingsSeededWithDefaults(t *testing.T) {
	s := New()
	ctx := context.Background()

	rate, err := s.Setting(ctx, models.SettingPointsToUSDCRate)
	require.NoError(t, err)
	assert.Equal(t, "100", rate)

	_, err = s.Setting(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.SetSetting(ctx, models.SettingMaintenanceMode, "true"))
	v, err := s.Setting(ctx, models.SettingMaintenanceMode)
	require.NoError(t, err)
	assert.Equal(t, "true", v)

	all, err := s.Settings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(models.DefaultSettings))
}

func TestAuditAppendAssignsSequentialIDs(t *testing.T) {
	s := New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := &models.AuditEntry{ActorID: "admin", Action: models.AuditActionCreate, TargetType: models.AuditTargetAirdrop, TargetID: "a1"}
		require.NoError(t, s.AppendAudit(ctx, e))
		assert.Equal(t, int64(i+1), e.ID)
	}

	entries, err := s.AuditLog(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first.
	assert.Equal(t, int64(3), entries[0].ID)
	assert.Equal(t, int64(2), entries[1].ID)
}

func TestAnalyticsRecomputedPerCall(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAirdrop(t, s, "a1")
	seedUser(t, s, "u1", 300)
	u2 := seedUser(t, s, "u2", 200)
	u2.IsConnected = true
	require.NoError(t, s.SaveUser(ctx, u2))

	a, err := s.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, a.TotalAirdrops)
	assert.Equal(t, 1, a.ActiveAirdrops)
	assert.Equal(t, 2, a.TotalUsers)
	assert.Equal(t, 1, a.ConnectedUsers)
	assert.Equal(t, 500, a.TotalPoints)

	require.NoError(t, s.CreateWithdrawal(ctx, &models.Withdrawal{ID: "w1", UserID: "u1", Amount: 100}))

	a, err = s.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 400, a.TotalPoints)
	assert.Equal(t, 1, a.TotalWithdrawals)
	assert.Equal(t, 1, a.PendingWithdrawals)
}

func TestLeaderboardOrdersByPoints(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedUser(t, s, "u1", 100)
	seedUser(t, s, "u2", 300)
	seedUser(t, s, "u3", 200)

	entries, err := s.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "u2", entries[0].UserID)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "u3", entries[1].UserID)
	assert.Equal(t, 2, entries[1].Rank)
}

func TestClosedStoreRejectsEverything(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Close())

	_, err := s.AirdropByID(ctx, "a1")
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	err = s.SaveUser(ctx, &models.User{ID: "u1"})
	assert.ErrorIs(t, err, storage.ErrNotInitialized)

	_, err = s.Analytics(ctx)
	assert.ErrorIs(t, err, storage.ErrNotInitialized)
}

func TestListingsReturnCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedAirdrop(t, s, "a1")

	got, err := s.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	got.Title = "Mutated"
	got.Tasks[0].Points = 9999

	fresh, err := s.AirdropByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Drop a1", fresh.Title)
	assert.Equal(t, 50, fresh.Tasks[0].Points)
}
