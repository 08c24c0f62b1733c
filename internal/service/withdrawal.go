package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

type WithdrawalService interface {
	Request(ctx context.Context, userID string, amount int) (*models.Withdrawal, error)
	List(ctx context.Context, f models.WithdrawalFilter) ([]*models.Withdrawal, error)
	Get(ctx context.Context, id string) (*models.Withdrawal, error)
	Complete(ctx context.Context, actorID, id, txHash string) (*models.Withdrawal, error)
	Fail(ctx context.Context, actorID, id string) (*models.Withdrawal, error)
	Delete(ctx context.Context, actorID, id string) error
}

type withdrawalService struct {
	store storage.Store
	audit AuditService
}

func NewWithdrawalService(store storage.Store, audit AuditService) WithdrawalService {
	return &withdrawalService{store: store, audit: audit}
}

// Request creates a pending withdrawal after checking maintenance mode, the
// minimum amount and the user's daily quota. The point deduction and the
// withdrawal row land atomically in the engine.
func (s *withdrawalService) Request(ctx context.Context, userID string, amount int) (*models.Withdrawal, error) {
	if maintenance, err := s.settingBool(ctx, models.SettingMaintenanceMode); err != nil {
		return nil, err
	} else if maintenance {
		return nil, apperrors.New(apperrors.ErrCodeMaintenance, "Withdrawals are paused for maintenance")
	}

	minAmount, err := s.settingInt(ctx, models.SettingMinWithdrawal)
	if err != nil {
		return nil, err
	}
	if amount < minAmount {
		return nil, apperrors.New(apperrors.ErrCodeBelowMinimum, "Amount below withdrawal minimum").
			WithDetail("amount", amount).
			WithDetail("minimum", minAmount)
	}

	maxDaily, err := s.settingInt(ctx, models.SettingMaxDailyWithdrawals)
	if err != nil {
		return nil, err
	}
	if maxDaily > 0 {
		dayStart := time.Now().UTC().Truncate(24 * time.Hour)
		today, err := s.store.Withdrawals(ctx, models.WithdrawalFilter{
			UserID: userID,
			Since:  dayStart,
		})
		if err != nil {
			return nil, mapStorageError("request withdrawal", err)
		}
		if len(today) >= maxDaily {
			return nil, apperrors.New(apperrors.ErrCodeWithdrawalLimit, "Daily withdrawal limit reached").
				WithDetail("limit", maxDaily)
		}
	}

	rate, err := s.settingInt(ctx, models.SettingPointsToUSDCRate)
	if err != nil {
		return nil, err
	}

	w := &models.Withdrawal{
		ID:         uuid.New().String(),
		UserID:     userID,
		Amount:     amount,
		USDCAmount: models.USDCValue(amount, int64(rate)),
		Status:     models.WithdrawalStatusPending,
	}
	if err := s.store.CreateWithdrawal(ctx, w); err != nil {
		if errors.Is(err, storage.ErrConstraint) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInsufficientFunds, "Insufficient points").
				WithDetail("amount", amount)
		}
		return nil, mapStorageError("request withdrawal", err)
	}
	s.audit.Record(ctx, userID, models.AuditActionWithdraw, models.AuditTargetWithdrawal, w.ID,
		map[string]any{"amount": amount, "usdc_amount": w.USDCAmount.String()})
	return w, nil
}

func (s *withdrawalService) List(ctx context.Context, f models.WithdrawalFilter) ([]*models.Withdrawal, error) {
	withdrawals, err := s.store.Withdrawals(ctx, f)
	if err != nil {
		return nil, mapStorageError("list withdrawals", err)
	}
	return withdrawals, nil
}

func (s *withdrawalService) Get(ctx context.Context, id string) (*models.Withdrawal, error) {
	w, err := s.store.WithdrawalByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("withdrawal", id)
	}
	if err != nil {
		return nil, mapStorageError("get withdrawal", err)
	}
	return w, nil
}

func (s *withdrawalService) Complete(ctx context.Context, actorID, id, txHash string) (*models.Withdrawal, error) {
	w, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, apperrors.NewConflictError("withdrawal", "not pending").
			WithDetail("status", string(w.Status))
	}
	patch := models.Patch{"status": string(models.WithdrawalStatusCompleted), "tx_hash": txHash}
	if _, err := s.store.UpdateWithdrawal(ctx, id, patch); err != nil {
		return nil, mapStorageError("complete withdrawal", err)
	}
	s.audit.Record(ctx, actorID, models.AuditActionUpdate, models.AuditTargetWithdrawal, id, patch)
	return s.Get(ctx, id)
}

// Fail flips the withdrawal to failed and refunds the user in one engine
// transaction.
func (s *withdrawalService) Fail(ctx context.Context, actorID, id string) (*models.Withdrawal, error) {
	failed, err := s.store.FailWithdrawal(ctx, id)
	if err != nil {
		return nil, mapStorageError("fail withdrawal", err)
	}
	if !failed {
		return nil, apperrors.NewConflictError("withdrawal", "not refundable").
			WithDetail("id", id)
	}
	s.audit.Record(ctx, actorID, models.AuditActionUpdate, models.AuditTargetWithdrawal, id,
		map[string]any{"status": string(models.WithdrawalStatusFailed)})
	return s.Get(ctx, id)
}

func (s *withdrawalService) Delete(ctx context.Context, actorID, id string) error {
	deleted, err := s.store.DeleteWithdrawal(ctx, id)
	if err != nil {
		return mapStorageError("delete withdrawal", err)
	}
	if !deleted {
		return apperrors.NewNotFoundError("withdrawal", id)
	}
	s.audit.Record(ctx, actorID, models.AuditActionDelete, models.AuditTargetWithdrawal, id, nil)
	return nil
}

func (s *withdrawalService) settingInt(ctx context.Context, key string) (int, error) {
	raw, err := s.store.Setting(ctx, key)
	if err != nil {
		return 0, mapStorageError("setting "+key, err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "Setting %s is not a number", key)
	}
	return n, nil
}

func (s *withdrawalService) settingBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.store.Setting(ctx, key)
	if err != nil {
		return false, mapStorageError("setting "+key, err)
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.Wrapf(err, apperrors.ErrCodeInternal, "Setting %s is not a boolean", key)
	}
	return v, nil
}
