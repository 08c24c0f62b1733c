package service

import (
	"context"
	"errors"
	"strconv"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/models"
	"airdrophub-backend/internal/storage"
)

type SettingService interface {
	All(ctx context.Context) ([]models.Setting, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, actorID, key, value string) error
}

type settingService struct {
	store storage.Store
	audit AuditService
}

func NewSettingService(store storage.Store, audit AuditService) SettingService {
	return &settingService{store: store, audit: audit}
}

func (s *settingService) All(ctx context.Context) ([]models.Setting, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return nil, mapStorageError("list settings", err)
	}
	return settings, nil
}

func (s *settingService) Get(ctx context.Context, key string) (string, error) {
	value, err := s.store.Setting(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return "", apperrors.NewNotFoundError("setting", key)
	}
	if err != nil {
		return "", mapStorageError("get setting", err)
	}
	return value, nil
}

func (s *settingService) Set(ctx context.Context, actorID, key, value string) error {
	if err := validateSetting(key, value); err != nil {
		return err
	}
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return mapStorageError("set setting", err)
	}
	s.audit.Record(ctx, actorID, models.AuditActionSetSetting, models.AuditTargetSetting, key,
		map[string]any{"value": value})
	return nil
}

// validateSetting type-checks values of the well-known keys; unknown keys
// pass through untouched.
func validateSetting(key, value string) *apperrors.AppError {
	switch key {
	case models.SettingPointsToUSDCRate, models.SettingMinWithdrawal,
		models.SettingPlatformFee, models.SettingMaxDailyWithdrawals:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return apperrors.NewValidationError(key, "must be a non-negative integer")
		}
	case models.SettingMaintenanceMode:
		if _, err := strconv.ParseBool(value); err != nil {
			return apperrors.NewValidationError(key, "must be a boolean")
		}
	}
	return nil
}
