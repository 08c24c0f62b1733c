package service

import (
	"errors"

	apperrors "airdrophub-backend/internal/common/errors"
	"airdrophub-backend/internal/storage"
)

// mapStorageError lifts an engine error into the application taxonomy.
func mapStorageError(operation string, err error) *apperrors.AppError {
	switch {
	case errors.Is(err, storage.ErrNotInitialized):
		return apperrors.Wrap(err, apperrors.ErrCodeStorageNotReady, "Storage is not ready")
	case errors.Is(err, storage.ErrConstraint):
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "Constraint violated").
			WithDetail("operation", operation)
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "Not found").
			WithDetail("operation", operation)
	default:
		return apperrors.NewStorageError(operation, err)
	}
}
