package services

import (
	"errors"

	"relief-claims-api/apperrors"
	"relief-claims-api/repository"
)

// repoError turns a repository error into the caller-facing taxonomy.
func repoError(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(entity, id)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict("%s %s was changed by another request", entity, id)
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Storage(err, "failed to access "+entity)
}
