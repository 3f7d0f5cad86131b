package assessment

import (
	"errors"

	"credit-risk-console/internal/applications"
	apperrors "credit-risk-console/internal/common/errors"
	"credit-risk-console/internal/scoring"
)

// Classify maps domain errors onto the standard error shape used by the API
// and CLI. id names the application when the failure concerns one.
func Classify(err error, id string) *apperrors.StandardError {
	var (
		se  *scoring.ServiceError
		te  *scoring.TransportError
		ste *applications.StorageError
	)
	switch {
	case errors.As(err, &se):
		return apperrors.NewScoringServiceError(se.StatusCode, se.Message)
	case errors.Is(err, scoring.ErrMalformedResponse):
		return apperrors.NewInvalidPredictionError(err.Error())
	case errors.As(err, &te):
		return apperrors.NewScoringUnavailableError(te)
	case errors.Is(err, applications.ErrRecordNotFound):
		return apperrors.NewApplicationNotFoundError(id)
	case errors.As(err, &ste):
		if ste.Op == "save" {
			return apperrors.NewStorageWriteFailedError(ste)
		}
		return apperrors.NewStorageReadFailedError(ste)
	default:
		return apperrors.Normalize(err)
	}
}
