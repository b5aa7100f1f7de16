package transport

import (
	"errors"
	"net/http"

	"h2o-shop/internal/media"
	"h2o-shop/internal/middleware"
	"h2o-shop/internal/repository"
	"h2o-shop/internal/service"

	"go.uber.org/zap"
)

var notFoundErrors = []error{
	repository.ErrProductNotFound,
	repository.ErrCategoryNotFound,
	repository.ErrVideoNotFound,
	repository.ErrUserNotFound,
}

var uploadErrors = []error{
	media.ErrTooManyFiles,
	media.ErrFileTooLarge,
	media.ErrUnsupportedType,
	media.ErrInvalidScope,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case service.IsValidation(err), isAny(err, uploadErrors):
		return http.StatusBadRequest
	case isAny(err, notFoundErrors):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError writes err with its mapped status. Unexpected
// errors are logged and answered with fallback so internals never leak.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, status, fallback)
		return
	}

	logger.Debug("Request rejected", zap.Int("status", status), zap.Error(err))
	middleware.RespondWithError(w, status, err.Error())
}

// decodeJSON decodes and validates a JSON body, answering 400 itself on
// failure. It reports whether the handler may continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, dest interface{}) bool {
	if err := middleware.DecodeAndValidate(r, dest); err != nil {
		logger.Debug("Request validation failed", zap.Error(err))
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
