package handlers

import (
	"errors"
	"net/http"
	"todoapi/internal/logger"
	"todoapi/internal/service"

	"go.uber.org/zap"
)

// handleServiceError writes the response for an error returned by the service.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	var businessErr *service.BusinessError
	if errors.As(err, &businessErr) {
		statusCode := mapBusinessErrorToHTTP(businessErr.Code)

		fields := []zap.Field{
			zap.String("error_code", businessErr.Code),
			zap.String("operation", operation),
			zap.Int("http_status", statusCode),
		}
		if statusCode >= http.StatusInternalServerError {
			logger.Error("HTTP: Business error", businessErr, fields...)
		} else {
			logger.Warn("HTTP: Business error", fields...)
		}

		responseWithError(w, statusCode, businessErr.Message)
		return
	}

	logger.Error("HTTP: Service error", err,
		zap.String("operation", operation),
		zap.String("client_ip", r.RemoteAddr))

	responseWithError(w, http.StatusInternalServerError, "internal server error")
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeStoreCorrupt:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
