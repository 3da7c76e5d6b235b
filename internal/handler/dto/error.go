package dto

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mtlprog/teamtask/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error code and message.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// NewErrorResponse creates a new error response.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	}
}

// MapDomainError maps domain errors to HTTP status codes and an error body.
func MapDomainError(err error) (int, ErrorResponse) {
	message := err.Error()

	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		resp := NewErrorResponse("VALIDATION_ERROR", message)
		resp.Error.Fields = verr.Fields
		return http.StatusUnprocessableEntity, resp

	// Not found errors
	case errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound, NewErrorResponse("TASK_NOT_FOUND", message)
	case errors.Is(err, domain.ErrProjectNotFound):
		return http.StatusNotFound, NewErrorResponse("PROJECT_NOT_FOUND", message)
	case errors.Is(err, domain.ErrAttachmentNotFound):
		return http.StatusNotFound, NewErrorResponse("ATTACHMENT_NOT_FOUND", message)
	case errors.Is(err, domain.ErrNotificationNotFound):
		return http.StatusNotFound, NewErrorResponse("NOTIFICATION_NOT_FOUND", message)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, NewErrorResponse("NOT_FOUND", message)

	// Permission errors
	case errors.Is(err, domain.ErrNotProjectMember):
		return http.StatusForbidden, NewErrorResponse("NOT_PROJECT_MEMBER", message)
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, NewErrorResponse("INSUFFICIENT_ACCESS", message)

	// Validation and concurrency
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, NewErrorResponse("VALIDATION_ERROR", message)
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, NewErrorResponse("CONFLICT", message)

	// Blob storage failures keep their detail in the log only.
	case errors.Is(err, domain.ErrStorage):
		slog.Error("storage failure returned to client", "error", err)
		return http.StatusInternalServerError, NewErrorResponse("STORAGE_ERROR", "File storage is unavailable")

	default:
		slog.Error("unmapped domain error returned to client",
			"error", err,
			"error_type", fmt.Sprintf("%T", err),
		)
		return http.StatusInternalServerError, NewErrorResponse("INTERNAL_ERROR", "Internal server error")
	}
}
