package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"murajaa-backend/internal/models"
	"murajaa-backend/internal/repository"
	"murajaa-backend/internal/session"
	"murajaa-backend/internal/srs"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// validateStruct runs the request DTO through the validator and converts
// failures into the per-field error map the envelope carries.
func validateStruct(req interface{}) map[string]string {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	} else {
		fields["request"] = "invalid"
	}
	return fields
}

// handleEngineError maps engine errors onto the response envelope.
// State-machine guard violations and version conflicts are client-visible
// conflicts; anything else from the store is a retryable 500.
func handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
	case errors.Is(err, srs.ErrInvalidQuality):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Quality must be 0-3", r))
	case errors.Is(err, session.ErrSessionComplete),
		errors.Is(err, session.ErrNotRevealed),
		errors.Is(err, session.ErrAlreadyGraded),
		errors.Is(err, session.ErrNotGraded):
		writeJSON(w, http.StatusConflict, errorResp("SESSION_STATE", err.Error(), r))
	case errors.Is(err, repository.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Review was updated by another session", r))
	case errors.Is(err, repository.ErrReviewNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Review not found", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}
