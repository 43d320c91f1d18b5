package handler

import (
	"errors"
	"net/http"

	"github.com/hoblink/hoblink-backend/internal/domain/types"
)

func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}

	if err := writeJSON(w, status, env, nil); err != nil {
		w.WriteHeader(500)
	}
}

// failedValidationResponse returns 422 with the per-field error map.
func failedValidationResponse(w http.ResponseWriter, errors map[string]string) {
	errorResponse(w, http.StatusUnprocessableEntity, errors)
}

func badRequestResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusBadRequest, message)
}

func internalErrorResponse(w http.ResponseWriter, message any) {
	errorResponse(w, http.StatusInternalServerError, message)
}

// serviceErrorResponse maps a service error to a status code. Validation
// errors keep their field map; everything else sends the error text.
func serviceErrorResponse(w http.ResponseWriter, err error) {
	var vErr *types.ValidationError
	if errors.As(err, &vErr) {
		failedValidationResponse(w, vErr.Fields)
		return
	}
	errorResponse(w, GetCode(err), err.Error())
}
