package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/api/response"
	"github.com/ndewijer/Equity-Compensation-Tax-Backend/internal/validation"
)

// maxBodyBytes bounds request bodies; a full year of sales fits easily.
const maxBodyBytes = 10 << 20

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	response.RespondJSON(w, status, data)
}

// parseJSON decodes the request body into a T. Unknown fields are rejected
// so typos in optional fields do not go unnoticed.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is required")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is required")
		}
		return v, fmt.Errorf("invalid JSON: %w", err)
	}
	return v, nil
}

// respondValidationError sends 400 with the field map of a validation.Error,
// or the message of any other error.
func respondValidationError(w http.ResponseWriter, err error) {
	var vErr *validation.Error
	if errors.As(err, &vErr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", vErr.Fields)
		return
	}
	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
}
