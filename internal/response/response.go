package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockroom/internal/apperr"
	"stockroom/internal/backup"
	"stockroom/internal/models"
	"stockroom/internal/validation"
)

// JSON writes a successful API response with the given data.
func JSON(w http.ResponseWriter, data interface{}) {
	JSONStatus(w, http.StatusOK, data)
}

// JSONStatus writes data in the standard envelope with the given status code.
func JSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// JSONList writes a list response with its length in the metadata.
func JSONList[T any](w http.ResponseWriter, items []T) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.APIResponse{
		Data: items,
		Meta: &models.Meta{Total: len(items)},
	})
}

// Err writes a JSON error response with the given message and HTTP status code.
func Err(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// FromError writes err with the status code matching its kind: validation
// 400, not found 404, uniqueness 409, anything else 500.
func FromError(w http.ResponseWriter, err error) {
	var ve *validation.ValidationErrors
	switch {
	case errors.As(err, &ve):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"error": ve.Error(), "fields": ve.Errors})
	case errors.Is(err, backup.ErrInvalidBackup):
		Err(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		Err(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperr.ErrUniqueness):
		Err(w, err.Error(), http.StatusConflict)
	default:
		Err(w, "internal error", http.StatusInternalServerError)
	}
}

// DecodeBody decodes a JSON request body into the given value.
func DecodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
