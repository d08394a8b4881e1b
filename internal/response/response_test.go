package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"stockroom/internal/apperr"
	"stockroom/internal/validation"
)

func TestFromErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", validation.Field("name", "is required"), 400},
		{"not found", fmt.Errorf("product 9: %w", apperr.ErrNotFound), 404},
		{"uniqueness", fmt.Errorf("add user: %w", apperr.ErrUniqueness), 409},
		{"storage", apperr.Storage("list", errors.New("disk I/O error")), 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			FromError(w, tt.err)
			if w.Code != tt.code {
				t.Errorf("code = %d, want %d", w.Code, tt.code)
			}
		})
	}
}

func TestStorageErrorDetailsAreHidden(t *testing.T) {
	w := httptest.NewRecorder()
	FromError(w, apperr.Storage("list", errors.New("/secret/path/database.db: disk I/O error")))
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != "internal error" {
		t.Errorf("error body = %q", body["error"])
	}
}

func TestJSONList(t *testing.T) {
	w := httptest.NewRecorder()
	JSONList(w, []string{"a", "b"})
	var body struct {
		Data []string `json:"data"`
		Meta struct {
			Total int `json:"total"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != 2 || body.Meta.Total != 2 {
		t.Errorf("body = %+v", body)
	}
}
