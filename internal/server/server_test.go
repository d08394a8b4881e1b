package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"stockroom/internal/audit"
	"stockroom/internal/backup"
	"stockroom/internal/inventory"
	"stockroom/internal/store"
	"stockroom/internal/testutil"
	"stockroom/internal/websocket"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	db := testutil.SeededDB(t)
	log := zap.NewNop()
	hub := websocket.NewHub(log)
	a := audit.NewLogger(db, log, nil)
	return &App{
		Inventory: inventory.NewService(store.New(db, store.WithLogger(log)), a, hub, log),
		Backups:   backup.NewService(db, log),
		BackupDir: filepath.Join(t.TempDir(), "backups"),
		Hub:       hub,
		Log:       log,
	}
}

// do sends a request as username/password ("" skips auth) and returns the recorder.
func do(t *testing.T, h http.Handler, method, path, body, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if username != "" {
		req.SetBasicAuth(username, password)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func asAdmin(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, method, path, body, "admin", "admin123")
}

func asUser(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, h, method, path, body, "user1", "user123")
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Meta *struct {
		Total int `json:"total"`
	} `json:"meta"`
	Error string `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(w.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}
