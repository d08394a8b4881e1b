package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"stockroom/internal/backup"
	"stockroom/internal/inventory"
	"stockroom/internal/models"
	"stockroom/internal/websocket"
)

// ContextKey is the type used for request context keys.
type ContextKey string

const (
	CtxUser      ContextKey = "user"
	CtxRequestID ContextKey = "requestID"
)

// App holds shared dependencies for the HTTP surface.
type App struct {
	Inventory *inventory.Service
	Backups   *backup.Service
	BackupDir string
	Hub       *websocket.Hub
	Log       *zap.Logger
}

// CurrentUser returns the authenticated user stored by RequireAuth.
func CurrentUser(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(CtxUser).(models.User)
	return u, ok
}

// Handler builds the routed, wrapped handler.
func (a *App) Handler() http.Handler {
	if a.Log == nil {
		a.Log = zap.NewNop()
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/me", a.handleMe)

	api.HandleFunc("GET /api/products", a.handleListProducts)
	api.HandleFunc("POST /api/products", a.handleAddProduct)
	api.HandleFunc("GET /api/products/export", a.handleExportProducts)
	api.HandleFunc("GET /api/products/{id}", a.handleGetProduct)
	api.HandleFunc("PUT /api/products/{id}", a.handleEditProduct)
	api.HandleFunc("DELETE /api/products/{id}", a.handleDeleteProduct)

	api.HandleFunc("GET /api/categories", a.handleListCategories)
	api.HandleFunc("POST /api/categories", a.handleAddCategory)

	api.HandleFunc("GET /api/logs", a.handleListLogs)

	api.Handle("GET /api/users", RequireAdmin(http.HandlerFunc(a.handleListUsers)))
	api.Handle("POST /api/users", RequireAdmin(http.HandlerFunc(a.handleAddUser)))
	api.Handle("PUT /api/users/{id}", RequireAdmin(http.HandlerFunc(a.handleUpdateUser)))
	api.Handle("DELETE /api/users/{id}", RequireAdmin(http.HandlerFunc(a.handleDeleteUser)))

	api.Handle("POST /api/backup", RequireAdmin(http.HandlerFunc(a.handleBackup)))
	api.Handle("GET /api/backups", RequireAdmin(http.HandlerFunc(a.handleListBackups)))
	api.Handle("POST /api/restore", RequireAdmin(http.HandlerFunc(a.handleRestore)))

	if a.Hub != nil {
		api.Handle("GET /ws", a.Hub)
	}

	var h http.Handler = api
	h = RequireAuth(a.Inventory, a.Log)(h)
	h = SecurityHeaders(h)
	h = Recover(a.Log)(h)
	h = RequestLogger(a.Log)(h)
	return h
}
