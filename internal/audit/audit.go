package audit

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/apperr"
	"stockroom/internal/database"
	"stockroom/internal/models"
)

// Action values written to the log.
const (
	ActionAdded   = "Added"
	ActionEdited  = "Edited"
	ActionDeleted = "Deleted"
)

// Broadcaster is notified after each successfully recorded entry.
type Broadcaster interface {
	BroadcastChange(resourceType, action string, id any)
}

// Logger appends to the action log. Entries are never updated or deleted.
type Logger struct {
	db     *database.DB
	log    *zap.Logger
	notify Broadcaster
}

func NewLogger(db *database.DB, log *zap.Logger, notify Broadcaster) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{db: db, log: log, notify: notify}
}

// Record appends one entry stamped with the database clock. It never fails
// the caller: by the time it runs the audited change is already committed,
// so a write error is reported as a warning and otherwise dropped.
func (l *Logger) Record(ctx context.Context, username, action, productName string) {
	var id int64
	err := l.db.Conn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO logs (username, action, product_name) VALUES (?, ?, ?)",
			username, action, productName)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		l.log.Warn("audit log write failed",
			zap.String("username", username),
			zap.String("action", action),
			zap.String("product", productName),
			zap.Error(err))
		return
	}

	l.log.Debug("audit log saved",
		zap.Int64("id", id),
		zap.String("username", username),
		zap.String("action", action),
		zap.String("product", productName))
	if l.notify != nil {
		l.notify.BroadcastChange("log", "create", id)
	}
}

// List returns all entries, newest first.
func (l *Logger) List(ctx context.Context) ([]models.ActionLog, error) {
	entries := []models.ActionLog{}
	err := l.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &entries,
			`SELECT id, COALESCE(timestamp, '') AS timestamp, username, action, product_name
			FROM logs ORDER BY timestamp DESC, id DESC`)
	})
	if err != nil {
		return nil, apperr.Storage("list logs", err)
	}
	return entries, nil
}
