package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"stockroom/internal/apperr"
	"stockroom/internal/auth"
	"stockroom/internal/models"
	"stockroom/internal/validation"
)

// ListUsers returns all accounts without their credentials.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, &users,
			"SELECT id, username, COALESCE(role, 'user') AS role FROM users ORDER BY id")
	})
	if err != nil {
		return nil, apperr.Storage("list users", err)
	}
	return users, nil
}

// AddUser creates an account. An existing username yields apperr.ErrUniqueness
// and leaves the existing row untouched. An empty role means models.RoleUser.
func (s *Store) AddUser(ctx context.Context, username, password, role string) (int64, error) {
	username = strings.TrimSpace(username)
	if role == "" {
		role = models.RoleUser
	}

	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "username", username)
	validation.ValidateMaxLength(ve, "username", username, validation.MaxStringLength)
	if password == "" {
		ve.Add("password", "is required")
	}
	validation.ValidateMaxLength(ve, "password", password, validation.MaxPasswordLength)
	validation.ValidateEnum(ve, "role", role, validation.ValidRoles)
	if err := ve.Err(); err != nil {
		return 0, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx,
			"INSERT INTO users (username, password, role) VALUES (?, ?, ?)", username, hash, role)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, classify("add user", err)
	}
	return id, nil
}

// UpdateUser changes only the fields set in upd. With neither set it does nothing.
func (s *Store) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) error {
	if upd.Empty() {
		return nil
	}

	ve := &validation.ValidationErrors{}
	if upd.Password != nil {
		if *upd.Password == "" {
			ve.Add("password", "must not be empty")
		}
		validation.ValidateMaxLength(ve, "password", *upd.Password, validation.MaxPasswordLength)
	}
	if upd.Role != nil {
		if *upd.Role == "" {
			ve.Add("role", "must not be empty")
		}
		validation.ValidateEnum(ve, "role", *upd.Role, validation.ValidRoles)
	}
	if err := ve.Err(); err != nil {
		return err
	}

	var sets []string
	var args []interface{}
	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return err
		}
		sets = append(sets, "password = ?")
		args = append(args, hash)
	}
	if upd.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *upd.Role)
	}
	args = append(args, id)

	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		return err
	})
	return classify("update user", err)
}

// DeleteUser removes account id. Deleting an absent id is not an error.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
		return err
	})
	return classify("delete user", err)
}

type credentialRow struct {
	models.User
	Password string `db:"password"`
}

// Authenticate verifies a username/password pair. It returns nil, nil when
// the user does not exist or the password is wrong; an error means the check
// itself could not run. A legacy plaintext credential that verifies is
// rewritten as a hash.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var row credentialRow
	err := s.db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &row,
			"SELECT id, username, COALESCE(role, 'user') AS role, password FROM users WHERE username = ?", username)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage("authenticate", err)
	}

	ok, needsRehash := auth.VerifyPassword(row.Password, password)
	if !ok {
		return nil, nil
	}
	// the credential verified, so a failed upgrade must not fail the login
	if needsRehash {
		if err := s.UpdateUser(ctx, row.ID, models.UserUpdate{Password: &password}); err != nil {
			s.log.Warn("legacy password not rehashed",
				zap.Int64("user_id", row.ID),
				zap.String("username", row.Username),
				zap.Error(err))
		}
	}
	user := row.User
	return &user, nil
}
