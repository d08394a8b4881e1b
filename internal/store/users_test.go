package store_test

import (
	"errors"
	"strings"
	"testing"

	"stockroom/internal/apperr"
	"stockroom/internal/models"
	"stockroom/internal/store"
	"stockroom/internal/testutil"
	"stockroom/internal/validation"

	"github.com/jmoiron/sqlx"
)

func TestListUsers(t *testing.T) {
	f := newFixture(t)
	users, err := f.store.ListUsers(f.ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 || users[0].Username != "admin" || !users[0].IsAdmin() || users[1].Role != models.RoleUser {
		t.Errorf("users = %+v", users)
	}
}

func TestAddUserDuplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.AddUser(f.ctx, "admin", "other", models.RoleUser)
	if !errors.Is(err, apperr.ErrUniqueness) {
		t.Fatalf("expected ErrUniqueness, got %v", err)
	}

	u, err := f.store.Authenticate(f.ctx, "admin", "admin123")
	if err != nil || u == nil {
		t.Fatalf("original admin credentials no longer work: %v", err)
	}
	if !u.IsAdmin() {
		t.Errorf("existing admin role changed to %q", u.Role)
	}
}

func TestAddUserValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name, username, password, role string
	}{
		{"empty username", "", "pw", models.RoleUser},
		{"empty password", "bob", "", models.RoleUser},
		{"bad role", "bob", "pw", "root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.store.AddUser(f.ctx, tt.username, tt.password, tt.role); !validation.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	id, err := f.store.AddUser(f.ctx, "bob", "pw", "")
	if err != nil {
		t.Fatalf("AddUser default role: %v", err)
	}
	u, _ := f.store.Authenticate(f.ctx, "bob", "pw")
	if u == nil || u.ID != id || u.Role != models.RoleUser {
		t.Errorf("bob = %+v, want role user", u)
	}
}

func TestUpdateUserPartial(t *testing.T) {
	f := newFixture(t)

	if err := f.store.UpdateUser(f.ctx, 2, models.UserUpdate{Role: ptr(models.RoleAdmin)}); err != nil {
		t.Fatalf("UpdateUser role: %v", err)
	}
	u, _ := f.store.Authenticate(f.ctx, "user1", "user123")
	if u == nil || u.Role != models.RoleAdmin {
		t.Fatalf("role update lost or password changed: %+v", u)
	}

	if err := f.store.UpdateUser(f.ctx, 2, models.UserUpdate{Password: ptr("s3cret")}); err != nil {
		t.Fatalf("UpdateUser password: %v", err)
	}
	if u, _ := f.store.Authenticate(f.ctx, "user1", "user123"); u != nil {
		t.Error("old password still accepted")
	}
	u, _ = f.store.Authenticate(f.ctx, "user1", "s3cret")
	if u == nil || u.Role != models.RoleAdmin {
		t.Errorf("password update changed role: %+v", u)
	}

	if err := f.store.UpdateUser(f.ctx, 2, models.UserUpdate{}); err != nil {
		t.Errorf("empty update: %v", err)
	}
	if err := f.store.UpdateUser(f.ctx, 2, models.UserUpdate{Role: ptr("owner")}); !validation.IsValidation(err) {
		t.Errorf("bad role: expected validation error, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	f := newFixture(t)
	if err := f.store.DeleteUser(f.ctx, 2); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	users, _ := f.store.ListUsers(f.ctx)
	if len(users) != 1 || users[0].Username != "admin" {
		t.Errorf("users after delete = %+v", users)
	}
	if err := f.store.DeleteUser(f.ctx, 2); err != nil {
		t.Errorf("deleting absent user: %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)

	u, err := f.store.Authenticate(f.ctx, "admin", "admin123")
	if err != nil || u == nil {
		t.Fatalf("Authenticate(admin): %v, %v", u, err)
	}
	if u.Username != "admin" || u.Role != models.RoleAdmin {
		t.Errorf("user = %+v", u)
	}

	for _, c := range []struct{ user, pass string }{{"admin", "wrong"}, {"nobody", "admin123"}, {"ADMIN", "admin123"}} {
		u, err := f.store.Authenticate(f.ctx, c.user, c.pass)
		if err != nil || u != nil {
			t.Errorf("Authenticate(%s, %s) = %v, %v; want nil, nil", c.user, c.pass, u, err)
		}
	}
}

func TestAuthenticateUpgradesLegacyPlaintext(t *testing.T) {
	db := testutil.OpenDB(t)
	s := store.New(db)
	ctx := t.Context()

	err := db.Conn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "INSERT INTO users (username, password, role) VALUES ('old', 'plain', 'user')")
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	u, err := s.Authenticate(ctx, "old", "plain")
	if err != nil || u == nil {
		t.Fatalf("legacy login failed: %v, %v", u, err)
	}

	var stored string
	_ = db.Conn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &stored, "SELECT password FROM users WHERE username = 'old'")
	})
	if stored == "plain" {
		t.Error("legacy plaintext not replaced by a hash")
	}
	if u, _ := s.Authenticate(ctx, "old", "plain"); u == nil {
		t.Error("login fails after upgrade")
	}
}

func TestPasswordLongerThanBcryptLimit(t *testing.T) {
	f := newFixture(t)
	long := strings.Repeat("x", 80)

	_, err := f.store.AddUser(f.ctx, "longpw", long, "user")
	if !validation.IsValidation(err) {
		t.Fatalf("AddUser: expected validation error, got %v", err)
	}
	if _, err := f.store.AddUser(f.ctx, "maxpw", strings.Repeat("x", 72), "user"); err != nil {
		t.Fatalf("AddUser with 72 byte password: %v", err)
	}

	err = f.store.UpdateUser(f.ctx, 2, models.UserUpdate{Password: &long})
	if !validation.IsValidation(err) {
		t.Fatalf("UpdateUser: expected validation error, got %v", err)
	}
}

func TestLegacyLoginSurvivesFailedRehash(t *testing.T) {
	db := testutil.OpenDB(t)
	log, logs := testutil.ObservedLogger()
	s := store.New(db, store.WithLogger(log))
	ctx := t.Context()

	long := strings.Repeat("p", 80)
	err := db.Conn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, "INSERT INTO users (username, password, role) VALUES ('old', ?, 'user')", long)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	u, err := s.Authenticate(ctx, "old", long)
	if err != nil || u == nil {
		t.Fatalf("legacy login failed: %v, %v", u, err)
	}
	if n := logs.FilterMessage("legacy password not rehashed").Len(); n != 1 {
		t.Errorf("expected 1 rehash warning, got %d", n)
	}
	if u, _ := s.Authenticate(ctx, "old", long); u == nil {
		t.Error("second legacy login failed")
	}
}
