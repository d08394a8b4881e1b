// Package inventory is the boundary the front ends call. It pairs each
// product write with its audit entry so callers never sequence the two.
// It performs no authorization: any caller may invoke any operation, so the
// front end must gate admin actions on the logged-in user's role.
package inventory

import (
	"context"

	"go.uber.org/zap"

	"stockroom/internal/audit"
	"stockroom/internal/models"
	"stockroom/internal/store"
)

// Notifier is told about committed product changes.
type Notifier interface {
	BroadcastChange(resourceType, action string, id any)
}

type Service struct {
	store  *store.Store
	audit  *audit.Logger
	notify Notifier
	log    *zap.Logger
}

func NewService(s *store.Store, a *audit.Logger, notify Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, audit: a, notify: notify, log: log}
}

func (s *Service) changed(action string, id int64) {
	if s.notify != nil {
		s.notify.BroadcastChange("product", action, id)
	}
}

// Products returns the filtered product list with low-stock flags set.
func (s *Service) Products(ctx context.Context, f models.ProductFilter) ([]models.ProductRow, error) {
	return s.store.ListProducts(ctx, f)
}

func (s *Service) Product(ctx context.Context, id int64) (models.Product, error) {
	return s.store.GetProduct(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *Service) AddCategory(ctx context.Context, name string) (int64, error) {
	return s.store.AddCategory(ctx, name)
}

// AddProduct inserts a product and records "Added" for actor.
func (s *Service) AddProduct(ctx context.Context, actor string, in models.ProductInput) (int64, error) {
	id, err := s.store.AddProduct(ctx, in)
	if err != nil {
		return 0, err
	}
	s.log.Info("product added", zap.Int64("id", id), zap.String("actor", actor))
	s.audit.Record(ctx, actor, audit.ActionAdded, in.Name)
	s.changed("create", id)
	return id, nil
}

// EditProduct updates a product and records "Edited" for actor. Editing an
// id that does not exist changes nothing and is still recorded, as the
// caller did attempt the edit.
func (s *Service) EditProduct(ctx context.Context, actor string, id int64, in models.ProductInput) error {
	if err := s.store.UpdateProduct(ctx, id, in); err != nil {
		return err
	}
	s.log.Info("product edited", zap.Int64("id", id), zap.String("actor", actor))
	s.audit.Record(ctx, actor, audit.ActionEdited, in.Name)
	s.changed("update", id)
	return nil
}

// DeleteProduct removes a product and records "Deleted" with the name it had.
func (s *Service) DeleteProduct(ctx context.Context, actor string, id int64) (string, error) {
	name, err := s.store.DeleteProduct(ctx, id)
	if err != nil {
		return "", err
	}
	s.log.Info("product deleted", zap.Int64("id", id), zap.String("name", name), zap.String("actor", actor))
	s.audit.Record(ctx, actor, audit.ActionDeleted, name)
	s.changed("delete", id)
	return name, nil
}

func (s *Service) Users(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) AddUser(ctx context.Context, username, password, role string) (int64, error) {
	return s.store.AddUser(ctx, username, password, role)
}

func (s *Service) UpdateUser(ctx context.Context, id int64, upd models.UserUpdate) error {
	return s.store.UpdateUser(ctx, id, upd)
}

func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.store.DeleteUser(ctx, id)
}

// Login verifies credentials; a nil user means they were rejected.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.store.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if u == nil {
		s.log.Info("login rejected", zap.String("username", username))
	}
	return u, nil
}

// Logs returns the audit trail, newest first.
func (s *Service) Logs(ctx context.Context) ([]models.ActionLog, error) {
	return s.audit.List(ctx)
}
