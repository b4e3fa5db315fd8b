package rules

import (
	"context"
	"errors"

	"github.com/sentinel-access/sentinel/internal/authz"
)

// Store defines the persistence operations the service needs.
type Store interface {
	ListRoles(ctx context.Context) ([]Role, error)
	ListElements(ctx context.Context) ([]BusinessElement, error)
	ListRules(ctx context.Context) ([]AccessRule, error)
	GetRule(ctx context.Context, id int64) (AccessRule, error)
	CreateRule(ctx context.Context, roleID, elementID int64, flags authz.RuleFlags) (AccessRule, error)
	UpdateRule(ctx context.Context, id int64, flags authz.RuleFlags) (AccessRule, error)
	DeleteRule(ctx context.Context, id int64) error
}

// Service orchestrates administrative operations on the matrix.
type Service struct {
	store Store
}

// NewService constructs a Service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.store.ListRoles(ctx)
}

// ListElements returns all business elements.
func (s *Service) ListElements(ctx context.Context) ([]BusinessElement, error) {
	return s.store.ListElements(ctx)
}

// ListRules returns all matrix rows.
func (s *Service) ListRules(ctx context.Context) ([]AccessRule, error) {
	return s.store.ListRules(ctx)
}

// GetRule fetches one matrix row.
func (s *Service) GetRule(ctx context.Context, id int64) (AccessRule, error) {
	return s.store.GetRule(ctx, id)
}

// CreateRule inserts a matrix row for a (role, element) pair.
func (s *Service) CreateRule(ctx context.Context, roleID, elementID int64, flags authz.RuleFlags) (AccessRule, error) {
	if roleID <= 0 || elementID <= 0 {
		return AccessRule{}, errors.New("rules: role and element ids required")
	}
	return s.store.CreateRule(ctx, roleID, elementID, flags)
}

// UpdateRule replaces the flags of a matrix row.
func (s *Service) UpdateRule(ctx context.Context, id int64, flags authz.RuleFlags) (AccessRule, error) {
	return s.store.UpdateRule(ctx, id, flags)
}

// DeleteRule removes a matrix row.
func (s *Service) DeleteRule(ctx context.Context, id int64) error {
	return s.store.DeleteRule(ctx, id)
}
