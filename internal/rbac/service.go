package rbac

import (
	"context"
	"errors"
	"strings"
)

// Service orchestrates registry mutations and listings.
type Service struct {
	repo Repository
}

// NewService constructs a Service backed by the provided repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreatePermission registers a new named permission.
func (s *Service) CreatePermission(ctx context.Context, name string) (*Permission, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("rbac: permission name required")
	}
	return s.repo.CreatePermission(ctx, name)
}

// CreateRole registers a new named role whose permission set is exactly
// permissionIDs. Duplicate ids collapse; the set replaces, it does not merge.
func (s *Service) CreateRole(ctx context.Context, name string, permissionIDs []int64) (*Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name, permissionIDs)
}

// AssignRoles unions roleIDs into the user's role set.
func (s *Service) AssignRoles(ctx context.Context, userID int64, roleIDs []int64) error {
	return s.repo.AssignRolesToUser(ctx, userID, roleIDs)
}

// AssignPermissions unions permissionIDs into the user's direct permission set.
func (s *Service) AssignPermissions(ctx context.Context, userID int64, permissionIDs []int64) error {
	return s.repo.AssignPermissionsToUser(ctx, userID, permissionIDs)
}

// ListRoles returns all roles in creation order.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// ListPermissions returns all permissions in creation order.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}
