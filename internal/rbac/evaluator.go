package rbac

import (
	"context"

	"github.com/keygate/keygate/internal/shared"
)

// Evaluator answers boolean access questions. Every check reads the registry
// fresh; nothing is cached between requests, so a link added or removed by a
// concurrent request is visible to the next check.
type Evaluator struct {
	repo Repository
}

// NewEvaluator constructs an Evaluator over the given registry.
func NewEvaluator(repo Repository) *Evaluator {
	return &Evaluator{repo: repo}
}

// HasRole reports whether roleID is in the user's direct role set. A role id
// that does not exist at all is an error, not a false.
func (e *Evaluator) HasRole(ctx context.Context, userID, roleID int64) (bool, error) {
	exists, err := e.repo.RoleExists(ctx, roleID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, shared.ErrUnknownRole
	}
	roleIDs, err := e.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	return containsID(roleIDs, roleID), nil
}

// HasPermission reports whether the user holds permissionID either directly
// or through any currently assigned role. The union is computed per call.
func (e *Evaluator) HasPermission(ctx context.Context, userID, permissionID int64) (bool, error) {
	exists, err := e.repo.PermissionExists(ctx, permissionID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, shared.ErrUnknownPermission
	}

	direct, err := e.repo.UserPermissionIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	if containsID(direct, permissionID) {
		return true, nil
	}

	roleIDs, err := e.repo.UserRoleIDs(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(roleIDs) == 0 {
		return false, nil
	}
	viaRoles, err := e.repo.RolePermissionIDs(ctx, roleIDs)
	if err != nil {
		return false, err
	}
	return containsID(viaRoles, permissionID), nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
