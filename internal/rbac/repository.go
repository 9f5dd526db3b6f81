package rbac

import "context"

// Repository defines persistence operations for the role/permission registry
// and its link tables. Implementations must provide atomic insert-if-absent
// for the unique names and transactional multi-row writes; the evaluator's
// union logic sits above this interface.
type Repository interface {
	CreatePermission(ctx context.Context, name string) (*Permission, error)
	CreateRole(ctx context.Context, name string, permissionIDs []int64) (*Role, error)
	AssignRolesToUser(ctx context.Context, userID int64, roleIDs []int64) error
	AssignPermissionsToUser(ctx context.Context, userID int64, permissionIDs []int64) error
	ListRoles(ctx context.Context) ([]Role, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	RoleExists(ctx context.Context, id int64) (bool, error)
	PermissionExists(ctx context.Context, id int64) (bool, error)
	UserRoleIDs(ctx context.Context, userID int64) ([]int64, error)
	UserPermissionIDs(ctx context.Context, userID int64) ([]int64, error)
	RolePermissionIDs(ctx context.Context, roleIDs []int64) ([]int64, error)
}
