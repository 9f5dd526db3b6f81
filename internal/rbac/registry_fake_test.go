package rbac_test

import (
	"context"
	"sort"

	"github.com/keygate/keygate/internal/rbac"
	"github.com/keygate/keygate/internal/shared"
)

// fakeRegistry models the registry tables in memory with the same contract
// as the PostgreSQL repository: unique names, foreign-key style reference
// checks and idempotent link inserts.
type fakeRegistry struct {
	users     map[int64]struct{}
	perms     map[int64]rbac.Permission
	roles     map[int64]rbac.Role
	rolePerms map[int64]map[int64]struct{}
	userRoles map[int64]map[int64]struct{}
	userPerms map[int64]map[int64]struct{}
	nextID    int64
}

func newFakeRegistry(userIDs ...int64) *fakeRegistry {
	reg := &fakeRegistry{
		users:     make(map[int64]struct{}),
		perms:     make(map[int64]rbac.Permission),
		roles:     make(map[int64]rbac.Role),
		rolePerms: make(map[int64]map[int64]struct{}),
		userRoles: make(map[int64]map[int64]struct{}),
		userPerms: make(map[int64]map[int64]struct{}),
		nextID:    1,
	}
	for _, id := range userIDs {
		reg.users[id] = struct{}{}
	}
	return reg
}

func (f *fakeRegistry) CreatePermission(ctx context.Context, name string) (*rbac.Permission, error) {
	for _, perm := range f.perms {
		if perm.Name == name {
			return nil, shared.ErrDuplicateName
		}
	}
	perm := rbac.Permission{ID: f.nextID, Name: name}
	f.nextID++
	f.perms[perm.ID] = perm
	return &perm, nil
}

func (f *fakeRegistry) CreateRole(ctx context.Context, name string, permissionIDs []int64) (*rbac.Role, error) {
	for _, role := range f.roles {
		if role.Name == name {
			return nil, shared.ErrDuplicateName
		}
	}
	for _, id := range permissionIDs {
		if _, ok := f.perms[id]; !ok {
			return nil, shared.ErrUnknownPermission
		}
	}
	role := rbac.Role{ID: f.nextID, Name: name}
	f.nextID++
	links := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		links[id] = struct{}{}
	}
	f.roles[role.ID] = role
	f.rolePerms[role.ID] = links
	for _, id := range sortedIDs(links) {
		role.Permissions = append(role.Permissions, f.perms[id])
	}
	return &role, nil
}

func (f *fakeRegistry) AssignRolesToUser(ctx context.Context, userID int64, roleIDs []int64) error {
	if _, ok := f.users[userID]; !ok {
		return shared.ErrUnknownUser
	}
	for _, id := range roleIDs {
		if _, ok := f.roles[id]; !ok {
			return shared.ErrUnknownRole
		}
	}
	if f.userRoles[userID] == nil {
		f.userRoles[userID] = make(map[int64]struct{})
	}
	for _, id := range roleIDs {
		f.userRoles[userID][id] = struct{}{}
	}
	return nil
}

func (f *fakeRegistry) AssignPermissionsToUser(ctx context.Context, userID int64, permissionIDs []int64) error {
	if _, ok := f.users[userID]; !ok {
		return shared.ErrUnknownUser
	}
	for _, id := range permissionIDs {
		if _, ok := f.perms[id]; !ok {
			return shared.ErrUnknownPermission
		}
	}
	if f.userPerms[userID] == nil {
		f.userPerms[userID] = make(map[int64]struct{})
	}
	for _, id := range permissionIDs {
		f.userPerms[userID][id] = struct{}{}
	}
	return nil
}

func (f *fakeRegistry) ListRoles(ctx context.Context) ([]rbac.Role, error) {
	var roles []rbac.Role
	for _, id := range sortedIDs(asSet(f.roles)) {
		roles = append(roles, f.roles[id])
	}
	return roles, nil
}

func (f *fakeRegistry) ListPermissions(ctx context.Context) ([]rbac.Permission, error) {
	var perms []rbac.Permission
	for _, id := range sortedIDs(asSetP(f.perms)) {
		perms = append(perms, f.perms[id])
	}
	return perms, nil
}

func (f *fakeRegistry) RoleExists(ctx context.Context, id int64) (bool, error) {
	_, ok := f.roles[id]
	return ok, nil
}

func (f *fakeRegistry) PermissionExists(ctx context.Context, id int64) (bool, error) {
	_, ok := f.perms[id]
	return ok, nil
}

func (f *fakeRegistry) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	return sortedIDs(f.userRoles[userID]), nil
}

func (f *fakeRegistry) UserPermissionIDs(ctx context.Context, userID int64) ([]int64, error) {
	return sortedIDs(f.userPerms[userID]), nil
}

func (f *fakeRegistry) RolePermissionIDs(ctx context.Context, roleIDs []int64) ([]int64, error) {
	union := make(map[int64]struct{})
	for _, roleID := range roleIDs {
		for permID := range f.rolePerms[roleID] {
			union[permID] = struct{}{}
		}
	}
	return sortedIDs(union), nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	ids := make([]int64, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func asSet(m map[int64]rbac.Role) map[int64]struct{} {
	set := make(map[int64]struct{}, len(m))
	for id := range m {
		set[id] = struct{}{}
	}
	return set
}

func asSetP(m map[int64]rbac.Permission) map[int64]struct{} {
	set := make(map[int64]struct{}, len(m))
	for id := range m {
		set[id] = struct{}{}
	}
	return set
}

var _ rbac.Repository = (*fakeRegistry)(nil)
