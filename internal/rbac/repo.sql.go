package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/keygate/keygate/internal/platform/db"
	"github.com/keygate/keygate/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PGRepository implements Repository using PostgreSQL. Name uniqueness is
// enforced by unique indexes, so concurrent creates with the same name are
// serialized by the database rather than a read-then-write.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreatePermission inserts a new permission.
func (r *PGRepository) CreatePermission(ctx context.Context, name string) (*Permission, error) {
	var perm Permission
	err := r.pool.QueryRow(ctx,
		`INSERT INTO permissions (name) VALUES ($1) RETURNING id, name, created_at`,
		name).Scan(&perm.ID, &perm.Name, &perm.CreatedAt)
	if err != nil {
		if isPGError(err, pgUniqueViolation) {
			return nil, shared.ErrDuplicateName
		}
		return nil, err
	}
	return &perm, nil
}

// CreateRole inserts a role together with its permission links as one atomic
// unit. The given set becomes the role's entire permission set.
func (r *PGRepository) CreateRole(ctx context.Context, name string, permissionIDs []int64) (*Role, error) {
	var role Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name) VALUES ($1) RETURNING id, name, created_at`,
			name).Scan(&role.ID, &role.Name, &role.CreatedAt)
		if err != nil {
			if isPGError(err, pgUniqueViolation) {
				return shared.ErrDuplicateName
			}
			return err
		}

		if len(permissionIDs) > 0 {
			_, err = tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_id)
				 SELECT $1, unnest($2::bigint[])
				 ON CONFLICT DO NOTHING`,
				role.ID, permissionIDs)
			if err != nil {
				if isPGError(err, pgForeignKeyViolation) {
					return shared.ErrUnknownPermission
				}
				return err
			}
		}

		rows, err := tx.Query(ctx,
			`SELECT p.id, p.name, p.created_at
			   FROM permissions p
			   JOIN role_permissions rp ON rp.permission_id = p.id
			  WHERE rp.role_id = $1
			  ORDER BY p.id`,
			role.ID)
		if err != nil {
			return err
		}
		role.Permissions, err = scanPermissions(rows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// AssignRolesToUser unions roleIDs into the user's role set. Re-assigning an
// already-held role is a no-op thanks to ON CONFLICT DO NOTHING, and the
// whole batch lands in one transaction.
func (r *PGRepository) AssignRolesToUser(ctx context.Context, userID int64, roleIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkUserExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id)
			 SELECT $1, unnest($2::bigint[])
			 ON CONFLICT DO NOTHING`,
			userID, roleIDs)
		if isPGError(err, pgForeignKeyViolation) {
			return shared.ErrUnknownRole
		}
		return err
	})
}

// AssignPermissionsToUser unions permissionIDs into the user's direct
// permission set with the same contract as AssignRolesToUser.
func (r *PGRepository) AssignPermissionsToUser(ctx context.Context, userID int64, permissionIDs []int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := checkUserExists(ctx, tx, userID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO user_permissions (user_id, permission_id)
			 SELECT $1, unnest($2::bigint[])
			 ON CONFLICT DO NOTHING`,
			userID, permissionIDs)
		if isPGError(err, pgForeignKeyViolation) {
			return shared.ErrUnknownPermission
		}
		return err
	})
}

// ListRoles returns all roles in creation order.
func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// ListPermissions returns all permissions in creation order.
func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, created_at FROM permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return scanPermissions(rows)
}

// RoleExists reports whether a role id exists.
func (r *PGRepository) RoleExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// PermissionExists reports whether a permission id exists.
func (r *PGRepository) PermissionExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM permissions WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// UserRoleIDs returns the user's direct role set.
func (r *PGRepository) UserRoleIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT role_id FROM user_roles WHERE user_id = $1 ORDER BY role_id`, userID)
}

// UserPermissionIDs returns the user's directly granted permission set.
func (r *PGRepository) UserPermissionIDs(ctx context.Context, userID int64) ([]int64, error) {
	return r.queryIDs(ctx, `SELECT permission_id FROM user_permissions WHERE user_id = $1 ORDER BY permission_id`, userID)
}

// RolePermissionIDs returns the deduplicated permission set linked to any of
// the given roles.
func (r *PGRepository) RolePermissionIDs(ctx context.Context, roleIDs []int64) ([]int64, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	return r.queryIDs(ctx,
		`SELECT DISTINCT permission_id FROM role_permissions WHERE role_id = ANY($1::bigint[]) ORDER BY permission_id`,
		roleIDs)
}

func (r *PGRepository) queryIDs(ctx context.Context, query string, arg any) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func checkUserExists(ctx context.Context, tx pgx.Tx, userID int64) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return shared.ErrUnknownUser
	}
	return nil
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.CreatedAt); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func isPGError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

var _ Repository = (*PGRepository)(nil)
