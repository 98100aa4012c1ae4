package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
)

// RoleRepo implements RoleRepository using PostgreSQL.
type RoleRepo struct{ db *DB }

// NewRoleRepo constructs a role directory repository.
func NewRoleRepo(db *DB) *RoleRepo { return &RoleRepo{db: db} }

// UpsertAuthority registers or refreshes an authority. Registration is
// idempotent and unconditionally reactivates with role-creation rights.
func (r *RoleRepo) UpsertAuthority(ctx context.Context, a *model.Authority) error {
	const q = `
INSERT INTO authorities (wallet_address, name, authority_type, is_active, can_create_roles)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (wallet_address) DO UPDATE SET
  name=EXCLUDED.name,
  authority_type=EXCLUDED.authority_type,
  is_active=EXCLUDED.is_active,
  can_create_roles=EXCLUDED.can_create_roles`
	_, err := r.db.Pool.Exec(ctx, q,
		a.WalletAddress, a.Name, a.AuthorityType, a.IsActive, a.CanCreateRoles)
	return err
}

// GetAuthority selects an authority by wallet address.
func (r *RoleRepo) GetAuthority(ctx context.Context, address string) (*model.Authority, error) {
	const q = `
SELECT wallet_address, name, authority_type, is_active, can_create_roles, created_at
FROM authorities WHERE wallet_address=$1`
	var a model.Authority
	err := r.db.Pool.QueryRow(ctx, q, address).Scan(
		&a.WalletAddress, &a.Name, &a.AuthorityType, &a.IsActive, &a.CanCreateRoles, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreateRole inserts a new role row.
func (r *RoleRepo) CreateRole(ctx context.Context, role *model.Role) error {
	const q = `
INSERT INTO roles (role_name, description, created_by, is_active)
VALUES ($1,$2,$3,$4)`
	_, err := r.db.Pool.Exec(ctx, q, role.RoleName, role.Description, role.CreatedBy, role.IsActive)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetRole selects a role by name regardless of active flag.
func (r *RoleRepo) GetRole(ctx context.Context, roleName string) (*model.Role, error) {
	const q = `
SELECT role_name, description, created_by, is_active, created_at
FROM roles WHERE role_name=$1`
	var role model.Role
	err := r.db.Pool.QueryRow(ctx, q, roleName).Scan(
		&role.RoleName, &role.Description, &role.CreatedBy, &role.IsActive, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

// ListActiveRoles returns active roles sorted by name. Deactivated roles are
// never offered as assignable.
func (r *RoleRepo) ListActiveRoles(ctx context.Context) ([]model.Role, error) {
	const q = `
SELECT role_name, description, created_by, is_active, created_at
FROM roles WHERE is_active ORDER BY role_name`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.RoleName, &role.Description, &role.CreatedBy, &role.IsActive, &role.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// UpsertAssignment creates or reactivates a (user, role) assignment.
func (r *RoleRepo) UpsertAssignment(ctx context.Context, a *model.RoleAssignment) error {
	const q = `
INSERT INTO user_roles (wallet_address, role_name, assigned_by, is_active)
VALUES ($1,$2,$3,true)
ON CONFLICT (wallet_address, role_name) DO UPDATE SET
  assigned_by=EXCLUDED.assigned_by,
  is_active=true,
  assigned_at=now()`
	_, err := r.db.Pool.Exec(ctx, q, a.WalletAddress, a.RoleName, a.AssignedBy)
	return err
}

// DeactivateAssignment soft-revokes an active assignment.
func (r *RoleRepo) DeactivateAssignment(ctx context.Context, address, roleName string) error {
	const q = `
UPDATE user_roles SET is_active=false
WHERE wallet_address=$1 AND role_name=$2 AND is_active`
	tag, err := r.db.Pool.Exec(ctx, q, address, roleName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// RolesOf returns role names via active assignments to active roles only.
// Deactivated roles drop out of access checks here, not in the evaluator.
func (r *RoleRepo) RolesOf(ctx context.Context, address string) ([]string, error) {
	const q = `
SELECT ur.role_name
FROM user_roles ur
JOIN roles ro ON ro.role_name = ur.role_name
WHERE ur.wallet_address=$1 AND ur.is_active AND ro.is_active
ORDER BY ur.role_name`
	rows, err := r.db.Pool.Query(ctx, q, address)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
