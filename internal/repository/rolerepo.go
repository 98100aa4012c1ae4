package repository

import (
	"context"

	"github.com/and161185/sealvault/internal/model"
)

// RoleRepository holds authorities, roles, and user-role assignments.
type RoleRepository interface {
	// UpsertAuthority registers or refreshes an authority record.
	UpsertAuthority(ctx context.Context, a *model.Authority) error

	// GetAuthority loads an authority by wallet address.
	GetAuthority(ctx context.Context, address string) (*model.Authority, error)

	// CreateRole inserts a role. Returns the stored role.
	CreateRole(ctx context.Context, r *model.Role) error

	// GetRole loads a role by name regardless of active flag.
	GetRole(ctx context.Context, roleName string) (*model.Role, error)

	// ListActiveRoles returns all active roles, alphabetical by name.
	ListActiveRoles(ctx context.Context) ([]model.Role, error)

	// UpsertAssignment creates or reactivates a (user, role) assignment.
	UpsertAssignment(ctx context.Context, a *model.RoleAssignment) error

	// DeactivateAssignment soft-revokes an active assignment. Returns
	// errs.ErrNotFound if no active assignment exists for the pair.
	DeactivateAssignment(ctx context.Context, address, roleName string) error

	// RolesOf returns role names from active assignments to active roles.
	RolesOf(ctx context.Context, address string) ([]string, error)
}
