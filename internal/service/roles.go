package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
	"github.com/and161185/sealvault/internal/repository"
)

// RoleService administers authorities, roles, and user-role assignments.
type RoleService interface {
	// RegisterAuthority upserts an authority record for the given identity.
	// Registration is open and idempotent; the record always comes back
	// active with role-creation rights.
	RegisterAuthority(ctx context.Context, address, name, authorityType string) (*model.Authority, error)

	// CreateRole creates a role on behalf of an active authority.
	CreateRole(ctx context.Context, roleName, description, creator string) (*model.Role, error)

	// AssignRole grants a role to a user; the assigner must be an active
	// authority and the role must exist and be active.
	AssignRole(ctx context.Context, user, roleName, assigner string) (*model.RoleAssignment, error)

	// RevokeRole soft-deactivates an active assignment.
	RevokeRole(ctx context.Context, user, roleName string) error

	// RolesOf returns the user's active role names.
	RolesOf(ctx context.Context, address string) ([]string, error)

	// ListRoles returns all active (assignable) roles.
	ListRoles(ctx context.Context) ([]model.Role, error)
}

type RoleServiceImpl struct {
	repo repository.RoleRepository
}

// NewRoleService constructs RoleService.
func NewRoleService(repo repository.RoleRepository) *RoleServiceImpl {
	return &RoleServiceImpl{repo: repo}
}

// RegisterAuthority upserts and returns the authority record.
func (s *RoleServiceImpl) RegisterAuthority(ctx context.Context, address, name, authorityType string) (*model.Authority, error) {
	address = model.NormalizeAddress(address)
	if address == "" || name == "" {
		return nil, fmt.Errorf("%w: walletAddress and name are required", errs.ErrValidation)
	}
	a := &model.Authority{
		WalletAddress:  address,
		Name:           name,
		AuthorityType:  authorityType,
		IsActive:       true,
		CanCreateRoles: true,
	}
	if err := s.repo.UpsertAuthority(ctx, a); err != nil {
		return nil, err
	}
	return s.repo.GetAuthority(ctx, address)
}

// CreateRole checks the creator's authority, then inserts the role.
func (s *RoleServiceImpl) CreateRole(ctx context.Context, roleName, description, creator string) (*model.Role, error) {
	if roleName == "" {
		return nil, fmt.Errorf("%w: roleName is required", errs.ErrValidation)
	}
	creator = model.NormalizeAddress(creator)
	if err := s.requireAuthority(ctx, creator, true); err != nil {
		return nil, err
	}
	role := &model.Role{
		RoleName:    roleName,
		Description: description,
		CreatedBy:   creator,
		IsActive:    true,
	}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	return s.repo.GetRole(ctx, roleName)
}

// AssignRole grants roleName to user on behalf of assigner.
func (s *RoleServiceImpl) AssignRole(ctx context.Context, user, roleName, assigner string) (*model.RoleAssignment, error) {
	user = model.NormalizeAddress(user)
	assigner = model.NormalizeAddress(assigner)
	if user == "" || roleName == "" {
		return nil, fmt.Errorf("%w: walletAddress and roleName are required", errs.ErrValidation)
	}
	if err := s.requireAuthority(ctx, assigner, false); err != nil {
		return nil, err
	}
	role, err := s.repo.GetRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if !role.IsActive {
		return nil, fmt.Errorf("role %q: %w", roleName, errs.ErrNotFound)
	}
	a := &model.RoleAssignment{
		WalletAddress: user,
		RoleName:      roleName,
		AssignedBy:    assigner,
		IsActive:      true,
	}
	if err := s.repo.UpsertAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RevokeRole soft-deactivates the assignment.
func (s *RoleServiceImpl) RevokeRole(ctx context.Context, user, roleName string) error {
	user = model.NormalizeAddress(user)
	if user == "" || roleName == "" {
		return fmt.Errorf("%w: walletAddress and roleName are required", errs.ErrValidation)
	}
	return s.repo.DeactivateAssignment(ctx, user, roleName)
}

// RolesOf returns active role names for the address.
func (s *RoleServiceImpl) RolesOf(ctx context.Context, address string) ([]string, error) {
	address = model.NormalizeAddress(address)
	if address == "" {
		return nil, nil
	}
	return s.repo.RolesOf(ctx, address)
}

// ListRoles returns all active roles.
func (s *RoleServiceImpl) ListRoles(ctx context.Context) ([]model.Role, error) {
	return s.repo.ListActiveRoles(ctx)
}

// requireAuthority verifies address is an active authority, optionally with
// role-creation rights. Absence maps to ErrUnauthorized, not ErrNotFound:
// whether an address is an authority is itself an authorization fact.
func (s *RoleServiceImpl) requireAuthority(ctx context.Context, address string, needCreateRoles bool) error {
	if address == "" {
		return errs.ErrUnauthorized
	}
	a, err := s.repo.GetAuthority(ctx, address)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrUnauthorized
		}
		return err
	}
	if !a.IsActive || (needCreateRoles && !a.CanCreateRoles) {
		return errs.ErrUnauthorized
	}
	return nil
}
