package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
)

type authorityJSON struct {
	WalletAddress  string    `json:"walletAddress"`
	Name           string    `json:"name"`
	AuthorityType  string    `json:"authorityType"`
	IsActive       bool      `json:"isActive"`
	CanCreateRoles bool      `json:"canCreateRoles"`
	CreatedAt      time.Time `json:"createdAt"`
}

type roleJSON struct {
	RoleName    string    `json:"roleName"`
	Description string    `json:"description,omitempty"`
	CreatedBy   string    `json:"createdBy"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (h *Handler) registerAuthority(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		Name          string `json:"name"`
		AuthorityType string `json:"authorityType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}
	a, err := h.roles.RegisterAuthority(r.Context(), req.WalletAddress, req.Name, req.AuthorityType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authorityJSON{
		WalletAddress:  a.WalletAddress,
		Name:           a.Name,
		AuthorityType:  a.AuthorityType,
		IsActive:       a.IsActive,
		CanCreateRoles: a.CanCreateRoles,
		CreatedAt:      a.CreatedAt,
	})
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoleName    string `json:"roleName"`
		Description string `json:"description"`
		CreatedBy   string `json:"createdBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}
	role, err := h.roles.CreateRole(r.Context(), req.RoleName, req.Description, req.CreatedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoleJSON(role))
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.ListRoles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]roleJSON, 0, len(roles))
	for i := range roles {
		out = append(out, toRoleJSON(&roles[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		RoleName      string `json:"roleName"`
		AssignedBy    string `json:"assignedBy"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}
	a, err := h.roles.AssignRole(r.Context(), req.WalletAddress, req.RoleName, req.AssignedBy)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"walletAddress": a.WalletAddress,
		"roleName":      a.RoleName,
		"assignedBy":    a.AssignedBy,
		"isActive":      a.IsActive,
	})
}

func (h *Handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		WalletAddress string `json:"walletAddress"`
		RoleName      string `json:"roleName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: bad request body", errs.ErrValidation))
		return
	}
	if err := h.roles.RevokeRole(r.Context(), req.WalletAddress, req.RoleName); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) userRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.roles.RolesOf(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		writeError(w, err)
		return
	}
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func toRoleJSON(role *model.Role) roleJSON {
	return roleJSON{
		RoleName:    role.RoleName,
		Description: role.Description,
		CreatedBy:   role.CreatedBy,
		IsActive:    role.IsActive,
		CreatedAt:   role.CreatedAt,
	}
}
