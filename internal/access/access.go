// Package access implements the pure grant/deny decision for file retrieval.
// Both the retrieval pipeline and the listing filter consume Evaluate, so the
// two can never disagree about who may see a file.
package access

import (
	"fmt"
	"strings"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
)

// Reason explains a grant or denial.
type Reason string

const (
	ReasonOwner     Reason = "owner"
	ReasonReceiver  Reason = "receiver"
	ReasonRoleBased Reason = "role-based"
	ReasonPublic    Reason = "public"

	DeniedRoleMismatch Reason = "role-mismatch"
	DeniedPrivate      Reason = "private"
)

// Decision is the evaluator's verdict for a single request.
type Decision struct {
	Granted bool
	Reason  Reason
	// RequiredRoles is populated on role-mismatch denials: the roles that
	// would satisfy access. Deliberately surfaced to the caller.
	RequiredRoles []string
}

// Evaluate decides whether requester may read rec. requester is a normalized
// address or empty for anonymous callers; roles are the requester's active
// role names. The function is total and performs no I/O.
//
// Precedence, first match wins: owner, receiver, role-based, public, private.
// A role-based record is evaluated before the public check even when it also
// carries a public flag.
func Evaluate(requester string, rec *model.FileRecord, roles []string) Decision {
	if requester != "" && requester == rec.OwnerAddress {
		return Decision{Granted: true, Reason: ReasonOwner}
	}
	if requester != "" && rec.ReceiverAddress != "" && requester == rec.ReceiverAddress {
		return Decision{Granted: true, Reason: ReasonReceiver}
	}
	if rec.AccessType == model.AccessRoleBased && len(rec.AllowedRoles) > 0 {
		if intersects(roles, rec.AllowedRoles) {
			return Decision{Granted: true, Reason: ReasonRoleBased}
		}
		return Decision{
			Granted:       false,
			Reason:        DeniedRoleMismatch,
			RequiredRoles: append([]string(nil), rec.AllowedRoles...),
		}
	}
	if rec.PubliclyAccessible() {
		return Decision{Granted: true, Reason: ReasonPublic}
	}
	return Decision{Granted: false, Reason: DeniedPrivate}
}

func intersects(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// DeniedError carries a denial reason across layers. It unwraps to
// errs.ErrForbidden for transport mapping.
type DeniedError struct {
	Reason        Reason
	RequiredRoles []string
}

func (e *DeniedError) Error() string {
	if e.Reason == DeniedRoleMismatch && len(e.RequiredRoles) > 0 {
		return fmt.Sprintf("access denied: requires one of roles [%s]", strings.Join(e.RequiredRoles, ", "))
	}
	return "access denied: private file, owner or receiver only"
}

func (e *DeniedError) Unwrap() error { return errs.ErrForbidden }
