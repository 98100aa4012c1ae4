// Package model defines domain entities used by services and repositories.
package model

import (
	"strings"
	"time"
)

// AccessType is the declared access policy of a stored file.
type AccessType string

const (
	AccessPublic    AccessType = "public"
	AccessPrivate   AccessType = "private"
	AccessRoleBased AccessType = "role-based"
)

// Valid reports whether t is one of the known access types.
func (t AccessType) Valid() bool {
	switch t {
	case AccessPublic, AccessPrivate, AccessRoleBased:
		return true
	}
	return false
}

// AccessKind classifies an audit log entry.
type AccessKind string

const (
	KindView     AccessKind = "view"
	KindDownload AccessKind = "download"
	KindVerify   AccessKind = "verify"
)

// NormalizeAddress lowercases and trims a wallet address. Addresses are
// compared as opaque strings; no checksum validation happens at this layer.
func NormalizeAddress(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

// FileRecord is the ledger entry for one stored file. Records are written by
// ingestion (upsert keyed by FileID) and never mutated afterward except by a
// new ingestion under the same id or an administrative delete.
type FileRecord struct {
	FileID          string
	OwnerAddress    string // normalized, required
	ReceiverAddress string // normalized, empty if not addressed to anyone
	IsPublic        bool
	AccessType      AccessType
	AllowedRoles    []string // non-empty only when AccessType == role-based

	ContentHash  string // hex SHA-256 of plaintext, computed pre-encryption
	ImageHash    string // optional secondary hash, empty if absent
	AnchorTxHash string // set asynchronously once on-chain anchoring succeeds
	BlobLocation string // opaque locator issued by the blob store

	OriginalFilename string
	FileSize         int64
	MimeType         string
	Label            string
	DocumentType     string
	Description      string

	UploadedAt time.Time
}

// PubliclyAccessible reports whether the record's effective policy grants
// anonymous reads. A role-based access type overrides any public flag.
func (r *FileRecord) PubliclyAccessible() bool {
	if r.AccessType == AccessRoleBased {
		return false
	}
	return r.AccessType == AccessPublic || r.IsPublic
}

// Role is a named capability tag that can be attached to files and users.
// Deactivation is a soft flag; deactivated roles never match in access checks.
type Role struct {
	RoleName    string
	Description string
	CreatedBy   string // authority address
	IsActive    bool
	CreatedAt   time.Time
}

// Authority is an identity permitted to create roles and assign them.
type Authority struct {
	WalletAddress  string
	Name           string
	AuthorityType  string
	IsActive       bool
	CanCreateRoles bool
	CreatedAt      time.Time
}

// RoleAssignment links a user address to a role. The (WalletAddress, RoleName)
// pair is unique; revocation flips IsActive rather than deleting the row.
type RoleAssignment struct {
	WalletAddress string
	RoleName      string
	AssignedBy    string
	IsActive      bool
	AssignedAt    time.Time
}

// AccessLogEntry is one append-only audit record. Entries are written for
// every retrieval attempt, granted or denied, and are never updated.
type AccessLogEntry struct {
	ID          int64
	FileID      string
	AccessedBy  string // address or "anonymous"
	AccessKind  AccessKind
	ContentHash string // hash at time of access, for non-repudiation
	RemoteAddr  string
	UserAgent   string
	Success     bool
	AccessedAt  time.Time
}

// AnonymousAccessor is recorded when no requester identity was supplied.
const AnonymousAccessor = "anonymous"
