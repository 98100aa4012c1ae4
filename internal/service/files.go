// Package service contains application services for file storage and the
// role directory.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/sealvault/internal/access"
	"github.com/and161185/sealvault/internal/blob"
	"github.com/and161185/sealvault/internal/crypto/filecrypto"
	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
	"github.com/and161185/sealvault/internal/repository"
)

// anchorVersion is the version string recorded with every anchor call.
const anchorVersion = "v1.0"

// AnchorDispatcher fires best-effort anchoring after the ledger commit.
type AnchorDispatcher interface {
	Dispatch(fileID, version, contentHash string)
}

// StoreInput carries everything the ingestion pipeline needs.
type StoreInput struct {
	// FileID is normally empty and generated; a caller re-ingesting an
	// existing file passes the old id to overwrite its record entirely.
	FileID string

	Content []byte

	OwnerAddress    string // required
	ReceiverAddress string // optional
	AccessType      model.AccessType
	IsPublic        bool
	AllowedRoles    []string

	ImageHash        string
	OriginalFilename string
	MimeType         string
	Label            string
	DocumentType     string
	Description      string
}

// StoreResult confirms a completed ingestion.
type StoreResult struct {
	FileID      string
	ContentHash string
	Record      model.FileRecord
}

// RequestMeta is client metadata recorded into the audit log.
type RequestMeta struct {
	RemoteAddr string
	UserAgent  string
}

// Download is a decrypted payload plus the metadata needed to serve it.
type Download struct {
	Content     []byte
	Filename    string
	MimeType    string
	ContentHash string
	Reason      access.Reason
}

// VerifyResult echoes both hashes back unchanged alongside the verdict.
type VerifyResult struct {
	FileID       string
	IsValid      bool
	StoredHash   string
	ProvidedHash string
}

// FileService defines ingestion, retrieval, verification, and listing.
type FileService interface {
	// Store runs the ingestion pipeline: hash, encrypt, persist blob,
	// upsert ledger, then best-effort anchoring.
	Store(ctx context.Context, in StoreInput) (StoreResult, error)
	// Retrieve runs the retrieval pipeline and logs the attempt either way.
	Retrieve(ctx context.Context, fileID, requester string, meta RequestMeta) (*Download, error)
	// GetRecord returns a record's metadata under the same access policy.
	GetRecord(ctx context.Context, fileID, requester string, meta RequestMeta) (*model.FileRecord, error)
	// Verify compares a caller-supplied hash against the stored one without
	// touching blob storage.
	Verify(ctx context.Context, fileID, providedHash string, requester string, meta RequestMeta) (VerifyResult, error)
	// Delete removes the ledger record and the blob pair (administrative).
	Delete(ctx context.Context, fileID string) error

	// ListAccessible returns every record the address may read.
	ListAccessible(ctx context.Context, address string) ([]model.FileRecord, error)
	// ListPublic returns public records, optionally for one owner.
	ListPublic(ctx context.Context, owner string) ([]model.FileRecord, error)
	// ListByUser returns records owned by or addressed to the address.
	ListByUser(ctx context.Context, address string) ([]model.FileRecord, error)

	// LogsForFile and LogsForAccessor expose the audit trail.
	LogsForFile(ctx context.Context, fileID string) ([]model.AccessLogEntry, error)
	LogsForAccessor(ctx context.Context, address string) ([]model.AccessLogEntry, error)
}

type FileServiceImpl struct {
	ledger repository.LedgerRepository
	roles  repository.RoleRepository
	audit  repository.AuditRepository
	blobs  blob.Store
	crypto *filecrypto.Engine
	anchor AnchorDispatcher
	log    *zap.Logger
}

// NewFileService constructs FileService with injected collaborators.
func NewFileService(
	ledger repository.LedgerRepository,
	roles repository.RoleRepository,
	audit repository.AuditRepository,
	blobs blob.Store,
	crypto *filecrypto.Engine,
	anchor AnchorDispatcher,
	log *zap.Logger,
) *FileServiceImpl {
	return &FileServiceImpl{
		ledger: ledger,
		roles:  roles,
		audit:  audit,
		blobs:  blobs,
		crypto: crypto,
		anchor: anchor,
		log:    log,
	}
}

// Store runs the ingestion pipeline in order; any failing step aborts the
// rest and no partial success is reported. Anchoring is the exception: it is
// dispatched after the ledger commit and cannot fail the ingestion.
func (s *FileServiceImpl) Store(ctx context.Context, in StoreInput) (StoreResult, error) {
	owner := model.NormalizeAddress(in.OwnerAddress)
	if owner == "" {
		return StoreResult{}, fmt.Errorf("%w: ownerAddress is required", errs.ErrValidation)
	}
	if len(in.Content) == 0 {
		return StoreResult{}, fmt.Errorf("%w: no file content", errs.ErrValidation)
	}
	accessType := in.AccessType
	if accessType == "" {
		accessType = model.AccessPrivate
		if in.IsPublic {
			accessType = model.AccessPublic
		}
	}
	if !accessType.Valid() {
		return StoreResult{}, fmt.Errorf("%w: unknown accessType %q", errs.ErrValidation, in.AccessType)
	}
	roles := cleanRoles(in.AllowedRoles)
	if accessType == model.AccessRoleBased && len(roles) == 0 {
		return StoreResult{}, fmt.Errorf("%w: role-based access requires allowedRoles", errs.ErrValidation)
	}

	fileID := in.FileID
	if fileID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return StoreResult{}, err
		}
		fileID = id.String()
	}

	contentHash := filecrypto.Hash(in.Content)

	iv, ciphertext, err := s.crypto.Encrypt(fileID, in.Content)
	if err != nil {
		return StoreResult{}, fmt.Errorf("encrypt: %w", err)
	}

	locator, err := s.blobs.Put(ctx, fileID, iv, ciphertext)
	if err != nil {
		return StoreResult{}, fmt.Errorf("persist blob: %w", err)
	}

	rec := model.FileRecord{
		FileID:           fileID,
		OwnerAddress:     owner,
		ReceiverAddress:  model.NormalizeAddress(in.ReceiverAddress),
		IsPublic:         in.IsPublic || accessType == model.AccessPublic,
		AccessType:       accessType,
		AllowedRoles:     roles,
		ContentHash:      contentHash,
		ImageHash:        in.ImageHash,
		BlobLocation:     locator,
		OriginalFilename: in.OriginalFilename,
		FileSize:         int64(len(in.Content)),
		MimeType:         in.MimeType,
		Label:            in.Label,
		DocumentType:     in.DocumentType,
		Description:      in.Description,
		UploadedAt:       time.Now().UTC(),
	}
	if rec.OriginalFilename == "" {
		rec.OriginalFilename = fileID
	}
	if err := s.ledger.Upsert(ctx, &rec); err != nil {
		return StoreResult{}, fmt.Errorf("ledger upsert: %w", err)
	}

	// Durable from here on. Anchoring is fire-and-forget.
	s.anchor.Dispatch(fileID, anchorVersion, contentHash)

	return StoreResult{FileID: fileID, ContentHash: contentHash, Record: rec}, nil
}

// Retrieve runs the retrieval pipeline. Every attempt, granted or denied,
// produces exactly one audit entry of kind download.
func (s *FileServiceImpl) Retrieve(ctx context.Context, fileID, requester string, meta RequestMeta) (*Download, error) {
	rec, err := s.ledger.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	requester = model.NormalizeAddress(requester)

	// Anonymous requester on a non-public record: authentication required,
	// distinct from a policy denial. Logged like any other denied attempt.
	if requester == "" && !rec.PubliclyAccessible() {
		s.writeLog(ctx, rec, requester, model.KindDownload, meta, false)
		return nil, errs.ErrAuthRequired
	}

	roles, err := s.rolesOf(ctx, requester)
	if err != nil {
		return nil, err
	}

	dec := access.Evaluate(requester, rec, roles)
	if !dec.Granted {
		s.writeLog(ctx, rec, requester, model.KindDownload, meta, false)
		return nil, &access.DeniedError{Reason: dec.Reason, RequiredRoles: dec.RequiredRoles}
	}

	iv, ciphertext, err := s.blobs.Get(ctx, rec.BlobLocation)
	if err != nil {
		return nil, fmt.Errorf("load blob: %w", err)
	}
	plaintext, err := s.crypto.Decrypt(rec.FileID, iv, ciphertext)
	if err != nil {
		return nil, err
	}

	s.writeLog(ctx, rec, requester, model.KindDownload, meta, true)

	return &Download{
		Content:     plaintext,
		Filename:    rec.OriginalFilename,
		MimeType:    rec.MimeType,
		ContentHash: rec.ContentHash,
		Reason:      dec.Reason,
	}, nil
}

// GetRecord applies the retrieval access policy to a metadata view. Granted
// views are logged with kind view; denials surface the same errors as
// Retrieve but are not logged (no payload was at stake).
func (s *FileServiceImpl) GetRecord(ctx context.Context, fileID, requester string, meta RequestMeta) (*model.FileRecord, error) {
	rec, err := s.ledger.Get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	requester = model.NormalizeAddress(requester)
	if requester == "" && !rec.PubliclyAccessible() {
		return nil, errs.ErrAuthRequired
	}
	roles, err := s.rolesOf(ctx, requester)
	if err != nil {
		return nil, err
	}
	dec := access.Evaluate(requester, rec, roles)
	if !dec.Granted {
		return nil, &access.DeniedError{Reason: dec.Reason, RequiredRoles: dec.RequiredRoles}
	}
	s.writeLog(ctx, rec, requester, model.KindView, meta, true)
	return rec, nil
}

// Verify compares the stored content hash against a caller-supplied one.
// It never touches blob storage. The audit entry's success flag records
// whether the presented hash matched.
func (s *FileServiceImpl) Verify(ctx context.Context, fileID, providedHash, requester string, meta RequestMeta) (VerifyResult, error) {
	if strings.TrimSpace(providedHash) == "" {
		return VerifyResult{}, fmt.Errorf("%w: fileHash is required", errs.ErrValidation)
	}
	rec, err := s.ledger.Get(ctx, fileID)
	if err != nil {
		return VerifyResult{}, err
	}
	isValid := rec.ContentHash == providedHash
	s.writeLog(ctx, rec, model.NormalizeAddress(requester), model.KindVerify, meta, isValid)
	return VerifyResult{
		FileID:       fileID,
		IsValid:      isValid,
		StoredHash:   rec.ContentHash,
		ProvidedHash: providedHash,
	}, nil
}

// Delete removes the ledger record, then the blob pair. The blob removal is
// best-effort: an orphaned blob is a tolerated failure mode, a ledger entry
// pointing at nothing is not.
func (s *FileServiceImpl) Delete(ctx context.Context, fileID string) error {
	rec, err := s.ledger.Get(ctx, fileID)
	if err != nil {
		return err
	}
	if err := s.ledger.Delete(ctx, fileID); err != nil {
		return err
	}
	if err := s.blobs.Delete(ctx, rec.BlobLocation); err != nil {
		s.log.Warn("blob cleanup failed",
			zap.String("fileID", fileID),
			zap.String("locator", rec.BlobLocation),
			zap.Error(err),
		)
	}
	return nil
}

// ListAccessible fetches the candidate set from the ledger and re-checks
// every row with the same evaluator retrieval uses.
func (s *FileServiceImpl) ListAccessible(ctx context.Context, address string) ([]model.FileRecord, error) {
	address = model.NormalizeAddress(address)
	roles, err := s.rolesOf(ctx, address)
	if err != nil {
		return nil, err
	}
	candidates, err := s.ledger.ListAccessible(ctx, address, roles)
	if err != nil {
		return nil, err
	}
	out := candidates[:0]
	for i := range candidates {
		if access.Evaluate(address, &candidates[i], roles).Granted {
			out = append(out, candidates[i])
		}
	}
	return out, nil
}

// ListPublic lists public records, optionally narrowed to one owner.
func (s *FileServiceImpl) ListPublic(ctx context.Context, owner string) ([]model.FileRecord, error) {
	return s.ledger.ListPublic(ctx, model.NormalizeAddress(owner))
}

// ListByUser lists records where the address is owner or receiver.
func (s *FileServiceImpl) ListByUser(ctx context.Context, address string) ([]model.FileRecord, error) {
	address = model.NormalizeAddress(address)
	if address == "" {
		return nil, fmt.Errorf("%w: address is required", errs.ErrValidation)
	}
	return s.ledger.ListByUser(ctx, address)
}

// LogsForFile returns the audit trail of one file.
func (s *FileServiceImpl) LogsForFile(ctx context.Context, fileID string) ([]model.AccessLogEntry, error) {
	return s.audit.ListByFile(ctx, fileID)
}

// LogsForAccessor returns all attempts made by one address.
func (s *FileServiceImpl) LogsForAccessor(ctx context.Context, address string) ([]model.AccessLogEntry, error) {
	return s.audit.ListByAccessor(ctx, model.NormalizeAddress(address))
}

// rolesOf resolves active roles; anonymous requesters carry none.
func (s *FileServiceImpl) rolesOf(ctx context.Context, address string) ([]string, error) {
	if address == "" {
		return nil, nil
	}
	return s.roles.RolesOf(ctx, address)
}

// writeLog appends one audit entry. Log write errors are reported and
// swallowed: they must never turn a served retrieval into a failure.
func (s *FileServiceImpl) writeLog(ctx context.Context, rec *model.FileRecord, requester string, kind model.AccessKind, meta RequestMeta, success bool) {
	accessedBy := requester
	if accessedBy == "" {
		accessedBy = model.AnonymousAccessor
	}
	entry := &model.AccessLogEntry{
		FileID:      rec.FileID,
		AccessedBy:  accessedBy,
		AccessKind:  kind,
		ContentHash: rec.ContentHash,
		RemoteAddr:  meta.RemoteAddr,
		UserAgent:   meta.UserAgent,
		Success:     success,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Error("access log write failed",
			zap.String("fileID", rec.FileID),
			zap.String("accessedBy", accessedBy),
			zap.Error(err),
		)
	}
}

func cleanRoles(roles []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
