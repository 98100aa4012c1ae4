package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/sealvault/internal/errs"
	"github.com/and161185/sealvault/internal/model"
)

// LedgerRepo implements LedgerRepository using PostgreSQL.
type LedgerRepo struct{ db *DB }

// NewLedgerRepo constructs a file ledger repository.
func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

const fileColumns = `
file_id, owner_address, receiver_address, is_public, access_type, allowed_roles,
content_hash, image_hash, anchor_tx_hash, blob_location,
original_filename, file_size, mime_type, label, document_type, description, uploaded_at`

// Upsert creates or fully replaces a record keyed by file_id (last write wins).
// Omitted fields on a re-ingestion do not survive from the previous record.
func (r *LedgerRepo) Upsert(ctx context.Context, rec *model.FileRecord) error {
	const q = `
INSERT INTO files (
  file_id, owner_address, receiver_address, is_public, access_type, allowed_roles,
  content_hash, image_hash, anchor_tx_hash, blob_location,
  original_filename, file_size, mime_type, label, document_type, description, uploaded_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
ON CONFLICT (file_id) DO UPDATE SET
  owner_address=EXCLUDED.owner_address,
  receiver_address=EXCLUDED.receiver_address,
  is_public=EXCLUDED.is_public,
  access_type=EXCLUDED.access_type,
  allowed_roles=EXCLUDED.allowed_roles,
  content_hash=EXCLUDED.content_hash,
  image_hash=EXCLUDED.image_hash,
  anchor_tx_hash=EXCLUDED.anchor_tx_hash,
  blob_location=EXCLUDED.blob_location,
  original_filename=EXCLUDED.original_filename,
  file_size=EXCLUDED.file_size,
  mime_type=EXCLUDED.mime_type,
  label=EXCLUDED.label,
  document_type=EXCLUDED.document_type,
  description=EXCLUDED.description,
  uploaded_at=EXCLUDED.uploaded_at`
	_, err := r.db.Pool.Exec(ctx, q,
		rec.FileID, rec.OwnerAddress, rec.ReceiverAddress, rec.IsPublic,
		string(rec.AccessType), rec.AllowedRoles,
		rec.ContentHash, rec.ImageHash, rec.AnchorTxHash, rec.BlobLocation,
		rec.OriginalFilename, rec.FileSize, rec.MimeType, rec.Label,
		rec.DocumentType, rec.Description, rec.UploadedAt,
	)
	return err
}

// Get loads a single record by file id.
func (r *LedgerRepo) Get(ctx context.Context, fileID string) (*model.FileRecord, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE file_id=$1`
	rec, err := scanFile(r.db.Pool.QueryRow(ctx, q, fileID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// Delete removes a record outright. The administrative delete path also
// removes the blob; the service owns that ordering.
func (r *LedgerRepo) Delete(ctx context.Context, fileID string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM files WHERE file_id=$1`, fileID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SetAnchorTx records the anchoring transaction hash after the fact.
func (r *LedgerRepo) SetAnchorTx(ctx context.Context, fileID, txHash string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE files SET anchor_tx_hash=$2 WHERE file_id=$1`, fileID, txHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// ListByUser returns records owned by or addressed to address, newest first.
func (r *LedgerRepo) ListByUser(ctx context.Context, address string) ([]model.FileRecord, error) {
	const q = `
SELECT ` + fileColumns + `
FROM files
WHERE owner_address=$1 OR receiver_address=$1
ORDER BY uploaded_at DESC`
	return r.list(ctx, q, address)
}

// ListPublic returns publicly accessible records, newest first, optionally
// narrowed to one owner.
func (r *LedgerRepo) ListPublic(ctx context.Context, owner string) ([]model.FileRecord, error) {
	if owner != "" {
		const q = `
SELECT ` + fileColumns + `
FROM files
WHERE owner_address=$1
  AND (access_type='public' OR (is_public AND access_type<>'role-based'))
ORDER BY uploaded_at DESC`
		return r.list(ctx, q, owner)
	}
	const q = `
SELECT ` + fileColumns + `
FROM files
WHERE access_type='public' OR (is_public AND access_type<>'role-based')
ORDER BY uploaded_at DESC`
	return r.list(ctx, q)
}

// ListAccessible returns the candidate set for the principal listing query:
// public, owned, received, or role-intersecting records, newest first.
// The service re-checks every row with the access evaluator so this query
// can never drift ahead of retrieval policy.
func (r *LedgerRepo) ListAccessible(ctx context.Context, address string, roles []string) ([]model.FileRecord, error) {
	const q = `
SELECT ` + fileColumns + `
FROM files
WHERE access_type='public' OR (is_public AND access_type<>'role-based')
   OR owner_address=$1 OR receiver_address=$1
   OR (access_type='role-based' AND allowed_roles && $2)
ORDER BY uploaded_at DESC`
	if roles == nil {
		roles = []string{}
	}
	return r.list(ctx, q, address, roles)
}

func (r *LedgerRepo) list(ctx context.Context, q string, args ...any) ([]model.FileRecord, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.FileRecord
	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanFile(row pgx.Row) (*model.FileRecord, error) {
	var rec model.FileRecord
	var accessType string
	err := row.Scan(
		&rec.FileID, &rec.OwnerAddress, &rec.ReceiverAddress, &rec.IsPublic,
		&accessType, &rec.AllowedRoles,
		&rec.ContentHash, &rec.ImageHash, &rec.AnchorTxHash, &rec.BlobLocation,
		&rec.OriginalFilename, &rec.FileSize, &rec.MimeType, &rec.Label,
		&rec.DocumentType, &rec.Description, &rec.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.AccessType = model.AccessType(accessType)
	return &rec, nil
}
