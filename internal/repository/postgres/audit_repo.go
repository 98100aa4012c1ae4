package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/and161185/sealvault/internal/model"
)

// AuditRepo implements AuditRepository using PostgreSQL. The table is
// append-only: no update or delete statements exist in this package.
type AuditRepo struct{ db *DB }

// NewAuditRepo constructs an audit log repository.
func NewAuditRepo(db *DB) *AuditRepo { return &AuditRepo{db: db} }

const auditColumns = `
id, file_id, accessed_by, access_kind, content_hash, remote_addr, user_agent, success, accessed_at`

// Append inserts one access log entry.
func (r *AuditRepo) Append(ctx context.Context, e *model.AccessLogEntry) error {
	const q = `
INSERT INTO access_logs (file_id, accessed_by, access_kind, content_hash, remote_addr, user_agent, success)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.db.Pool.Exec(ctx, q,
		e.FileID, e.AccessedBy, string(e.AccessKind), e.ContentHash,
		e.RemoteAddr, e.UserAgent, e.Success)
	return err
}

// ListByFile returns entries for a file, newest first.
func (r *AuditRepo) ListByFile(ctx context.Context, fileID string) ([]model.AccessLogEntry, error) {
	const q = `SELECT ` + auditColumns + ` FROM access_logs WHERE file_id=$1 ORDER BY accessed_at DESC, id DESC`
	return r.list(ctx, q, fileID)
}

// ListByAccessor returns entries made by an address, newest first.
func (r *AuditRepo) ListByAccessor(ctx context.Context, address string) ([]model.AccessLogEntry, error) {
	const q = `SELECT ` + auditColumns + ` FROM access_logs WHERE accessed_by=$1 ORDER BY accessed_at DESC, id DESC`
	return r.list(ctx, q, address)
}

func (r *AuditRepo) list(ctx context.Context, q string, args ...any) ([]model.AccessLogEntry, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AccessLogEntry
	for rows.Next() {
		e, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanLog(row pgx.Row) (*model.AccessLogEntry, error) {
	var e model.AccessLogEntry
	var kind string
	err := row.Scan(&e.ID, &e.FileID, &e.AccessedBy, &kind, &e.ContentHash,
		&e.RemoteAddr, &e.UserAgent, &e.Success, &e.AccessedAt)
	if err != nil {
		return nil, err
	}
	e.AccessKind = model.AccessKind(kind)
	return &e, nil
}
