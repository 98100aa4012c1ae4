package repository

import (
	"context"

	"github.com/and161185/sealvault/internal/model"
)

// AuditRepository is the append-only record of access attempts.
// Entries are never updated or deleted.
type AuditRepository interface {
	// Append inserts one log entry.
	Append(ctx context.Context, e *model.AccessLogEntry) error

	// ListByFile returns entries for a file, newest first.
	ListByFile(ctx context.Context, fileID string) ([]model.AccessLogEntry, error)

	// ListByAccessor returns entries made by an address, newest first.
	ListByAccessor(ctx context.Context, address string) ([]model.AccessLogEntry, error)
}
