// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/and161185/sealvault/internal/model"
)

// LedgerRepository is the durable record of every stored file's ownership,
// access policy, hash, and blob location.
type LedgerRepository interface {
	// Upsert creates or fully replaces a record keyed by FileID.
	// Last write wins; there is no optimistic concurrency on the ledger.
	Upsert(ctx context.Context, rec *model.FileRecord) error

	// Get loads a record by file id.
	Get(ctx context.Context, fileID string) (*model.FileRecord, error)

	// Delete removes a record. Returns errs.ErrNotFound if absent.
	Delete(ctx context.Context, fileID string) error

	// SetAnchorTx records the on-chain transaction hash after anchoring.
	SetAnchorTx(ctx context.Context, fileID, txHash string) error

	// ListByUser returns records where address matches owner OR receiver,
	// newest first.
	ListByUser(ctx context.Context, address string) ([]model.FileRecord, error)

	// ListPublic returns records with a public grant, newest first.
	// A non-empty owner narrows the result to that owner's public files.
	ListPublic(ctx context.Context, owner string) ([]model.FileRecord, error)

	// ListAccessible returns the union of public records, records owned or
	// received by address, and records whose allowed roles intersect roles,
	// newest first. Callers re-check each row with the access evaluator.
	ListAccessible(ctx context.Context, address string, roles []string) ([]model.FileRecord, error)
}
