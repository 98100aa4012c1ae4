// Package blob defines storage of ciphertext/iv artifact pairs behind an
// opaque locator. The ledger stores the locator and never interprets it.
package blob

import "context"

// Store persists and retrieves encrypted payloads. Put must not return a
// locator before both artifacts are durable.
type Store interface {
	// Put persists iv and ciphertext for a file and returns an opaque locator.
	Put(ctx context.Context, fileID string, iv, ciphertext []byte) (locator string, err error)

	// Get loads the iv and ciphertext behind a locator. Returns
	// errs.ErrNotFound if either artifact is missing.
	Get(ctx context.Context, locator string) (iv, ciphertext []byte, err error)

	// Delete removes both artifacts. Missing artifacts are not an error;
	// delete is used for administrative cleanup only.
	Delete(ctx context.Context, locator string) error
}
