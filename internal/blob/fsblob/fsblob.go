// Package fsblob implements the blob store on the local filesystem, storing
// two sibling files per payload: <fileID>.enc and <fileID>.iv.
package fsblob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/and161185/sealvault/internal/errs"
)

const (
	encSuffix = ".enc"
	ivSuffix  = ".iv"
)

// Store writes artifact pairs under a single base directory.
type Store struct {
	dir string
}

// New creates the base directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("fsblob: empty base dir")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("fsblob: mkdir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Put writes both artifacts via temp files and renames them into place, so a
// locator is only returned once both are durable. The locator is the enc
// file name relative to the base dir.
func (s *Store) Put(ctx context.Context, fileID string, iv, ciphertext []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := sanitize(fileID)
	if err != nil {
		return "", err
	}
	encPath := filepath.Join(s.dir, name+encSuffix)
	ivPath := filepath.Join(s.dir, name+ivSuffix)

	if err := writeAtomic(encPath, ciphertext); err != nil {
		return "", err
	}
	if err := writeAtomic(ivPath, iv); err != nil {
		// keep the pair consistent: never leave a ciphertext without its iv
		_ = os.Remove(encPath)
		return "", err
	}
	return name + encSuffix, nil
}

// Get loads the artifact pair behind a locator.
func (s *Store) Get(ctx context.Context, locator string) (iv, ciphertext []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	name, err := sanitize(strings.TrimSuffix(locator, encSuffix))
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err = readArtifact(filepath.Join(s.dir, name+encSuffix))
	if err != nil {
		return nil, nil, err
	}
	iv, err = readArtifact(filepath.Join(s.dir, name+ivSuffix))
	if err != nil {
		return nil, nil, err
	}
	return iv, ciphertext, nil
}

// Delete removes both artifacts; absence is not an error.
func (s *Store) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := sanitize(strings.TrimSuffix(locator, encSuffix))
	if err != nil {
		return err
	}
	if err := removeIfExists(filepath.Join(s.dir, name+encSuffix)); err != nil {
		return err
	}
	return removeIfExists(filepath.Join(s.dir, name+ivSuffix))
}

func readArtifact(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fsblob: %s: %w", filepath.Base(path), errs.ErrNotFound)
	}
	return b, err
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// sanitize rejects ids that would escape the base dir.
func sanitize(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("fsblob: invalid id %q", id)
	}
	return id, nil
}
