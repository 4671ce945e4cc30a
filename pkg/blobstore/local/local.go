// Package local provides a filesystem-backed blob store.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

const locatorPrefix = "local:"

// Store keeps blobs as files under a base directory. Locators have the
// form "local:<name>" where name is a generated UUID.
type Store struct {
	fs     afero.Fs
	dir    string
	logger hclog.Logger
}

// New creates a local blob store rooted at dir, creating it if needed.
func New(fs afero.Fs, dir string, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, logger: logger.Named("blobstore.local")}, nil
}

// Put stores the payload under a generated name.
func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", vaulterrors.New("Put", vaulterrors.ErrUpstreamFetch, err.Error())
	}
	name := uuid.New().String()
	if err := afero.WriteFile(s.fs, filepath.Join(s.dir, name), payload, 0o644); err != nil {
		return "", vaulterrors.Newf("Put", vaulterrors.ErrUpstreamFetch,
			"failed to write blob: %v", err)
	}
	return locatorPrefix + name, nil
}

// Get retrieves the payload for a locator.
func (s *Store) Get(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, vaulterrors.New("Get", vaulterrors.ErrUpstreamFetch, err.Error())
	}
	name, err := s.parseLocator(locator)
	if err != nil {
		return nil, err
	}
	payload, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.Newf("Get", vaulterrors.ErrNotFound, "blob %s", locator)
		}
		return nil, vaulterrors.Newf("Get", vaulterrors.ErrUpstreamFetch,
			"failed to read blob %s: %v", locator, err)
	}
	return payload, nil
}

// Delete removes the payload for a locator. Unknown locators are not an
// error.
func (s *Store) Delete(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return vaulterrors.New("Delete", vaulterrors.ErrUpstreamFetch, err.Error())
	}
	name, err := s.parseLocator(locator)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return vaulterrors.Newf("Delete", vaulterrors.ErrUpstreamFetch,
			"failed to delete blob %s: %v", locator, err)
	}
	return nil
}

// parseLocator validates the locator and extracts the file name,
// rejecting anything that could escape the base directory.
func (s *Store) parseLocator(locator string) (string, error) {
	name, ok := strings.CutPrefix(locator, locatorPrefix)
	if !ok || name == "" {
		return "", vaulterrors.Newf("parseLocator", vaulterrors.ErrValidation,
			"malformed locator %q", locator)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", vaulterrors.Newf("parseLocator", vaulterrors.ErrValidation,
			"malformed locator %q", locator)
	}
	return name, nil
}
