// Package merge implements the ordered merge pipeline: authorize every
// requested document, fetch their page bundles concurrently, and
// concatenate pages in exactly the caller's requested order.
package merge

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/papervault-io/papervault/pkg/access"
	"github.com/papervault-io/papervault/pkg/artifacts"
	"github.com/papervault-io/papervault/pkg/blobstore"
	"github.com/papervault-io/papervault/pkg/models"
	"github.com/papervault-io/papervault/pkg/pagebundle"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// DefaultFetchTimeout bounds each blob fetch when no timeout is
// configured.
const DefaultFetchTimeout = 30 * time.Second

// Engine produces one concatenated artifact from an ordered list of
// document IDs.
type Engine struct {
	db        *gorm.DB
	resolver  *access.Resolver
	blobs     blobstore.Store
	artifacts *artifacts.Manager
	timeout   time.Duration
	logger    hclog.Logger
}

// NewEngine creates a merge engine. fetchTimeout bounds each individual
// blob fetch; zero means DefaultFetchTimeout.
func NewEngine(
	db *gorm.DB,
	resolver *access.Resolver,
	blobs blobstore.Store,
	mgr *artifacts.Manager,
	fetchTimeout time.Duration,
	logger hclog.Logger,
) *Engine {
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Engine{
		db:        db,
		resolver:  resolver,
		blobs:     blobs,
		artifacts: mgr,
		timeout:   fetchTimeout,
		logger:    logger.Named("merge"),
	}
}

// Merge authorizes, fetches, and concatenates the documents in the
// caller's order, returning the published artifact name. Duplicate IDs
// are allowed; each occurrence contributes its pages again. Any
// failure aborts the whole operation before an artifact exists.
func (e *Engine) Merge(ctx context.Context, userID string, ids []string) (string, error) {
	const op = "Merge"

	if len(ids) == 0 {
		return "", vaulterrors.New(op, vaulterrors.ErrValidation, "no documents selected")
	}

	// Resolve and authorize everything up front so an unauthorized ID
	// late in the list fails before any fetch work happens.
	docs := make([]*models.Document, len(ids))
	for i, id := range ids {
		doc, err := models.GetDocument(e.db.WithContext(ctx), id)
		if err != nil {
			return "", err
		}
		ok, err := e.resolver.CanAccess(ctx, userID, doc)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", vaulterrors.Newf(op, vaulterrors.ErrForbidden,
				"not authorized for document %s", id)
		}
		docs[i] = doc
	}

	// Fetch concurrently; each payload lands in the slot matching its
	// position in the caller's list, never its arrival order. The
	// first failure cancels the remaining fetches.
	payloads := make([][]byte, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(gctx, e.timeout)
			defer cancel()
			payload, err := e.blobs.Get(fetchCtx, doc.ContentLocator)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) ||
					errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
					return vaulterrors.Newf(op, vaulterrors.ErrUpstreamFetch,
						"fetch of document %s timed out", doc.ID)
				}
				if errors.Is(err, vaulterrors.ErrNotFound) {
					// The record exists but its blob is gone: an
					// upstream inconsistency, not a caller mistake.
					return vaulterrors.Newf(op, vaulterrors.ErrUpstreamFetch,
						"content of document %s is missing upstream", doc.ID)
				}
				return vaulterrors.Newf(op, vaulterrors.ErrUpstreamFetch,
					"fetch of document %s failed: %v", doc.ID, err)
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	// Decode and concatenate in slot order, guaranteeing the output
	// page order matches the requested document order regardless of
	// fetch completion order.
	bundles := make([]*pagebundle.Bundle, len(payloads))
	for i, payload := range payloads {
		bundle, err := pagebundle.Decode(payload)
		if err != nil {
			return "", vaulterrors.Newf(op, vaulterrors.ErrParse,
				"document %s is not a valid page container", docs[i].ID)
		}
		bundles[i] = bundle
	}
	merged := pagebundle.Merge(bundles...)

	payload, err := merged.Encode()
	if err != nil {
		return "", vaulterrors.Newf(op, vaulterrors.ErrInternal,
			"failed to encode merged container: %v", err)
	}
	name, err := e.artifacts.Create(payload)
	if err != nil {
		return "", err
	}

	e.logger.Info("merge complete",
		"user", userID,
		"documents", len(ids),
		"pages", merged.PageCount(),
		"artifact", name)
	return name, nil
}
