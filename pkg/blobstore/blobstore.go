// Package blobstore defines the narrow content storage capability the
// vault consumes. Implementations store opaque byte payloads under
// locators they mint themselves; callers treat locators as opaque.
package blobstore

import "context"

// Store is the put/get/delete capability backing document content.
// All methods honor context cancellation and deadlines; callers bound
// fetches with a timeout and surface expiry as an upstream failure.
type Store interface {
	// Put stores the payload and returns an opaque locator for it.
	Put(ctx context.Context, payload []byte) (locator string, err error)

	// Get retrieves the payload for a locator.
	Get(ctx context.Context, locator string) ([]byte, error)

	// Delete removes the payload for a locator. Deleting an unknown
	// locator is not an error.
	Delete(ctx context.Context, locator string) error
}
