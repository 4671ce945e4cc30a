// Package mock provides an in-memory blob store for tests, with hooks
// to inject per-locator latency and failures.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// Store is a thread-safe in-memory blob store.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
	next  int

	// GetDelay, when set, returns an artificial latency for a locator.
	// Used to simulate reordered fetch completion.
	GetDelay func(locator string) time.Duration

	// GetErr, when set, returns a non-nil error to fail a fetch.
	GetErr func(locator string) error

	// PutErr, when non-nil, fails every Put.
	PutErr error
}

// New creates an empty mock store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Seed stores a payload under an explicit locator.
func (s *Store) Seed(locator string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[locator] = payload
}

// Put stores the payload under a generated locator.
func (s *Store) Put(ctx context.Context, payload []byte) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	locator := fmt.Sprintf("mock:blob-%d", s.next)
	s.blobs[locator] = payload
	return locator, nil
}

// Get retrieves a payload, honoring the configured delay, failure hook,
// and context cancellation.
func (s *Store) Get(ctx context.Context, locator string) ([]byte, error) {
	if s.GetDelay != nil {
		select {
		case <-time.After(s.GetDelay(locator)):
		case <-ctx.Done():
			return nil, vaulterrors.New("Get", vaulterrors.ErrUpstreamFetch, ctx.Err().Error())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, vaulterrors.New("Get", vaulterrors.ErrUpstreamFetch, err.Error())
	}
	if s.GetErr != nil {
		if err := s.GetErr(locator); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, ok := s.blobs[locator]
	if !ok {
		return nil, vaulterrors.Newf("Get", vaulterrors.ErrNotFound, "blob %s", locator)
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Delete removes a payload. Unknown locators are not an error.
func (s *Store) Delete(ctx context.Context, locator string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, locator)
	return nil
}

// Len reports how many blobs are stored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.blobs)
}
