package local

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(afero.NewMemMapFs(), "blobs", nil)
	require.NoError(t, err)
	return s
}

func TestPutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	locator, err := s.Put(ctx, []byte("payload"))
	require.NoError(t, err)
	assert.Contains(t, locator, "local:")

	got, err := s.Get(ctx, locator)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	require.NoError(t, s.Delete(ctx, locator))
	_, err = s.Get(ctx, locator)
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, s.Delete(ctx, locator))
}

func TestLocatorsAreUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.Put(ctx, []byte("a"))
	require.NoError(t, err)
	b, err := s.Put(ctx, []byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestMalformedLocators(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, locator := range []string{
		"",
		"local:",
		"s3:bucket/key",
		"local:../escape",
		"local:a/b",
	} {
		_, err := s.Get(ctx, locator)
		assert.ErrorIs(t, err, vaulterrors.ErrValidation, "locator %q", locator)
	}
}

func TestCanceledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, []byte("x"))
	assert.ErrorIs(t, err, vaulterrors.ErrUpstreamFetch)
}
