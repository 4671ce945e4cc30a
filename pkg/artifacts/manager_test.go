package artifacts

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// manualClock is a settable clock for TTL tests.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T, clock *manualClock) *Manager {
	t.Helper()
	m, err := NewManager(afero.NewMemMapFs(), "artifacts", nil, Options{
		Clock: clock.Now,
	})
	require.NoError(t, err)
	return m
}

func TestCreateAndGet(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	m := newTestManager(t, clock)

	name, err := m.Create([]byte("merged payload"))
	require.NoError(t, err)
	assert.Contains(t, name, "merged_")

	got, err := m.Get(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("merged payload"), got)
}

func TestCreateNamesAreUnique(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	m := newTestManager(t, clock)

	a, err := m.Create([]byte("a"))
	require.NoError(t, err)
	b, err := m.Create([]byte("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGetRejectsBadNames(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	m := newTestManager(t, clock)

	for _, name := range []string{
		"",
		"unknown",
		"merged_missing.pages",
		"../staging/escape",
		`merged_..\escape`,
		"merged_a/b.pages",
	} {
		_, err := m.Get(name)
		assert.ErrorIs(t, err, vaulterrors.ErrNotFound, "name %q", name)
	}
}

func TestArtifactTTL(t *testing.T) {
	clock := &manualClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := newTestManager(t, clock)

	name, err := m.Create([]byte("payload"))
	require.NoError(t, err)

	// Retrievable at t0+5m; the sweep leaves it alone.
	clock.Advance(5 * time.Minute)
	m.Sweep(clock.Now())
	_, err = m.Get(name)
	require.NoError(t, err)

	// Absent at t0+11m once the sweep has run.
	clock.Advance(6 * time.Minute)
	m.Sweep(clock.Now())
	_, err = m.Get(name)
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)
}

func TestSweepOnlySeesPublishedArtifacts(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	fs := afero.NewMemMapFs()
	m, err := NewManager(fs, "artifacts", nil, Options{Clock: clock.Now})
	require.NoError(t, err)

	// A file sitting in staging simulates an in-progress write; the
	// sweep must never touch it.
	staged := "artifacts/staging/merged_inflight.pages"
	require.NoError(t, afero.WriteFile(fs, staged, []byte("half"), 0o644))
	old := clock.Now().Add(-time.Hour)
	require.NoError(t, fs.Chtimes(staged, old, old))

	m.Sweep(clock.Now())

	exists, err := afero.Exists(fs, staged)
	require.NoError(t, err)
	assert.True(t, exists, "sweep must ignore staging")
}

func TestSweepSkipsFreshKeepsGoingOnFailure(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	m := newTestManager(t, clock)

	oldName, err := m.Create([]byte("old"))
	require.NoError(t, err)
	clock.Advance(DefaultTTL + time.Minute)
	freshName, err := m.Create([]byte("fresh"))
	require.NoError(t, err)

	m.Sweep(clock.Now())

	_, err = m.Get(oldName)
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)
	_, err = m.Get(freshName)
	assert.NoError(t, err)
}

func TestStartStop(t *testing.T) {
	clock := &manualClock{now: time.Now()}
	fs := afero.NewMemMapFs()
	m, err := NewManager(fs, "artifacts", nil, Options{
		Clock:         clock.Now,
		SweepInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	name, err := m.Create([]byte("payload"))
	require.NoError(t, err)

	m.Start()
	// Idempotent.
	m.Start()

	clock.Advance(DefaultTTL + time.Minute)
	require.Eventually(t, func() bool {
		_, err := m.Get(name)
		return err != nil
	}, time.Second, 5*time.Millisecond, "background sweep should reclaim the artifact")

	m.Stop()
	m.Stop()
}
