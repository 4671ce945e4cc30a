package merge

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/papervault-io/papervault/pkg/access"
	"github.com/papervault-io/papervault/pkg/artifacts"
	"github.com/papervault-io/papervault/pkg/blobstore/mock"
	"github.com/papervault-io/papervault/pkg/models"
	"github.com/papervault-io/papervault/pkg/pagebundle"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

type fixture struct {
	db     *gorm.DB
	blobs  *mock.Store
	fs     afero.Fs
	mgr    *artifacts.Manager
	engine *Engine

	alice *models.User
	bob   *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.ModelsToAutoMigrate()...))

	blobs := mock.New()
	fs := afero.NewMemMapFs()
	mgr, err := artifacts.NewManager(fs, "artifacts", nil, artifacts.Options{})
	require.NoError(t, err)

	f := &fixture{
		db:     db,
		blobs:  blobs,
		fs:     fs,
		mgr:    mgr,
		engine: NewEngine(db, access.NewResolver(db), blobs, mgr, time.Second, nil),
	}

	f.alice = &models.User{Username: "alice", Email: "alice@example.com"}
	f.bob = &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(f.alice).Error)
	require.NoError(t, db.Create(f.bob).Error)
	return f
}

// addDocument seeds a page bundle in the blob store and creates its
// record.
func (f *fixture) addDocument(t *testing.T, owner *models.User, title string, public bool, pages []string) *models.Document {
	t.Helper()
	payload, err := pagebundle.New(pages).Encode()
	require.NoError(t, err)
	locator := "mock:" + title
	f.blobs.Seed(locator, payload)

	d := models.Document{
		Title:          title,
		Topic:          "Topic " + title,
		Public:         public,
		OwnerID:        owner.ID,
		ContentLocator: locator,
	}
	require.NoError(t, f.db.Create(&d).Error)
	return &d
}

func (f *fixture) artifactPages(t *testing.T, name string) []string {
	t.Helper()
	payload, err := f.mgr.Get(name)
	require.NoError(t, err)
	bundle, err := pagebundle.Decode(payload)
	require.NoError(t, err)
	return bundle.Pages
}

func TestMergeEmptyListIsRejected(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.Merge(context.Background(), f.alice.ID, nil)
	assert.ErrorIs(t, err, vaulterrors.ErrValidation)
}

func TestMergeConcatenatesInRequestOrder(t *testing.T) {
	f := newFixture(t)

	x := f.addDocument(t, f.alice, "X", true, []string{"x1", "x2"})
	y := f.addDocument(t, f.bob, "Y", false, []string{"y1", "y2", "y3"})
	require.NoError(t, f.db.Create(&models.ShareGrant{
		DocumentID: y.ID, GrantorID: f.bob.ID, GranteeID: f.alice.ID,
	}).Error)

	name, err := f.engine.Merge(context.Background(), f.alice.ID, []string{y.ID, x.ID})
	require.NoError(t, err)

	pages := f.artifactPages(t, name)
	assert.Equal(t, []string{"y1", "y2", "y3", "x1", "x2"}, pages,
		"pages from Y must occupy the first contiguous block")
}

func TestMergeOrderIndependentOfFetchCompletion(t *testing.T) {
	f := newFixture(t)

	a := f.addDocument(t, f.alice, "A", true, []string{"a1"})
	b := f.addDocument(t, f.alice, "B", true, []string{"b1"})
	c := f.addDocument(t, f.alice, "C", true, []string{"c1"})

	// Make the first slot the slowest and the last the fastest so
	// arrival order is the reverse of request order.
	f.blobs.GetDelay = func(locator string) time.Duration {
		switch locator {
		case a.ContentLocator:
			return 60 * time.Millisecond
		case b.ContentLocator:
			return 30 * time.Millisecond
		default:
			return 0
		}
	}

	name, err := f.engine.Merge(context.Background(), f.alice.ID, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1", "c1"}, f.artifactPages(t, name))
}

func TestMergeAllowsDuplicateIDs(t *testing.T) {
	f := newFixture(t)
	x := f.addDocument(t, f.alice, "X", true, []string{"x1", "x2"})

	name, err := f.engine.Merge(context.Background(), f.alice.ID, []string{x.ID, x.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"x1", "x2", "x1", "x2"}, f.artifactPages(t, name))
}

func TestMergeUnknownDocumentAborts(t *testing.T) {
	f := newFixture(t)
	x := f.addDocument(t, f.alice, "X", true, []string{"x1"})

	_, err := f.engine.Merge(context.Background(), f.alice.ID, []string{x.ID, "missing"})
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)
	assert.ErrorContains(t, err, "missing")
}

func TestMergeUnauthorizedDocumentAborts(t *testing.T) {
	f := newFixture(t)
	x := f.addDocument(t, f.alice, "X", true, []string{"x1"})
	secret := f.addDocument(t, f.bob, "Secret", false, []string{"s1"})

	_, err := f.engine.Merge(context.Background(), f.alice.ID, []string{x.ID, secret.ID})
	assert.ErrorIs(t, err, vaulterrors.ErrForbidden)
	assert.ErrorContains(t, err, secret.ID)
}

func TestMergeFetchFailureAbortsWithoutArtifact(t *testing.T) {
	f := newFixture(t)

	a := f.addDocument(t, f.alice, "A", true, []string{"a1"})
	b := f.addDocument(t, f.alice, "B", true, []string{"b1"})
	c := f.addDocument(t, f.alice, "C", true, []string{"c1"})

	f.blobs.GetErr = func(locator string) error {
		if locator == b.ContentLocator {
			return vaulterrors.New("Get", vaulterrors.ErrUpstreamFetch, "injected failure")
		}
		return nil
	}

	_, err := f.engine.Merge(context.Background(), f.alice.ID, []string{a.ID, b.ID, c.ID})
	assert.ErrorIs(t, err, vaulterrors.ErrUpstreamFetch)
	assert.ErrorContains(t, err, b.ID)
	assertNoArtifacts(t, f)
}

func TestMergeFetchTimeoutSurfacesAsUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	slow := f.addDocument(t, f.alice, "Slow", true, []string{"s1"})

	f.blobs.GetDelay = func(string) time.Duration { return time.Hour }
	f.engine = NewEngine(f.db, access.NewResolver(f.db), f.blobs, f.mgr, 20*time.Millisecond, nil)

	_, err := f.engine.Merge(context.Background(), f.alice.ID, []string{slow.ID})
	assert.ErrorIs(t, err, vaulterrors.ErrUpstreamFetch)
	assertNoArtifacts(t, f)
}

func TestMergeUnparsablePayloadAborts(t *testing.T) {
	f := newFixture(t)

	good := f.addDocument(t, f.alice, "Good", true, []string{"g1"})
	bad := models.Document{
		Title: "Bad", Topic: "t", Public: true,
		OwnerID: f.alice.ID, ContentLocator: "mock:bad",
	}
	f.blobs.Seed("mock:bad", []byte("not a page container"))
	require.NoError(t, f.db.Create(&bad).Error)

	_, err := f.engine.Merge(context.Background(), f.alice.ID, []string{good.ID, bad.ID})
	assert.ErrorIs(t, err, vaulterrors.ErrParse)
	assert.ErrorContains(t, err, bad.ID)
	assertNoArtifacts(t, f)
}

func TestMergeMissingBlobIsUpstreamFailure(t *testing.T) {
	f := newFixture(t)

	orphan := models.Document{
		Title: "Orphan", Topic: "t", Public: true,
		OwnerID: f.alice.ID, ContentLocator: "mock:gone",
	}
	require.NoError(t, f.db.Create(&orphan).Error)

	_, err := f.engine.Merge(context.Background(), f.alice.ID, []string{orphan.ID})
	assert.ErrorIs(t, err, vaulterrors.ErrUpstreamFetch)
}

// assertNoArtifacts verifies the failed merge published nothing, not
// even partially.
func assertNoArtifacts(t *testing.T, f *fixture) {
	t.Helper()
	for _, dir := range []string{"artifacts/public", "artifacts/staging"} {
		infos, err := afero.ReadDir(f.fs, dir)
		require.NoError(t, err)
		assert.Empty(t, infos, "%s should be empty after an aborted merge", dir)
	}
}
