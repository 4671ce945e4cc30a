package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive for the
	// whole test.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(ModelsToAutoMigrate()...))
	return db
}

func TestUserCreateAndLookup(t *testing.T) {
	db := newTestDB(t)

	u := User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&u).Error)
	assert.NotEmpty(t, u.ID)

	got, err := GetUserByEmail(db, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = GetUserByEmail(db, "nobody@example.com")
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)

	// Duplicate email violates the unique index.
	dup := User{Username: "alice2", Email: "alice@example.com"}
	assert.Error(t, db.Create(&dup).Error)
}

func TestDocumentCreateDefaultsAndLookup(t *testing.T) {
	db := newTestDB(t)

	owner := User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&owner).Error)

	d := Document{
		Title:          "Linear Algebra",
		Topic:          "Algebra",
		OwnerID:        owner.ID,
		ContentLocator: "local:docs/lin-alg.pages",
	}
	require.NoError(t, db.Create(&d).Error)
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.Public)
	assert.False(t, d.CreatedAt.IsZero())

	got, err := GetDocument(db, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Linear Algebra", got.Title)

	_, err = GetDocument(db, "missing")
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)

	// Owner and locator are required.
	assert.Error(t, db.Create(&Document{Title: "x", Topic: "y"}).Error)
}

func TestUpdateDocumentVisibility(t *testing.T) {
	db := newTestDB(t)

	owner := User{Username: "alice", Email: "alice@example.com"}
	require.NoError(t, db.Create(&owner).Error)
	d := Document{Title: "t", Topic: "p", OwnerID: owner.ID, ContentLocator: "loc"}
	require.NoError(t, db.Create(&d).Error)

	require.NoError(t, UpdateDocumentVisibility(db, d.ID, true))
	got, err := GetDocument(db, d.ID)
	require.NoError(t, err)
	assert.True(t, got.Public)

	err = UpdateDocumentVisibility(db, "missing", true)
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)
}

func TestDeleteDocumentCascadesShareGrants(t *testing.T) {
	db := newTestDB(t)

	owner := User{Username: "alice", Email: "alice@example.com"}
	grantee := User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&grantee).Error)

	d := Document{Title: "t", Topic: "p", OwnerID: owner.ID, ContentLocator: "loc"}
	require.NoError(t, db.Create(&d).Error)
	g := ShareGrant{DocumentID: d.ID, GrantorID: owner.ID, GranteeID: grantee.ID}
	require.NoError(t, db.Create(&g).Error)

	require.NoError(t, DeleteDocument(db, d.ID))

	_, err := GetDocument(db, d.ID)
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)

	grants, err := ListShareGrantsByGrantee(db, grantee.ID)
	require.NoError(t, err)
	assert.Empty(t, grants, "grants referencing a deleted document must not linger")

	err = DeleteDocument(db, d.ID)
	assert.ErrorIs(t, err, vaulterrors.ErrNotFound)
}

func TestShareGrantUniqueIndex(t *testing.T) {
	db := newTestDB(t)

	owner := User{Username: "alice", Email: "alice@example.com"}
	grantee := User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&grantee).Error)
	d := Document{Title: "t", Topic: "p", OwnerID: owner.ID, ContentLocator: "loc"}
	require.NoError(t, db.Create(&d).Error)

	first := ShareGrant{DocumentID: d.ID, GrantorID: owner.ID, GranteeID: grantee.ID}
	require.NoError(t, db.Create(&first).Error)

	second := ShareGrant{DocumentID: d.ID, GrantorID: owner.ID, GranteeID: grantee.ID}
	assert.Error(t, db.Create(&second).Error, "duplicate (document, grantee) must be rejected")

	exists, err := ShareGrantExists(db, d.ID, grantee.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestShareGrantListOrdering(t *testing.T) {
	db := newTestDB(t)

	owner := User{Username: "alice", Email: "alice@example.com"}
	grantee := User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&grantee).Error)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		d := Document{Title: "t", Topic: "p", OwnerID: owner.ID, ContentLocator: "loc"}
		require.NoError(t, db.Create(&d).Error)
		g := ShareGrant{
			DocumentID: d.ID,
			GrantorID:  owner.ID,
			GranteeID:  grantee.ID,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&g).Error)
	}

	grants, err := ListShareGrantsByGrantee(db, grantee.ID)
	require.NoError(t, err)
	require.Len(t, grants, 3)
	for i := 1; i < len(grants); i++ {
		assert.False(t, grants[i-1].CreatedAt.Before(grants[i].CreatedAt),
			"grants must be ordered newest first")
	}

	byGrantor, err := ListShareGrantsByGrantor(db, owner.ID)
	require.NoError(t, err)
	assert.Len(t, byGrantor, 3)
}
