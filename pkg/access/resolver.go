// Package access centralizes every visibility decision in the vault.
// The Resolver predicate and the share grant Ledger are the only code
// allowed to answer "may this user see this document".
package access

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/papervault-io/papervault/pkg/models"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// Resolver computes document visibility and the accessible,
// query-filtered result set for a user.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a Resolver backed by the given database.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// CanAccess reports whether the user may view the document: it is
// public, the user owns it, or a share grant exists. Pure predicate, no
// side effects. An unknown user ID simply owns nothing and holds no
// grants.
func (r *Resolver) CanAccess(ctx context.Context, userID string, doc *models.Document) (bool, error) {
	if doc.Public || doc.OwnerID == userID {
		return true, nil
	}
	return models.ShareGrantExists(r.db.WithContext(ctx), doc.ID, userID)
}

// Search returns the documents in the user's accessible set whose title
// or topic contains the query, case-insensitively. Ordering is
// deterministic: creation time descending, ties broken by ID ascending.
func (r *Resolver) Search(ctx context.Context, userID, query string) ([]models.Document, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, vaulterrors.New("Search", vaulterrors.ErrValidation, "query is required")
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	db := r.db.WithContext(ctx)

	var docs []models.Document
	err := db.
		Where(
			db.Where("public = ?", true).
				Or("owner_id = ?", userID).
				Or("id IN (?)", db.Model(&models.ShareGrant{}).
					Select("document_id").
					Where("grantee_id = ?", userID)),
		).
		Where(
			db.Where("LOWER(title) LIKE ? ESCAPE '\\'", pattern).
				Or("LOWER(topic) LIKE ? ESCAPE '\\'", pattern),
		).
		Order("created_at DESC, id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// escapeLike escapes LIKE metacharacters so the query is treated as a
// literal substring.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`%`, `\%`,
		`_`, `\_`,
	)
	return replacer.Replace(s)
}
