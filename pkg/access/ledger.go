package access

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/papervault-io/papervault/pkg/models"
	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// Ledger records and enforces uniqueness of share grants.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a Ledger backed by the given database.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// GrantWithDetails pairs a grant with the document and counterpart user
// it references, for the listing endpoints.
type GrantWithDetails struct {
	Grant    models.ShareGrant
	Document models.Document
	// Counterpart is the grantor for GrantedTo listings and the
	// grantee for GrantedBy listings.
	Counterpart models.User
}

// Grant creates a share grant from the document owner to the user with
// the given email. The uniqueness of (document, grantee) is enforced by
// a single insert-or-ignore against the unique index, never by a
// read-then-write check.
func (l *Ledger) Grant(ctx context.Context, ownerID, documentID, granteeEmail string) (*models.ShareGrant, error) {
	const op = "Grant"
	db := l.db.WithContext(ctx)

	doc, err := models.GetDocument(db, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, vaulterrors.Newf(op, vaulterrors.ErrForbidden,
			"only the owner may share document %s", documentID)
	}

	grantee, err := models.GetUserByEmail(db, granteeEmail)
	if err != nil {
		return nil, err
	}
	if grantee.ID == ownerID {
		return nil, vaulterrors.New(op, vaulterrors.ErrValidation,
			"cannot share a document with its owner")
	}

	grant := models.ShareGrant{
		DocumentID: documentID,
		GrantorID:  ownerID,
		GranteeID:  grantee.ID,
	}
	res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&grant)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, vaulterrors.Newf(op, vaulterrors.ErrConflict,
			"document %s is already shared with %s", documentID, granteeEmail)
	}
	return &grant, nil
}

// Revoke removes a grant. Only the grantor may revoke it.
func (l *Ledger) Revoke(ctx context.Context, requesterID, grantID string) error {
	const op = "Revoke"
	db := l.db.WithContext(ctx)

	grant, err := models.GetShareGrant(db, grantID)
	if err != nil {
		return err
	}
	if grant.GrantorID != requesterID {
		return vaulterrors.Newf(op, vaulterrors.ErrForbidden,
			"only the grantor may revoke share grant %s", grantID)
	}
	return db.Delete(&models.ShareGrant{}, "id = ?", grantID).Error
}

// GrantedTo lists grants where the user is the grantee, newest first,
// with document and grantor details.
func (l *Ledger) GrantedTo(ctx context.Context, userID string) ([]GrantWithDetails, error) {
	grants, err := models.ListShareGrantsByGrantee(l.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return l.attachDetails(ctx, grants, func(g models.ShareGrant) string { return g.GrantorID })
}

// GrantedBy lists grants where the user is the grantor, newest first,
// with document and grantee details.
func (l *Ledger) GrantedBy(ctx context.Context, userID string) ([]GrantWithDetails, error) {
	grants, err := models.ListShareGrantsByGrantor(l.db.WithContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return l.attachDetails(ctx, grants, func(g models.ShareGrant) string { return g.GranteeID })
}

func (l *Ledger) attachDetails(
	ctx context.Context,
	grants []models.ShareGrant,
	counterpart func(models.ShareGrant) string,
) ([]GrantWithDetails, error) {
	db := l.db.WithContext(ctx)
	out := make([]GrantWithDetails, 0, len(grants))
	for _, g := range grants {
		doc, err := models.GetDocument(db, g.DocumentID)
		if err != nil {
			// Grants are deleted with their document, so this only
			// happens if a delete raced the listing. Skip the row.
			continue
		}
		user, err := models.GetUser(db, counterpart(g))
		if err != nil {
			continue
		}
		out = append(out, GrantWithDetails{Grant: g, Document: *doc, Counterpart: *user})
	}
	return out, nil
}
