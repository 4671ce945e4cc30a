package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// ShareGrant records that the owner of a document granted view access
// to another user. At most one grant exists per (document, grantee)
// pair; the unique index enforces this at insert time.
type ShareGrant struct {
	ID         string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	DocumentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_share_grants_doc_grantee,priority:1" json:"documentId"`
	GrantorID  string    `gorm:"type:varchar(36);not null;index:idx_share_grants_grantor" json:"grantorId"`
	GranteeID  string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_share_grants_doc_grantee,priority:2;index:idx_share_grants_grantee" json:"granteeId"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name.
func (ShareGrant) TableName() string {
	return "share_grants"
}

// BeforeCreate hook to ensure required fields.
func (g *ShareGrant) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	if g.DocumentID == "" || g.GrantorID == "" || g.GranteeID == "" {
		return fmt.Errorf("document_id, grantor_id and grantee_id are required")
	}
	return nil
}

// GetShareGrant retrieves a grant by ID.
func GetShareGrant(db *gorm.DB, id string) (*ShareGrant, error) {
	var g ShareGrant
	if err := db.First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vaulterrors.Newf(
				"GetShareGrant", vaulterrors.ErrNotFound, "share grant %s", id)
		}
		return nil, err
	}
	return &g, nil
}

// ShareGrantExists reports whether a grant for (document, grantee)
// exists.
func ShareGrantExists(db *gorm.DB, documentID, granteeID string) (bool, error) {
	var count int64
	err := db.Model(&ShareGrant{}).
		Where("document_id = ? AND grantee_id = ?", documentID, granteeID).
		Count(&count).Error
	return count > 0, err
}

// ListShareGrantsByGrantee returns grants where the user is the
// grantee, newest first.
func ListShareGrantsByGrantee(db *gorm.DB, granteeID string) ([]ShareGrant, error) {
	var grants []ShareGrant
	err := db.Where("grantee_id = ?", granteeID).
		Order("created_at DESC, id ASC").
		Find(&grants).Error
	return grants, err
}

// ListShareGrantsByGrantor returns grants where the user is the
// grantor, newest first.
func ListShareGrantsByGrantor(db *gorm.DB, grantorID string) ([]ShareGrant, error) {
	var grants []ShareGrant
	err := db.Where("grantor_id = ?", grantorID).
		Order("created_at DESC, id ASC").
		Find(&grants).Error
	return grants, err
}
