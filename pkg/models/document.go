package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// Document is a stored item with title/topic metadata, an owner, a
// public/private flag, and an opaque locator pointing at its page
// bundle in the blob store. The owner is immutable after creation.
type Document struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title          string    `gorm:"type:varchar(500);not null;index:idx_documents_title" json:"title"`
	Topic          string    `gorm:"type:varchar(500);not null;index:idx_documents_topic" json:"topic"`
	Public         bool      `gorm:"not null;default:false" json:"public"`
	OwnerID        string    `gorm:"type:varchar(36);not null;index:idx_documents_owner" json:"ownerId"`
	ContentLocator string    `gorm:"type:varchar(1000);not null" json:"contentLocator"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index:idx_documents_created,sort:desc" json:"createdAt"`
}

// TableName specifies the table name.
func (Document) TableName() string {
	return "documents"
}

// BeforeCreate hook to ensure required fields.
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.OwnerID == "" {
		return fmt.Errorf("owner_id is required")
	}
	if d.ContentLocator == "" {
		return fmt.Errorf("content_locator is required")
	}
	return nil
}

// GetDocument retrieves a document by ID.
func GetDocument(db *gorm.DB, id string) (*Document, error) {
	var d Document
	if err := db.First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vaulterrors.Newf(
				"GetDocument", vaulterrors.ErrNotFound, "document %s", id)
		}
		return nil, err
	}
	return &d, nil
}

// ListDocumentsByOwner returns all documents owned by the given user,
// newest first.
func ListDocumentsByOwner(db *gorm.DB, ownerID string) ([]Document, error) {
	var docs []Document
	err := db.Where("owner_id = ?", ownerID).
		Order("created_at DESC, id ASC").
		Find(&docs).Error
	return docs, err
}

// UpdateDocumentVisibility toggles the public flag. The caller is
// responsible for the ownership check.
func UpdateDocumentVisibility(db *gorm.DB, id string, public bool) error {
	res := db.Model(&Document{}).Where("id = ?", id).Update("public", public)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return vaulterrors.Newf(
			"UpdateDocumentVisibility", vaulterrors.ErrNotFound, "document %s", id)
	}
	return nil
}

// DeleteDocument removes the document and all share grants referencing
// it in a single transaction. Blob cleanup is the caller's concern and
// is sequenced after the transaction commits.
func DeleteDocument(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&ShareGrant{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Document{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return vaulterrors.Newf(
				"DeleteDocument", vaulterrors.ErrNotFound, "document %s", id)
		}
		return nil
	})
}
