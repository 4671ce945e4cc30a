package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/papervault-io/papervault/pkg/vaulterrors"
)

// User is a registered identity. Ownership and share grants reference
// users by ID; grants are created against the unique email address.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(100);not null" json:"username"`
	Email     string    `gorm:"type:varchar(320);not null;uniqueIndex:idx_users_email" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name.
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook to ensure the ID is set.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}

// GetUser retrieves a user by ID.
func GetUser(db *gorm.DB, id string) (*User, error) {
	var u User
	if err := db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vaulterrors.Newf("GetUser", vaulterrors.ErrNotFound, "user %s", id)
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email address.
func GetUserByEmail(db *gorm.DB, email string) (*User, error) {
	var u User
	if err := db.First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, vaulterrors.Newf(
				"GetUserByEmail", vaulterrors.ErrNotFound, "no user with email %s", email)
		}
		return nil, err
	}
	return &u, nil
}
