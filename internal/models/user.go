package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is created on first sign-in. IsAdmin is only ever flipped by another admin.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         *string   `gorm:"size:255" json:"name"`
	Email        string    `gorm:"not null;size:255;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Image        *string   `gorm:"size:512" json:"image"`
	Bio          *string   `gorm:"type:text" json:"bio"`
	Location     *string   `gorm:"size:255" json:"location"`
	JoinedAt     time.Time `gorm:"not null" json:"joined_at"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = time.Now().UTC()
	}
	return nil
}

// Summary is the public projection attached to reports, comments and violations.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{ID: u.ID, Name: u.Name, Image: u.Image, Location: u.Location}
}

type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Name     *string   `json:"name"`
	Image    *string   `json:"image"`
	Location *string   `json:"location,omitempty"`
}

// UserProfile is created lazily on the first profile update that touches it.
type UserProfile struct {
	ID          uint                        `gorm:"primaryKey" json:"id"`
	UserID      uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Communities datatypes.JSONSlice[string] `gorm:"not null" json:"communities"`
	Notes       *string                     `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	User        *User                       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
