package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is immutable once created.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	ReportID  uint      `gorm:"not null;index:comment_report_idx" json:"report_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:comment_user_idx" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Report    *Report   `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
}

// Like has no surrogate key: the (report, user) pair is the vote.
type Like struct {
	ReportID  uint      `gorm:"primaryKey;autoIncrement:false;index:like_report_idx" json:"report_id"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey;index:like_user_idx" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Report    *Report   `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
}

// Share is an append-only log entry, not deduplicated.
type Share struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ReportID  uint      `gorm:"not null;index:share_report_idx" json:"report_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:share_user_idx" json:"user_id"`
	Platform  *string   `gorm:"size:50" json:"platform"` // whatsapp, telegram, ...
	CreatedAt time.Time `json:"created_at"`
	Report    *Report   `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
}
