package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ReportStatusActive   = "active"
	ReportStatusResolved = "resolved" // declared, no procedure drives it yet
	ReportStatusDeleted  = "deleted"
)

// Report is a user-submitted incident ("laporan"). Never hard-deleted.
type Report struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	ImageURL    *string   `gorm:"size:512" json:"image_url"`
	Location    string    `gorm:"size:256;not null;index:report_location_idx" json:"location"`
	Status      string    `gorm:"size:50;not null;default:'active';index:report_status_idx" json:"status"`
	IsValid     bool      `gorm:"not null;default:true" json:"is_valid"`
	CreatedByID uuid.UUID `gorm:"type:uuid;not null;index:report_created_by_idx" json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID" json:"-"`
}

// Tag names are stored lowercased and are globally unique.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type ReportTag struct {
	ReportID uint    `gorm:"primaryKey;autoIncrement:false;index:report_tag_report_idx" json:"report_id"`
	TagID    uint    `gorm:"primaryKey;autoIncrement:false;index:report_tag_tag_idx" json:"tag_id"`
	Report   *Report `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	Tag      *Tag    `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE" json:"-"`
}
