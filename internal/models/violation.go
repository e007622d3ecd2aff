package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ViolationStatusPending  = "pending"
	ViolationStatusReviewed = "reviewed"
	ViolationStatusResolved = "resolved" // declared, unreachable
)

// ReportViolation is a flag raised by a user against a report, queued for admin review.
type ReportViolation struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ReportID   uint       `gorm:"not null;index:violation_report_idx" json:"report_id"`
	ReportedBy uuid.UUID  `gorm:"type:uuid;not null;index" json:"reported_by_id"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	Status     string     `gorm:"size:50;not null;default:'pending';index:violation_status_idx" json:"status"`
	ReviewedBy *uuid.UUID `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at"`
	Report     *Report    `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE" json:"-"`
	Reporter   *User      `gorm:"foreignKey:ReportedBy" json:"-"`
	Reviewer   *User      `gorm:"foreignKey:ReviewedBy" json:"-"`
}
