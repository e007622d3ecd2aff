package services

import (
	"github.com/google/uuid"
	"github.com/laporinpolisi/laporin-backend/internal/models"
	"gorm.io/gorm"
)

// activeReports hides soft-deleted and resolved reports from feeds.
func activeReports(db *gorm.DB) *gorm.DB {
	return db.Where("reports.status = ?", models.ReportStatusActive)
}

func ownedBy(userID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("reports.created_by_id = ?", userID)
	}
}

func paginate(limit, offset int) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit).Offset(offset)
	}
}
