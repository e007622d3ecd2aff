package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/laporinpolisi/laporin-backend/internal/apperror"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/models"
	"gorm.io/gorm"
)

type ViolationReport struct {
	ID        uint                `json:"id"`
	Title     string              `json:"title"`
	Status    string              `json:"status"`
	CreatedBy *models.UserSummary `json:"created_by"`
}

type ViolationView struct {
	ID         uint                `json:"id"`
	ReportID   uint                `json:"report_id"`
	Reason     string              `json:"reason"`
	Status     string              `json:"status"`
	ReviewedBy *uuid.UUID          `json:"reviewed_by"`
	ReviewedAt *time.Time          `json:"reviewed_at"`
	CreatedAt  time.Time           `json:"created_at"`
	Report     *ViolationReport    `json:"report"`
	ReportedBy *models.UserSummary `json:"reported_by"`
}

func newViolationView(v *models.ReportViolation) ViolationView {
	view := ViolationView{
		ID:         v.ID,
		ReportID:   v.ReportID,
		Reason:     v.Reason,
		Status:     v.Status,
		ReviewedBy: v.ReviewedBy,
		ReviewedAt: v.ReviewedAt,
		CreatedAt:  v.CreatedAt,
		ReportedBy: v.Reporter.Summary(),
	}
	if v.Report != nil {
		view.Report = &ViolationReport{
			ID:        v.Report.ID,
			Title:     v.Report.Title,
			Status:    v.Report.Status,
			CreatedBy: v.Report.CreatedBy.Summary(),
		}
	}
	return view
}

var validViolationStatuses = map[string]bool{
	models.ViolationStatusPending:  true,
	models.ViolationStatusReviewed: true,
	models.ViolationStatusResolved: true,
}

var validReviewActions = map[string]bool{
	dto.ActionDeletePost: true,
	dto.ActionDismiss:    true,
	dto.ActionWarnUser:   true,
}

// ModerationService holds the admin-only procedures. Every method re-checks the
// caller's role, route middleware notwithstanding.
type ModerationService struct {
	db *gorm.DB
}

func NewModerationService(db *gorm.DB) *ModerationService {
	return &ModerationService{db: db}
}

func (s *ModerationService) ListViolations(ctx context.Context, caller identity.Caller, status string, limit, offset int) ([]ViolationView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if status != "" && !validViolationStatuses[status] {
		return nil, apperror.Validation("status", "status must be pending, reviewed or resolved")
	}
	limit, offset, err := pageBounds(limit, offset, DefaultPageLimit, MaxPageLimit)
	if err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).
		Preload("Report.CreatedBy").
		Preload("Reporter")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var violations []models.ReportViolation
	if err := query.Order("created_at DESC, id DESC").Scopes(paginate(limit, offset)).Find(&violations).Error; err != nil {
		return nil, apperror.Internal("failed to list violations", err)
	}

	views := make([]ViolationView, len(violations))
	for i := range violations {
		views[i] = newViolationView(&violations[i])
	}
	return views, nil
}

// ReviewViolation moves a pending violation to reviewed exactly once. With
// delete_post the flagged report is soft-deleted in the same transaction.
func (s *ModerationService) ReviewViolation(ctx context.Context, caller identity.Caller, violationID uint, action string) (*ViolationView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !validReviewActions[action] {
		return nil, apperror.Validation("action", "action must be delete_post, dismiss or warn_user")
	}

	var violation models.ReportViolation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ReportViolation{}).
			Where("id = ? AND status = ?", violationID, models.ViolationStatusPending).
			Updates(map[string]any{
				"status":      models.ViolationStatusReviewed,
				"reviewed_by": caller.ID,
				"reviewed_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		if err := tx.Select("id", "report_id").First(&violation, violationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("violation", violationID)
			}
			return err
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict("violation has already been reviewed")
		}

		if action == dto.ActionDeletePost {
			err := tx.Model(&models.Report{}).
				Where("id = ?", violation.ReportID).
				Update("status", models.ReportStatusDeleted).Error
			if err != nil {
				return err
			}
		}

		// Same joins as ListViolations, read after the report status change.
		violation = models.ReportViolation{}
		return tx.Preload("Report.CreatedBy").Preload("Reporter").First(&violation, violationID).Error
	})
	if err != nil {
		return nil, storageError("failed to review violation", err)
	}

	view := newViolationView(&violation)
	return &view, nil
}

func (s *ModerationService) Stats(ctx context.Context, caller identity.Caller) (*dto.AdminStats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var stats dto.AdminStats
	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalReports, db.Model(&models.Report{})},
		{&stats.ActiveReports, db.Model(&models.Report{}).Where("status = ?", models.ReportStatusActive)},
		{&stats.DeletedReports, db.Model(&models.Report{}).Where("status = ?", models.ReportStatusDeleted)},
		{&stats.TotalUsers, db.Model(&models.User{})},
		{&stats.PendingViolations, db.Model(&models.ReportViolation{}).Where("status = ?", models.ViolationStatusPending)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dest).Error; err != nil {
			return nil, apperror.Internal("failed to load stats", err)
		}
	}
	return &stats, nil
}

// ToggleAdmin flips the target's admin flag. Callers can never change their own.
func (s *ModerationService) ToggleAdmin(ctx context.Context, caller identity.Caller, userID uuid.UUID) (*dto.ToggleAdminResponse, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if userID == caller.ID {
		return nil, apperror.BadRequest("cannot change your own admin status")
	}

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Update("is_admin", gorm.Expr("NOT is_admin"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("user", userID)
		}
		return tx.Select("id", "is_admin").First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, storageError("failed to toggle admin status", err)
	}
	return &dto.ToggleAdminResponse{IsAdmin: user.IsAdmin}, nil
}
