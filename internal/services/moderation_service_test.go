package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/laporinpolisi/laporin-backend/internal/apperror"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModerationRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "andi", false)
	ctx := context.Background()

	_, err := f.moderation.ListViolations(ctx, user, "", 0, 0)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.moderation.ReviewViolation(ctx, user, 1, dto.ActionDismiss)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.moderation.Stats(ctx, user)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	_, err = f.moderation.ToggleAdmin(ctx, user, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.moderation.Stats(ctx, identity.Anonymous)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestReviewViolation(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "andi", false)
	flagger := f.seedUser(t, "budi", false)
	admin := f.seedUser(t, "citra", true)
	ctx := context.Background()

	kept := f.seedReport(t, owner, "Jalan rusak")
	removed := f.seedReport(t, owner, "Iklan judi")
	keptFlag, err := f.reports.ReportViolation(ctx, flagger, kept, "salah lokasi")
	require.NoError(t, err)
	removedFlag, err := f.reports.ReportViolation(ctx, flagger, removed, "spam")
	require.NoError(t, err)

	_, err = f.moderation.ReviewViolation(ctx, admin, keptFlag.ID, "ban_user")
	require.ErrorIs(t, err, apperror.ErrValidation)

	view, err := f.moderation.ReviewViolation(ctx, admin, keptFlag.ID, dto.ActionDismiss)
	require.NoError(t, err)
	assert.Equal(t, models.ViolationStatusReviewed, view.Status)
	require.NotNil(t, view.ReviewedBy)
	assert.Equal(t, admin.ID, *view.ReviewedBy)
	assert.NotNil(t, view.ReviewedAt)
	require.NotNil(t, view.Report)
	assert.Equal(t, models.ReportStatusActive, view.Report.Status)

	removedView, err := f.moderation.ReviewViolation(ctx, admin, removedFlag.ID, dto.ActionDeletePost)
	require.NoError(t, err)
	require.NotNil(t, removedView.Report)
	assert.Equal(t, removed, removedView.Report.ID)
	assert.Equal(t, models.ReportStatusDeleted, removedView.Report.Status)
	require.NotNil(t, removedView.Report.CreatedBy)
	assert.Equal(t, owner.ID, removedView.Report.CreatedBy.ID)
	require.NotNil(t, removedView.ReportedBy)
	assert.Equal(t, flagger.ID, removedView.ReportedBy.ID)

	var statuses []string
	require.NoError(t, f.db.Model(&models.Report{}).Order("id").Pluck("status", &statuses).Error)
	assert.Equal(t, []string{models.ReportStatusActive, models.ReportStatusDeleted}, statuses)

	_, err = f.moderation.ReviewViolation(ctx, admin, removedFlag.ID, dto.ActionDismiss)
	assert.ErrorIs(t, err, apperror.ErrConflict)
	_, err = f.moderation.ReviewViolation(ctx, admin, 999, dto.ActionDismiss)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestWarnUserOnlyMarksReviewed(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "andi", false)
	admin := f.seedUser(t, "citra", true)
	ctx := context.Background()

	id := f.seedReport(t, owner, "Kata kasar")
	flag, err := f.reports.ReportViolation(ctx, admin, id, "kasar")
	require.NoError(t, err)

	_, err = f.moderation.ReviewViolation(ctx, admin, flag.ID, dto.ActionWarnUser)
	require.NoError(t, err)

	detail, err := f.reports.Get(ctx, identity.Anonymous, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusActive, detail.Status)
}

func TestListViolationsFilterAndJoins(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "andi", false)
	flagger := f.seedUser(t, "budi", false)
	admin := f.seedUser(t, "citra", true)
	ctx := context.Background()

	first := f.seedReport(t, owner, "satu")
	second := f.seedReport(t, owner, "dua")
	v1, err := f.reports.ReportViolation(ctx, flagger, first, "spam")
	require.NoError(t, err)
	_, err = f.reports.ReportViolation(ctx, flagger, second, "hoaks")
	require.NoError(t, err)
	_, err = f.moderation.ReviewViolation(ctx, admin, v1.ID, dto.ActionDismiss)
	require.NoError(t, err)

	pending, err := f.moderation.ListViolations(ctx, admin, models.ViolationStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "hoaks", pending[0].Reason)
	require.NotNil(t, pending[0].Report)
	assert.Equal(t, "dua", pending[0].Report.Title)
	assert.Equal(t, "andi", *pending[0].Report.CreatedBy.Name)
	assert.Equal(t, "budi", *pending[0].ReportedBy.Name)

	all, err := f.moderation.ListViolations(ctx, admin, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "hoaks", all[0].Reason, "newest first")

	_, err = f.moderation.ListViolations(ctx, admin, "closed", 0, 0)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "andi", false)
	admin := f.seedUser(t, "citra", true)
	ctx := context.Background()

	f.seedReport(t, owner, "satu")
	gone := f.seedReport(t, owner, "dua")
	_, err := f.reports.ReportViolation(ctx, owner, gone, "duplikat")
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Report{}).Where("id = ?", gone).Update("status", models.ReportStatusDeleted).Error)

	stats, err := f.moderation.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, dto.AdminStats{
		TotalReports:      2,
		ActiveReports:     1,
		DeletedReports:    1,
		TotalUsers:        2,
		PendingViolations: 1,
	}, *stats)
}

func TestToggleAdmin(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "andi", false)
	admin := f.seedUser(t, "citra", true)
	ctx := context.Background()

	_, err := f.moderation.ToggleAdmin(ctx, admin, admin.ID)
	require.ErrorIs(t, err, apperror.ErrBadRequest)
	self, err := f.users.LookupCaller(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, self.IsAdmin, "self toggle leaves the flag alone")

	res, err := f.moderation.ToggleAdmin(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.True(t, res.IsAdmin)

	res, err = f.moderation.ToggleAdmin(ctx, admin, user.ID)
	require.NoError(t, err)
	assert.False(t, res.IsAdmin)

	_, err = f.moderation.ToggleAdmin(ctx, admin, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

// Report lifecycle from creation through removal by an admin.
func TestReportLifecycle(t *testing.T) {
	f := newFixture(t)
	a := f.seedUser(t, "andi", false)
	b := f.seedUser(t, "budi", false)
	c := f.seedUser(t, "citra", true)
	ctx := context.Background()

	id, err := f.reports.Create(ctx, a, &dto.CreateReportRequest{
		Title:       "Jalan rusak",
		Description: "Lubang besar di Jl. Merdeka",
		Location:    "Bandung",
		Tags:        []string{"infrastruktur"},
	})
	require.NoError(t, err)

	items, err := f.reports.List(ctx, identity.Anonymous, dto.ListReportsQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Zero(t, items[0].LikesCount)
	assert.Zero(t, items[0].CommentsCount)
	require.Len(t, items[0].Tags, 1)
	assert.Equal(t, "infrastruktur", items[0].Tags[0].Name)

	_, err = f.reports.ToggleLike(ctx, b, id)
	require.NoError(t, err)

	forB, err := f.reports.List(ctx, b, dto.ListReportsQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), forB[0].LikesCount)
	assert.True(t, forB[0].LikedByUser)
	forA, err := f.reports.List(ctx, a, dto.ListReportsQuery{})
	require.NoError(t, err)
	assert.False(t, forA[0].LikedByUser)

	_, err = f.reports.ReportViolation(ctx, b, id, "spam")
	require.NoError(t, err)

	pending, err := f.moderation.ListViolations(ctx, c, models.ViolationStatusPending, 0, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = f.moderation.ReviewViolation(ctx, c, pending[0].ID, dto.ActionDeletePost)
	require.NoError(t, err)

	items, err = f.reports.List(ctx, identity.Anonymous, dto.ListReportsQuery{})
	require.NoError(t, err)
	assert.Empty(t, items)

	detail, err := f.reports.Get(ctx, identity.Anonymous, id)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusDeleted, detail.Status)
}
