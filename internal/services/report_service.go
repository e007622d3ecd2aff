package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/laporinpolisi/laporin-backend/internal/apperror"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	SortLatest  = "latest"
	SortPopular = "popular"
)

type TagView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type ReportListItem struct {
	ID            uint                `json:"id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	ImageURL      *string             `json:"image_url"`
	Location      string              `json:"location"`
	Status        string              `json:"status"`
	IsValid       bool                `json:"is_valid"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	CreatedBy     *models.UserSummary `json:"created_by"`
	LikesCount    int64               `json:"likes_count"`
	CommentsCount int64               `json:"comments_count"`
	LikedByUser   bool                `json:"liked_by_user"`
	Tags          []TagView           `json:"tags"`
}

type ReportDetail struct {
	ReportListItem
	SharesCount int64 `json:"shares_count"`
}

type CommentView struct {
	ID        uint                `json:"id"`
	ReportID  uint                `json:"report_id"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"created_at"`
	User      *models.UserSummary `json:"user"`
}

// reportRow is the flat scan target of reportQuery.
type reportRow struct {
	ID            uint
	Title         string
	Description   string
	ImageURL      *string
	Location      string
	Status        string
	IsValid       bool
	CreatedByID   uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
	OwnerName     *string
	OwnerImage    *string
	OwnerLocation *string
	LikesCount    int64
	CommentsCount int64
	SharesCount   int64
	LikedCount    int64
}

func (r *reportRow) listItem(caller identity.Caller) ReportListItem {
	return ReportListItem{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		Location:    r.Location,
		Status:      r.Status,
		IsValid:     r.IsValid,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CreatedBy: &models.UserSummary{
			ID:       r.CreatedByID,
			Name:     r.OwnerName,
			Image:    r.OwnerImage,
			Location: r.OwnerLocation,
		},
		LikesCount:    r.LikesCount,
		CommentsCount: r.CommentsCount,
		LikedByUser:   caller.Authenticated() && r.LikedCount > 0,
		Tags:          []TagView{},
	}
}

type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

func (s *ReportService) Create(ctx context.Context, caller identity.Caller, req *dto.CreateReportRequest) (uint, error) {
	if err := requireAuth(caller); err != nil {
		return 0, err
	}

	title, err := requiredText("title", req.Title, maxTitleLen)
	if err != nil {
		return 0, err
	}
	location, err := requiredText("location", req.Location, maxLocationLen)
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(req.Description) == "" {
		return 0, apperror.Validation("description", "description is required")
	}
	var imageURL *string
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) != "" {
		u := strings.TrimSpace(*req.ImageURL)
		if err := publicURL("image_url", u); err != nil {
			return 0, err
		}
		imageURL = &u
	}
	tags, err := normalizeTags(req.Tags)
	if err != nil {
		return 0, err
	}

	report := models.Report{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		ImageURL:    imageURL,
		Location:    location,
		Status:      models.ReportStatusActive,
		IsValid:     true,
		CreatedByID: caller.ID,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&report).Error; err != nil {
			return err
		}
		if report.ID == 0 {
			return apperror.Internal("failed to create report", errors.New("insert returned no id"))
		}

		for _, name := range tags {
			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			if err := tx.Create(&models.ReportTag{ReportID: report.ID, TagID: tag.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, storageError("failed to create report", err)
	}
	return report.ID, nil
}

// getOrCreateTag inserts name unless another row already holds it, then reads it back.
func getOrCreateTag(tx *gorm.DB, name string) (*models.Tag, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&models.Tag{Name: name}).Error
	if err != nil {
		return nil, err
	}

	var tag models.Tag
	if err := tx.Where("name = ?", name).First(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}

func (s *ReportService) List(ctx context.Context, caller identity.Caller, q dto.ListReportsQuery) ([]ReportListItem, error) {
	limit, offset, err := pageBounds(q.Limit, q.Offset, DefaultReportLimit, MaxReportLimit)
	if err != nil {
		return nil, err
	}

	order := "reports.created_at DESC, reports.id DESC"
	switch q.SortBy {
	case "", SortLatest:
	case SortPopular:
		order = "likes_count DESC, " + order
	default:
		return nil, apperror.Validation("sort_by", "sort_by must be latest or popular")
	}

	query := s.reportQuery(ctx, caller).Scopes(activeReports)

	if len(q.Tags) > 0 {
		names, err := normalizeTags(q.Tags)
		if err != nil {
			return nil, err
		}
		var ids []uint
		err = s.db.WithContext(ctx).Table("report_tags").
			Joins("JOIN tags ON tags.id = report_tags.tag_id").
			Where("tags.name IN ?", names).
			Distinct().
			Pluck("report_tags.report_id", &ids).Error
		if err != nil {
			return nil, apperror.Internal("failed to list reports", err)
		}
		if len(ids) == 0 {
			return []ReportListItem{}, nil
		}
		query = query.Where("reports.id IN ?", ids)
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		pattern := likePattern(search)
		query = query.Where(
			`LOWER(reports.title) LIKE ? ESCAPE '\' OR LOWER(reports.description) LIKE ? ESCAPE '\'`,
			pattern, pattern,
		)
	}
	if location := strings.TrimSpace(q.Location); location != "" {
		query = query.Where(`LOWER(reports.location) LIKE ? ESCAPE '\'`, likePattern(location))
	}

	var rows []reportRow
	if err := query.Order(order).Scopes(paginate(limit, offset)).Scan(&rows).Error; err != nil {
		return nil, apperror.Internal("failed to list reports", err)
	}
	return s.withTags(ctx, caller, rows)
}

func (s *ReportService) Get(ctx context.Context, caller identity.Caller, id uint) (*ReportDetail, error) {
	var rows []reportRow
	if err := s.reportQuery(ctx, caller).Where("reports.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, apperror.Internal("failed to get report", err)
	}
	if len(rows) == 0 {
		return nil, apperror.NotFound("report", id)
	}

	items, err := s.withTags(ctx, caller, rows)
	if err != nil {
		return nil, err
	}
	return &ReportDetail{ReportListItem: items[0], SharesCount: rows[0].SharesCount}, nil
}

// ToggleLike removes the caller's like if present, otherwise adds it. A concurrent
// duplicate insert collides on the primary key and is ignored.
func (s *ReportService) ToggleLike(ctx context.Context, caller identity.Caller, reportID uint) (*dto.ToggleLikeResponse, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if err := s.ensureReport(ctx, reportID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	res := db.Where("report_id = ? AND user_id = ?", reportID, caller.ID).Delete(&models.Like{})
	if res.Error != nil {
		return nil, apperror.Internal("failed to toggle like", res.Error)
	}

	liked := false
	if res.RowsAffected == 0 {
		like := models.Like{ReportID: reportID, UserID: caller.ID}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error; err != nil {
			return nil, apperror.Internal("failed to toggle like", err)
		}
		liked = true
	}

	var count int64
	if err := db.Model(&models.Like{}).Where("report_id = ?", reportID).Count(&count).Error; err != nil {
		return nil, apperror.Internal("failed to count likes", err)
	}
	return &dto.ToggleLikeResponse{Liked: liked, LikesCount: count}, nil
}

func (s *ReportService) AddComment(ctx context.Context, caller identity.Caller, reportID uint, content string) (*CommentView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	content, err := requiredText("content", content, maxCommentLen)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReport(ctx, reportID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	comment := models.Comment{ReportID: reportID, UserID: caller.ID, Content: content}
	if err := db.Create(&comment).Error; err != nil {
		return nil, apperror.Internal("failed to add comment", err)
	}

	var author models.User
	if err := db.First(&author, "id = ?", caller.ID).Error; err != nil {
		return nil, apperror.Internal("failed to load comment author", err)
	}
	return &CommentView{
		ID:        comment.ID,
		ReportID:  comment.ReportID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
		User:      author.Summary(),
	}, nil
}

func (s *ReportService) ListComments(ctx context.Context, reportID uint, limit, offset int) ([]CommentView, error) {
	limit, offset, err := pageBounds(limit, offset, DefaultPageLimit, MaxPageLimit)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReport(ctx, reportID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err = s.db.WithContext(ctx).
		Preload("User").
		Where("report_id = ?", reportID).
		Order("created_at DESC, id DESC").
		Scopes(paginate(limit, offset)).
		Find(&comments).Error
	if err != nil {
		return nil, apperror.Internal("failed to list comments", err)
	}

	views := make([]CommentView, len(comments))
	for i, c := range comments {
		views[i] = CommentView{
			ID:        c.ID,
			ReportID:  c.ReportID,
			Content:   c.Content,
			CreatedAt: c.CreatedAt,
			User:      c.User.Summary(),
		}
	}
	return views, nil
}

func (s *ReportService) Share(ctx context.Context, caller identity.Caller, reportID uint, platform *string) (*models.Share, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	if platform != nil {
		p := strings.ToLower(strings.TrimSpace(*platform))
		if err := maxText("platform", p, maxPlatformLen); err != nil {
			return nil, err
		}
		if p == "" {
			platform = nil
		} else {
			platform = &p
		}
	}
	if err := s.ensureReport(ctx, reportID); err != nil {
		return nil, err
	}

	share := models.Share{ReportID: reportID, UserID: caller.ID, Platform: platform}
	if err := s.db.WithContext(ctx).Create(&share).Error; err != nil {
		return nil, apperror.Internal("failed to share report", err)
	}
	return &share, nil
}

func (s *ReportService) ReportViolation(ctx context.Context, caller identity.Caller, reportID uint, reason string) (*models.ReportViolation, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	reason, err := requiredText("reason", reason, maxReasonLen)
	if err != nil {
		return nil, err
	}
	if err := s.ensureReport(ctx, reportID); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var existing int64
	err = db.Model(&models.ReportViolation{}).
		Where("report_id = ? AND reported_by = ?", reportID, caller.ID).
		Count(&existing).Error
	if err != nil {
		return nil, apperror.Internal("failed to report violation", err)
	}
	if existing > 0 {
		return nil, apperror.Conflict("you have already reported this post")
	}

	violation := models.ReportViolation{
		ReportID:   reportID,
		ReportedBy: caller.ID,
		Reason:     reason,
		Status:     models.ViolationStatusPending,
	}
	if err := db.Create(&violation).Error; err != nil {
		return nil, apperror.Internal("failed to report violation", err)
	}
	return &violation, nil
}

func (s *ReportService) ListUserReports(ctx context.Context, caller identity.Caller, userID uuid.UUID, limit, offset int) ([]ReportListItem, error) {
	limit, offset, err := pageBounds(limit, offset, DefaultPageLimit, MaxPageLimit)
	if err != nil {
		return nil, err
	}

	var rows []reportRow
	err = s.reportQuery(ctx, caller).
		Scopes(activeReports, ownedBy(userID), paginate(limit, offset)).
		Order("reports.created_at DESC, reports.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("failed to list user reports", err)
	}
	return s.withTags(ctx, caller, rows)
}

// reportQuery selects reports joined with their owner and the derived counters.
// Counts are always aggregated, never stored.
func (s *ReportService) reportQuery(ctx context.Context, caller identity.Caller) *gorm.DB {
	return s.db.WithContext(ctx).Table("reports").
		Select(`reports.id, reports.title, reports.description, reports.image_url, reports.location,
			reports.status, reports.is_valid, reports.created_by_id, reports.created_at, reports.updated_at,
			users.name AS owner_name, users.image AS owner_image, users.location AS owner_location,
			(SELECT COUNT(*) FROM likes WHERE likes.report_id = reports.id) AS likes_count,
			(SELECT COUNT(*) FROM comments WHERE comments.report_id = reports.id) AS comments_count,
			(SELECT COUNT(*) FROM shares WHERE shares.report_id = reports.id) AS shares_count,
			(SELECT COUNT(*) FROM likes WHERE likes.report_id = reports.id AND likes.user_id = ?) AS liked_count`,
			caller.ID).
		Joins("JOIN users ON users.id = reports.created_by_id")
}

// withTags converts rows and attaches tags fetched in one batched query.
func (s *ReportService) withTags(ctx context.Context, caller identity.Caller, rows []reportRow) ([]ReportListItem, error) {
	items := make([]ReportListItem, len(rows))
	if len(rows) == 0 {
		return items, nil
	}

	ids := make([]uint, len(rows))
	index := make(map[uint]int, len(rows))
	for i := range rows {
		items[i] = rows[i].listItem(caller)
		ids[i] = rows[i].ID
		index[rows[i].ID] = i
	}

	var tagRows []struct {
		ReportID uint
		ID       uint
		Name     string
	}
	err := s.db.WithContext(ctx).Table("report_tags").
		Select("report_tags.report_id, tags.id, tags.name").
		Joins("JOIN tags ON tags.id = report_tags.tag_id").
		Where("report_tags.report_id IN ?", ids).
		Order("tags.name").
		Scan(&tagRows).Error
	if err != nil {
		return nil, apperror.Internal("failed to load report tags", err)
	}
	for _, t := range tagRows {
		i := index[t.ReportID]
		items[i].Tags = append(items[i].Tags, TagView{ID: t.ID, Name: t.Name})
	}
	return items, nil
}

func (s *ReportService) ensureReport(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperror.Internal("failed to load report", err)
	}
	if count == 0 {
		return apperror.NotFound("report", id)
	}
	return nil
}

// likePattern builds a case-folded substring pattern with LIKE wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(s)) + "%"
}
