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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserView struct {
	ID       uuid.UUID `json:"id"`
	Name     *string   `json:"name"`
	Image    *string   `json:"image"`
	Bio      *string   `json:"bio"`
	Location *string   `json:"location"`
	JoinedAt time.Time `json:"joined_at"`
	IsAdmin  bool      `json:"is_admin"`
}

type ProfileDetails struct {
	Communities []string `json:"communities"`
	Notes       *string  `json:"notes"`
}

// ProfileView is the public profile page. Email is never exposed here.
type ProfileView struct {
	UserView
	Profile     *ProfileDetails `json:"profile"`
	ReportCount int64           `json:"report_count"`
}

type CurrentUserView struct {
	UserView
	Email   string          `json:"email"`
	Profile *ProfileDetails `json:"profile"`
}

func newUserView(u *models.User) UserView {
	return UserView{
		ID:       u.ID,
		Name:     u.Name,
		Image:    u.Image,
		Bio:      u.Bio,
		Location: u.Location,
		JoinedAt: u.JoinedAt,
		IsAdmin:  u.IsAdmin,
	}
}

func newProfileDetails(p *models.UserProfile) *ProfileDetails {
	if p == nil {
		return nil
	}
	communities := []string(p.Communities)
	if communities == nil {
		communities = []string{}
	}
	return &ProfileDetails{Communities: communities, Notes: p.Notes}
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*ProfileView, error) {
	db := s.db.WithContext(ctx)

	user, profile, err := s.load(db, userID)
	if err != nil {
		return nil, err
	}

	var reportCount int64
	if err := db.Model(&models.Report{}).Where("created_by_id = ?", userID).Count(&reportCount).Error; err != nil {
		return nil, apperror.Internal("failed to count reports", err)
	}

	return &ProfileView{
		UserView:    newUserView(user),
		Profile:     newProfileDetails(profile),
		ReportCount: reportCount,
	}, nil
}

func (s *UserService) GetCurrentUser(ctx context.Context, caller identity.Caller) (*CurrentUserView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	user, profile, err := s.load(s.db.WithContext(ctx), caller.ID)
	if err != nil {
		return nil, err
	}
	return &CurrentUserView{
		UserView: newUserView(user),
		Email:    user.Email,
		Profile:  newProfileDetails(profile),
	}, nil
}

// UpdateProfile applies only the fields present in req. Core user fields and the
// profile row are written in one transaction; the profile row is created on first use.
func (s *UserService) UpdateProfile(ctx context.Context, caller identity.Caller, req *dto.UpdateProfileRequest) (*CurrentUserView, error) {
	if err := requireAuth(caller); err != nil {
		return nil, err
	}
	updates, err := userUpdates(req)
	if err != nil {
		return nil, err
	}
	communities, err := communityList(req.Communities)
	if err != nil {
		return nil, err
	}
	if req.Notes.Set && !req.Notes.Null {
		if err := maxText("notes", req.Notes.Value, maxNotesLen); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, "id = ?", caller.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user", caller.ID)
			}
			return err
		}

		if req.TouchesUser() {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return err
			}
		}

		if !req.TouchesProfile() {
			return nil
		}

		var profile models.UserProfile
		err := tx.Where("user_id = ?", caller.ID).First(&profile).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			profile = models.UserProfile{UserID: caller.ID, Communities: datatypes.JSONSlice[string]{}}
		case err != nil:
			return err
		}
		if req.Communities.Set {
			profile.Communities = communities
		}
		if req.Notes.Set {
			profile.Notes = req.Notes.Ptr()
		}
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, storageError("failed to update profile", err)
	}

	return s.GetCurrentUser(ctx, caller)
}

func userUpdates(req *dto.UpdateProfileRequest) (map[string]any, error) {
	updates := map[string]any{}
	if req.Name.Set {
		if req.Name.Null {
			return nil, apperror.Validation("name", "name cannot be cleared")
		}
		name, err := requiredText("name", req.Name.Value, maxNameLen)
		if err != nil {
			return nil, err
		}
		updates["name"] = name
	}
	if req.Bio.Set {
		if err := maxText("bio", req.Bio.Value, maxBioLen); err != nil {
			return nil, err
		}
		updates["bio"] = req.Bio.Ptr()
	}
	if req.Location.Set {
		if err := maxText("location", req.Location.Value, maxLocationLen); err != nil {
			return nil, err
		}
		updates["location"] = req.Location.Ptr()
	}
	if req.Image.Set {
		if !req.Image.Null {
			if err := publicURL("image", req.Image.Value); err != nil {
				return nil, err
			}
		}
		updates["image"] = req.Image.Ptr()
	}
	return updates, nil
}

// communityList replaces the list wholesale; null clears it.
func communityList(o dto.Optional[[]string]) (datatypes.JSONSlice[string], error) {
	list := datatypes.JSONSlice[string]{}
	if !o.Set || o.Null {
		return list, nil
	}
	for _, c := range o.Value {
		name, err := requiredText("communities", c, maxCommunity)
		if err != nil {
			return nil, err
		}
		list = append(list, name)
	}
	return list, nil
}

// Search matches names case-insensitively by substring.
func (s *UserService) Search(ctx context.Context, query string, limit int) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.Validation("q", "search query is required")
	}
	limit, _, err := pageBounds(limit, 0, DefaultSearchLimit, MaxSearchLimit)
	if err != nil {
		return nil, err
	}

	var users []models.User
	err = s.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(query)).
		Order("name, id").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, apperror.Internal("failed to search users", err)
	}

	results := make([]models.UserSummary, len(users))
	for i := range users {
		results[i] = *users[i].Summary()
	}
	return results, nil
}

// LookupCaller resolves the identity behind a verified token subject.
func (s *UserService) LookupCaller(ctx context.Context, userID uuid.UUID) (identity.Caller, error) {
	var user models.User
	err := s.db.WithContext(ctx).Select("id", "email", "is_admin").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return identity.Anonymous, apperror.NotFound("user", userID)
	}
	if err != nil {
		return identity.Anonymous, apperror.Internal("failed to load caller", err)
	}
	return identity.Caller{ID: user.ID, Email: user.Email, IsAdmin: user.IsAdmin}, nil
}

func (s *UserService) load(db *gorm.DB, userID uuid.UUID) (*models.User, *models.UserProfile, error) {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperror.NotFound("user", userID)
		}
		return nil, nil, apperror.Internal("failed to load user", err)
	}

	var profile models.UserProfile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &user, nil, nil
	case err != nil:
		return nil, nil, apperror.Internal("failed to load profile", err)
	}
	return &user, &profile, nil
}
