package services

import (
	"context"
	"testing"

	"github.com/laporinpolisi/laporin-backend/internal/database/dbtest"
	"github.com/laporinpolisi/laporin-backend/internal/dto"
	"github.com/laporinpolisi/laporin-backend/internal/identity"
	"github.com/laporinpolisi/laporin-backend/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	reports    *ReportService
	users      *UserService
	moderation *ModerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	return &fixture{
		db:         db,
		reports:    NewReportService(db),
		users:      NewUserService(db),
		moderation: NewModerationService(db),
	}
}

// seedUser inserts a user and returns it as a request caller.
func (f *fixture) seedUser(t *testing.T, name string, admin bool) identity.Caller {
	t.Helper()
	user := models.User{
		Name:         &name,
		Email:        name + "@laporin.id",
		PasswordHash: "x",
		IsAdmin:      admin,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return identity.Caller{ID: user.ID, Email: user.Email, IsAdmin: admin}
}

func (f *fixture) seedReport(t *testing.T, owner identity.Caller, title string, tags ...string) uint {
	t.Helper()
	id, err := f.reports.Create(context.Background(), owner, &dto.CreateReportRequest{
		Title:       title,
		Description: "deskripsi " + title,
		Location:    "Bandung",
		Tags:        tags,
	})
	require.NoError(t, err)
	return id
}

func ids(items []ReportListItem) []uint {
	out := make([]uint, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
