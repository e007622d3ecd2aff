package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/laporinpolisi/laporin-backend/internal/config"
	"github.com/laporinpolisi/laporin-backend/internal/database/dbtest"
	"github.com/laporinpolisi/laporin-backend/internal/handlers"
	"github.com/laporinpolisi/laporin-backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageStore struct {
	contentTypes []string
}

func (f *fakeImageStore) Put(_ context.Context, contentType string, body io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, body)
	f.contentTypes = append(f.contentTypes, contentType)
	return fmt.Sprintf("https://cdn.laporin.id/uploads/%d", len(f.contentTypes)), nil
}

type testServer struct {
	t   *testing.T
	app *fiber.App
}

func newTestServer(t *testing.T, images handlers.ImageStore) *testServer {
	t.Helper()
	db := dbtest.New(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessExpiry:  15 * time.Minute,
		JWTRefreshExpiry: time.Hour,
		AdminEmails:      "admin@laporin.id",
		UploadMaxBytes:   1024,
	}

	userService := services.NewUserService(db)
	app := fiber.New()
	Setup(app, cfg, userService, Handlers{
		Auth:       handlers.NewAuthHandler(services.NewAuthService(db, cfg)),
		Health:     handlers.NewHealthHandler(db),
		Report:     handlers.NewReportHandler(services.NewReportService(db)),
		User:       handlers.NewUserHandler(userService),
		Moderation: handlers.NewModerationHandler(services.NewModerationService(db)),
		Upload:     handlers.NewUploadHandler(images, cfg.UploadMaxBytes),
	}, nil)
	return &testServer{t: t, app: app}
}

// call sends a JSON request and decodes the response body into out when non-nil.
func (s *testServer) call(method, path, token string, body any, out any) int {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(req, token, out)
}

func (s *testServer) send(req *http.Request, token string, out any) int {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type session struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID      string `json:"id"`
		IsAdmin bool   `json:"is_admin"`
	} `json:"user"`
}

func (s *testServer) register(email string) session {
	s.t.Helper()
	var sess session
	status := s.call(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "rahasia123", "name": email[:4],
	}, &sess)
	require.Equal(s.t, http.StatusCreated, status)
	return sess
}

type errorBody struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

type reportList struct {
	Reports []struct {
		ID          uint   `json:"id"`
		Status      string `json:"status"`
		LikesCount  int64  `json:"likes_count"`
		LikedByUser bool   `json:"liked_by_user"`
		Tags        []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"reports"`
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	var body map[string]any
	assert.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/health", "", nil, &body))
	assert.Equal(t, "ok", body["db"])
}

func TestReportLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.register("andi@laporin.id")
	b := s.register("budi@laporin.id")
	c := s.register("admin@laporin.id")
	require.True(t, c.User.IsAdmin)

	var created struct {
		ID uint `json:"id"`
	}
	status := s.call(http.MethodPost, "/api/reports", a.AccessToken, map[string]any{
		"title":       "Jalan rusak",
		"description": "Lubang besar di Jl. Merdeka",
		"location":    "Bandung",
		"tags":        []string{"Infrastruktur"},
	}, &created)
	require.Equal(t, http.StatusCreated, status)
	reportPath := fmt.Sprintf("/api/reports/%d", created.ID)

	var list reportList
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/reports?tags=infrastruktur", "", nil, &list))
	require.Len(t, list.Reports, 1)
	assert.Equal(t, "infrastruktur", list.Reports[0].Tags[0].Name)

	var like struct {
		Liked      bool  `json:"liked"`
		LikesCount int64 `json:"likes_count"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodPost, reportPath+"/like", b.AccessToken, nil, &like))
	assert.True(t, like.Liked)
	assert.Equal(t, int64(1), like.LikesCount)

	list = reportList{}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/reports", b.AccessToken, nil, &list))
	assert.True(t, list.Reports[0].LikedByUser)
	list = reportList{}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/reports", a.AccessToken, nil, &list))
	assert.False(t, list.Reports[0].LikedByUser)

	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, reportPath+"/violations", b.AccessToken, map[string]string{"reason": "spam"}, nil))

	var errBody errorBody
	require.Equal(t, http.StatusConflict, s.call(http.MethodPost, reportPath+"/violations", b.AccessToken, map[string]string{"reason": "spam"}, &errBody))
	assert.Equal(t, "conflict", errBody.Code)

	var violations struct {
		Violations []struct {
			ID uint `json:"id"`
		} `json:"violations"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/admin/violations?status=pending", c.AccessToken, nil, &violations))
	require.Len(t, violations.Violations, 1)

	reviewPath := fmt.Sprintf("/api/admin/violations/%d/review", violations.Violations[0].ID)
	require.Equal(t, http.StatusOK, s.call(http.MethodPost, reviewPath, c.AccessToken, map[string]string{"action": "delete_post"}, nil))
	assert.Equal(t, http.StatusConflict, s.call(http.MethodPost, reviewPath, c.AccessToken, map[string]string{"action": "dismiss"}, nil))

	list = reportList{}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/reports", "", nil, &list))
	assert.Empty(t, list.Reports)

	var detail struct {
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, reportPath, "", nil, &detail))
	assert.Equal(t, "deleted", detail.Status)
}

func TestErrorResponses(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register("andi@laporin.id")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
		code   string
	}{
		{"create needs auth", http.MethodPost, "/api/reports", "", map[string]string{"title": "x"}, http.StatusUnauthorized, "unauthorized"},
		{"bad token on public route", http.MethodGet, "/api/reports", "garbage", nil, http.StatusUnauthorized, "unauthorized"},
		{"validation", http.MethodPost, "/api/reports", user.AccessToken, map[string]string{"title": "", "description": "d", "location": "l"}, http.StatusBadRequest, "validation_error"},
		{"bad limit", http.MethodGet, "/api/reports?limit=500", "", nil, http.StatusBadRequest, "validation_error"},
		{"bad id", http.MethodGet, "/api/reports/abc", "", nil, http.StatusBadRequest, "validation_error"},
		{"missing report", http.MethodGet, "/api/reports/42", "", nil, http.StatusNotFound, "not_found"},
		{"admin only", http.MethodGet, "/api/admin/stats", user.AccessToken, nil, http.StatusForbidden, "forbidden"},
		{"self toggle", http.MethodPost, "/api/admin/users/" + user.User.ID + "/toggle-admin", user.AccessToken, nil, http.StatusForbidden, "forbidden"},
		{"missing user", http.MethodGet, "/api/users/8d3e4c1a-5b6f-4a7b-9c8d-0e1f2a3b4c5d", "", nil, http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorBody
			assert.Equal(t, tt.status, s.call(tt.method, tt.path, tt.token, tt.body, &body))
			assert.True(t, body.Error)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestAdminSelfToggleIsBadRequest(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.register("admin@laporin.id")

	var body errorBody
	status := s.call(http.MethodPost, "/api/admin/users/"+admin.User.ID+"/toggle-admin", admin.AccessToken, nil, &body)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "bad_request", body.Code)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register("andi@laporin.id")

	req := httptest.NewRequest(http.MethodPatch, "/api/users/me", bytes.NewBufferString(`{"bio":"Warga","communities":["RT 05"]}`))
	req.Header.Set("Content-Type", "application/json")
	var me struct {
		Email   string  `json:"email"`
		Bio     *string `json:"bio"`
		Profile *struct {
			Communities []string `json:"communities"`
		} `json:"profile"`
	}
	require.Equal(t, http.StatusOK, s.send(req, user.AccessToken, &me))
	assert.Equal(t, "Warga", *me.Bio)
	assert.Equal(t, []string{"RT 05"}, me.Profile.Communities)

	req = httptest.NewRequest(http.MethodPatch, "/api/users/me", bytes.NewBufferString(`{"bio":null}`))
	req.Header.Set("Content-Type", "application/json")
	me.Bio = nil
	require.Equal(t, http.StatusOK, s.send(req, user.AccessToken, &me))
	assert.Nil(t, me.Bio)
	assert.Equal(t, "andi@laporin.id", me.Email)

	var public map[string]any
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/users/"+user.User.ID, "", nil, &public))
	assert.NotContains(t, public, "email")
	assert.Equal(t, float64(0), public["report_count"])

	var found struct {
		Users []map[string]any `json:"users"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/users/search?q=AND", "", nil, &found))
	assert.Len(t, found.Users, 1)
}

func multipartImage(t *testing.T, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "foto.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestUpload(t *testing.T) {
	store := &fakeImageStore{}
	s := newTestServer(t, store)
	user := s.register("andi@laporin.id")

	var res struct {
		URL string `json:"url"`
	}
	require.Equal(t, http.StatusCreated, s.send(multipartImage(t, pngHeader), user.AccessToken, &res))
	assert.Equal(t, "https://cdn.laporin.id/uploads/1", res.URL)
	assert.Equal(t, []string{"image/png"}, store.contentTypes)

	var errBody errorBody
	assert.Equal(t, http.StatusBadRequest, s.send(multipartImage(t, []byte("just text")), user.AccessToken, &errBody))
	assert.Equal(t, "file", errBody.Field)

	tooBig := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)
	assert.Equal(t, http.StatusBadRequest, s.send(multipartImage(t, tooBig), user.AccessToken, nil))

	assert.Equal(t, http.StatusUnauthorized, s.send(multipartImage(t, pngHeader), "", nil))
}

func TestUploadDisabledWithoutStore(t *testing.T) {
	s := newTestServer(t, nil)
	user := s.register("andi@laporin.id")

	assert.Equal(t, http.StatusServiceUnavailable, s.send(multipartImage(t, pngHeader), user.AccessToken, nil))
}

func TestDemotedBootstrapAdminLosesAccess(t *testing.T) {
	s := newTestServer(t, nil)
	boot := s.register("admin@laporin.id")
	other := s.register("budi@laporin.id")
	require.True(t, boot.User.IsAdmin)

	var toggled struct {
		IsAdmin bool `json:"is_admin"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodPost, "/api/admin/users/"+other.User.ID+"/toggle-admin", boot.AccessToken, nil, &toggled))
	require.True(t, toggled.IsAdmin)

	require.Equal(t, http.StatusOK, s.call(http.MethodPost, "/api/admin/users/"+boot.User.ID+"/toggle-admin", other.AccessToken, nil, &toggled))
	assert.False(t, toggled.IsAdmin)

	var body errorBody
	assert.Equal(t, http.StatusForbidden, s.call(http.MethodGet, "/api/admin/stats", boot.AccessToken, nil, &body))
	assert.Equal(t, "forbidden", body.Code)

	var me struct {
		IsAdmin bool `json:"is_admin"`
	}
	require.Equal(t, http.StatusOK, s.call(http.MethodGet, "/api/users/me", boot.AccessToken, nil, &me))
	assert.False(t, me.IsAdmin)

	var login session
	require.Equal(t, http.StatusOK, s.call(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@laporin.id", "password": "rahasia123",
	}, &login))
	assert.False(t, login.User.IsAdmin, "listed email does not re-grant admin at login")
}

func TestListEchoesAppliedPage(t *testing.T) {
	s := newTestServer(t, nil)
	admin := s.register("admin@laporin.id")

	var created struct {
		ID uint `json:"id"`
	}
	require.Equal(t, http.StatusCreated, s.call(http.MethodPost, "/api/reports", admin.AccessToken, map[string]any{
		"title": "Lampu mati", "description": "Gelap", "location": "Bandung",
	}, &created))

	tests := []struct {
		name   string
		path   string
		limit  float64
		offset float64
	}{
		{"reports default", "/api/reports", 20, 0},
		{"reports explicit", "/api/reports?limit=5&offset=2", 5, 2},
		{"comments default", fmt.Sprintf("/api/reports/%d/comments", created.ID), 20, 0},
		{"user reports default", "/api/users/" + admin.User.ID + "/reports", 20, 0},
		{"violations default", "/api/admin/violations", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			require.Equal(t, http.StatusOK, s.call(http.MethodGet, tt.path, admin.AccessToken, nil, &body))
			assert.Equal(t, tt.limit, body["limit"])
			assert.Equal(t, tt.offset, body["offset"])
		})
	}
}
