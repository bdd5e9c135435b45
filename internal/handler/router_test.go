package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnledger/indexer/internal/chain"
	"github.com/learnledger/indexer/internal/mapping"
	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/config"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      map[string]interface{} `json:"error"`
	Pagination map[string]interface{} `json:"pagination"`
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*gin.Engine, *store.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{APIPrefix: "/api/v1"}
	cfg.Admin = config.AdminConfig{Enabled: false, JWTSecret: "test-secret", Expiration: time.Hour}
	if mutate != nil {
		mutate(cfg)
	}

	mem := store.NewMemory()
	fees := config.FeesConfig{LicenseBps: 200, CertificateFirstBps: 1000, CertificateNextBps: 200}
	engine := mapping.NewEngine(chain.StaticReader{}, fees, true, zap.NewNop(), nil)

	deps := Deps{
		Courses:      service.NewCourseService(mem, nil),
		Users:        service.NewUserService(mem, nil),
		Enrollments:  service.NewEnrollmentService(mem, nil),
		Certificates: service.NewCertificateService(mem, nil),
		Activities:   service.NewActivityService(mem, nil),
		Stats:        service.NewStatsService(mem, nil),
		Metrics:      service.NewMetricsService(),
		Admin:        service.NewAdminService(mem, engine, t.TempDir(), nil),
		Auth:         service.NewAuthService(cfg.Admin.JWTSecret, cfg.Admin.Expiration, nil),
		Backend:      mem,
	}

	r := gin.New()
	Register(r, cfg, deps)
	return r, mem
}

func doRequest(r *gin.Engine, method, path, token string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCourseEndpoints(t *testing.T) {
	r, mem := newTestServer(t, nil)
	ctx := context.Background()

	anchor := store.Anchor{At: time.Unix(1700000000, 0).UTC(), TxHash: "0xaa"}
	course := store.NewCourse("1", anchor)
	course.Title = "Intro to Contracts"
	course.Creator = "0xcreator"
	require.NoError(t, mem.SaveCourse(ctx, course))
	require.NoError(t, mem.SaveSection(ctx, store.NewSection("1", 1, anchor)))

	rec := doRequest(r, http.MethodGet, "/api/v1/courses", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.EqualValues(t, 1, env.Pagination["total_count"])

	rec = doRequest(r, http.MethodGet, "/api/v1/courses/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Intro to Contracts")
	require.Contains(t, rec.Body.String(), "sections")

	rec = doRequest(r, http.MethodGet, "/api/v1/courses/404", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/courses/1/sections", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCertificateOwnerLookupIsCaseInsensitive(t *testing.T) {
	r, mem := newTestServer(t, nil)
	ctx := context.Background()

	anchor := store.Anchor{At: time.Unix(1700000000, 0).UTC(), TxHash: "0xaa"}
	cert := store.NewCertificate("9", "0xowner", anchor)
	cert.Name = "Web3 Path"
	require.NoError(t, mem.SaveCertificate(ctx, cert))

	require.NoError(t, mem.SaveCertificateCourse(ctx, &models.CertificateCourse{
		ID:            store.CertificateCourseKey("9", "1"),
		CertificateID: "9",
		CourseID:      "1",
		EnrollmentID:  "5",
		PricePaid:     models.NewAmount(1000),
		PlatformFee:   models.NewAmount(100),
		AddedAt:       anchor.At,
	}))

	rec := doRequest(r, http.MethodGet, "/api/v1/certificates/owner/0xOWNER", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Web3 Path")

	rec = doRequest(r, http.MethodGet, "/api/v1/users/0xOWNER/certificates", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Web3 Path")

	rec = doRequest(r, http.MethodGet, "/api/v1/certificates/9", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/certificates/9/courses", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "enrollment_id")
}

func TestStatsAndProbes(t *testing.T) {
	r, _ := newTestServer(t, nil)

	for _, path := range []string{"/health", "/ready", "/metrics", "/api/v1/stats", "/api/v1/status"} {
		rec := doRequest(r, http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := doRequest(r, http.MethodGet, "/api/v1/stats", "", "")
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.Contains(t, string(env.Data), "contracts")
}

func TestStatusShowsReplayStateToOperatorsOnly(t *testing.T) {
	r, _ := newTestServer(t, nil)

	rec := doRequest(r, http.MethodGet, "/api/v1/status", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "replay_running")

	auth := service.NewAuthService("test-secret", time.Hour, nil)
	token, _, err := auth.IssueToken("ops")
	require.NoError(t, err)

	rec = doRequest(r, http.MethodGet, "/api/v1/status", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "replay_running")
}

func TestAdminRoutesRequireBearerToken(t *testing.T) {
	r, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Admin.Enabled = true
	})

	rec := doRequest(r, http.MethodPost, "/api/v1/admin/replay", "", `{"file":"dump.jsonl"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	auth := service.NewAuthService("test-secret", time.Hour, nil)
	token, _, err := auth.IssueToken("ops")
	require.NoError(t, err)

	// Authenticated but the dump does not exist.
	rec = doRequest(r, http.MethodPost, "/api/v1/admin/replay", token, `{"file":"dump.jsonl"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/admin/replay", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "running")
}

func TestDisabledFeaturesAreUnrouted(t *testing.T) {
	r, _ := newTestServer(t, nil)

	rec := doRequest(r, http.MethodPost, "/api/v1/exports", "", `{"kind":"activities_csv"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(r, http.MethodPost, "/api/v1/admin/replay", "", `{"file":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentAndUserEndpoints(t *testing.T) {
	r, mem := newTestServer(t, nil)
	ctx := context.Background()

	anchor := store.Anchor{At: time.Unix(1700000000, 0).UTC(), TxHash: "0xaa"}
	enrollment := store.NewEnrollment("5", "0xstudent", "1", anchor)
	require.NoError(t, mem.SaveEnrollment(ctx, enrollment))
	profile := store.NewProfile("0xstudent", anchor)
	profile.CoursesEnrolled = 1
	require.NoError(t, mem.SaveProfile(ctx, profile))
	require.NoError(t, mem.SaveStudentCourseEnrollment(ctx, &models.StudentCourseEnrollment{
		ID:           store.StudentCourseKey("0xstudent", "1"),
		Student:      "0xstudent",
		CourseID:     "1",
		EnrollmentID: "5",
	}))
	require.NoError(t, mem.SaveCourseEnrollment(ctx, &models.CourseEnrollment{
		ID:           store.CourseEnrollmentKey("1", "5"),
		CourseID:     "1",
		EnrollmentID: "5",
	}))

	rec := doRequest(r, http.MethodGet, "/api/v1/enrollments?student=0xstudent", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.EqualValues(t, 1, env.Pagination["total_count"])

	rec = doRequest(r, http.MethodGet, "/api/v1/enrollments/5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/users/0xSTUDENT", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/users/0xstudent/enrollments", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/enrollments/lookup?student=0xSTUDENT&courseId=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"id":"5"`)

	rec = doRequest(r, http.MethodGet, "/api/v1/enrollments/lookup?student=0xstudent", "", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(r, http.MethodGet, "/api/v1/courses/1/enrollments", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	env = envelope{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.EqualValues(t, 1, env.Pagination["total_count"])
}
