package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/middleware"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/internal/store"
	"github.com/learnledger/indexer/pkg/config"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Courses      *service.CourseService
	Users        *service.UserService
	Enrollments  *service.EnrollmentService
	Certificates *service.CertificateService
	Activities   *service.ActivityService
	Stats        *service.StatsService
	Metrics      *service.MetricsService
	Exports      *service.ExportService
	Admin        *service.AdminService
	Auth         *service.AuthService
	Cache        *service.CacheService
	Backend      store.Backend
}

// Register wires every route group onto the engine. The admin and export
// groups are only mounted when their features are enabled; disabled features
// 404 like any unknown route.
func Register(r *gin.Engine, cfg *config.Config, deps Deps) {
	statsHandler := NewStatsHandler(deps.Stats, deps.Metrics, deps.Backend, deps.Admin)
	r.GET("/health", statsHandler.Health)
	r.GET("/ready", statsHandler.Ready)
	r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())
	api.Use(middleware.Metrics(deps.Metrics))
	if deps.Cache != nil {
		api.Use(middleware.CachePage(deps.Cache, cfg.Query.CacheTTL))
	}

	// Status is public; an admin token adds operator-only fields.
	if deps.Auth != nil {
		api.GET("/status", middleware.OptionalJWT(deps.Auth), statsHandler.Status)
	} else {
		api.GET("/status", statsHandler.Status)
	}
	api.GET("/stats", statsHandler.Overview)

	enrollmentHandler := NewEnrollmentHandler(deps.Enrollments)
	certificateHandler := NewCertificateHandler(deps.Certificates)

	courseHandler := NewCourseHandler(deps.Courses)
	api.GET("/courses", courseHandler.List)
	api.GET("/courses/:id", courseHandler.Get)
	api.GET("/courses/:id/sections", courseHandler.Sections)
	api.GET("/courses/:id/enrollments", enrollmentHandler.ByCourse)

	userHandler := NewUserHandler(deps.Users)
	api.GET("/users/:address", userHandler.Get)
	api.GET("/users/:address/enrollments", userHandler.Enrollments)
	api.GET("/users/:address/courses", userHandler.Courses)
	api.GET("/users/:address/certificates", certificateHandler.ByOwner)
	api.GET("/users/:address/activity", userHandler.Activity)

	api.GET("/enrollments", enrollmentHandler.List)
	api.GET("/enrollments/lookup", enrollmentHandler.Lookup)
	api.GET("/enrollments/:id", enrollmentHandler.Get)

	api.GET("/certificates/:id", certificateHandler.Get)
	api.GET("/certificates/:id/courses", certificateHandler.Courses)
	api.GET("/certificates/owner/:address", certificateHandler.ByOwner)

	activityHandler := NewActivityHandler(deps.Activities)
	api.GET("/activities", activityHandler.List)

	if cfg.Exports.Enabled && deps.Exports != nil {
		exportHandler := NewExportHandler(deps.Exports)
		// Downloads carry their own signed token; everything else behind JWT.
		api.GET("/exports/download/:token", exportHandler.Download)
		exports := api.Group("/exports", middleware.JWT(deps.Auth))
		exports.POST("", exportHandler.Create)
		exports.GET("/:id", exportHandler.Get)
	}

	if cfg.Admin.Enabled && deps.Admin != nil {
		adminHandler := NewAdminHandler(deps.Admin)
		admin := api.Group("/admin", middleware.JWT(deps.Auth))
		admin.POST("/replay", adminHandler.Replay)
		admin.GET("/replay", adminHandler.Status)
	}
}
