package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/pkg/response"
)

// UserHandler exposes per-address profile endpoints.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Get godoc
// @Summary Get an address's profile
// @Tags Users
// @Produce json
// @Param address path string true "Account address"
// @Success 200 {object} response.Envelope
// @Router /users/{address} [get]
func (h *UserHandler) Get(c *gin.Context) {
	profile, err := h.users.Get(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Enrollments godoc
// @Summary List an address's enrollments
// @Tags Users
// @Produce json
// @Param address path string true "Account address"
// @Param active query bool false "Filter by active state"
// @Param completed query bool false "Filter by completion"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users/{address}/enrollments [get]
func (h *UserHandler) Enrollments(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.Active = boolQuery(c, "active")
	filter.Completed = boolQuery(c, "completed")
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.users.Enrollments(c.Request.Context(), c.Param("address"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Courses godoc
// @Summary List courses created by an address
// @Tags Users
// @Produce json
// @Param address path string true "Account address"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users/{address}/courses [get]
func (h *UserHandler) Courses(c *gin.Context) {
	var filter models.CourseFilter
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	courses, pagination, err := h.users.CreatedCourses(c.Request.Context(), c.Param("address"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Activity godoc
// @Summary List an address's audit trail, latest first
// @Tags Users
// @Produce json
// @Param address path string true "Account address"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users/{address}/activity [get]
func (h *UserHandler) Activity(c *gin.Context) {
	var filter models.ActivityFilter
	filter.Page, filter.PageSize = pageQuery(c)

	activities, pagination, err := h.users.Activity(c.Request.Context(), c.Param("address"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, pagination)
}
