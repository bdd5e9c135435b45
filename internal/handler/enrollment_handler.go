package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/pkg/response"
)

// EnrollmentHandler exposes license/enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param student query string false "Filter by student address"
// @Param courseId query string false "Filter by course"
// @Param active query bool false "Filter by active state"
// @Param completed query bool false "Filter by completion"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.Student = strings.ToLower(c.Query("student"))
	filter.CourseID = c.Query("courseId")
	filter.Active = boolQuery(c, "active")
	filter.Completed = boolQuery(c, "completed")
	filter.Page, filter.PageSize = pageQuery(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// ByCourse godoc
// @Summary List one course's enrollments
// @Tags Enrollments
// @Produce json
// @Param id path string true "Course ID"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/enrollments [get]
func (h *EnrollmentHandler) ByCourse(c *gin.Context) {
	var filter models.EnrollmentFilter
	filter.CourseID = c.Param("id")
	filter.Active = boolQuery(c, "active")
	filter.Completed = boolQuery(c, "completed")
	filter.Page, filter.PageSize = pageQuery(c)

	enrollments, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, pagination)
}

// Lookup godoc
// @Summary Resolve the enrollment for a student and course
// @Tags Enrollments
// @Produce json
// @Param student query string true "Student address"
// @Param courseId query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/lookup [get]
func (h *EnrollmentHandler) Lookup(c *gin.Context) {
	enrollment, err := h.enrollments.Lookup(c.Request.Context(), c.Query("student"), c.Query("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Get godoc
// @Summary Get one enrollment by license token id
// @Tags Enrollments
// @Produce json
// @Param id path string true "License token ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	enrollment, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}
