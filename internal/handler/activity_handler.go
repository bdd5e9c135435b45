package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/pkg/response"
)

// ActivityHandler exposes the platform-wide audit trail.
type ActivityHandler struct {
	activities *service.ActivityService
}

// NewActivityHandler constructs ActivityHandler.
func NewActivityHandler(activities *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activities: activities}
}

// List godoc
// @Summary List activities, latest block first
// @Tags Activities
// @Produce json
// @Param actor query string false "Filter by actor address"
// @Param contract query string false "Filter by contract stream"
// @Param entityType query string false "Filter by entity type"
// @Param entityId query string false "Filter by entity id"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activities [get]
func (h *ActivityHandler) List(c *gin.Context) {
	var filter models.ActivityFilter
	filter.Actor = strings.ToLower(c.Query("actor"))
	filter.Contract = c.Query("contract")
	filter.EntityType = c.Query("entityType")
	filter.EntityID = c.Query("entityId")
	filter.Page, filter.PageSize = pageQuery(c)

	activities, pagination, err := h.activities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, pagination)
}
