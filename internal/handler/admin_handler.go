package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/service"
	appErrors "github.com/learnledger/indexer/pkg/errors"
	"github.com/learnledger/indexer/pkg/response"
)

// AdminHandler exposes the JWT-protected operational endpoints.
type AdminHandler struct {
	admin *service.AdminService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

type replayRequest struct {
	File string `json:"file" binding:"required"`
}

// Replay godoc
// @Summary Replay a JSONL event dump through the mapping engine
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body replayRequest true "Dump file, relative to the replay directory"
// @Success 200 {object} response.Envelope
// @Router /admin/replay [post]
func (h *AdminHandler) Replay(c *gin.Context) {
	var req replayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.admin.Replay(c.Request.Context(), req.File)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Status godoc
// @Summary Report whether a replay is in flight
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/replay [get]
func (h *AdminHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{"running": h.admin.Running()}, nil)
}
