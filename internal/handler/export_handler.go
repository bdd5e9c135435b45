package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/models"
	"github.com/learnledger/indexer/internal/service"
	appErrors "github.com/learnledger/indexer/pkg/errors"
	"github.com/learnledger/indexer/pkg/response"
)

// ExportHandler exposes async CSV/PDF export generation.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

type createExportRequest struct {
	Kind          string `json:"kind" binding:"required"`
	CertificateID string `json:"certificate_id"`
	Actor         string `json:"actor"`
	Contract      string `json:"contract"`
}

// Create godoc
// @Summary Submit an export job
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body createExportRequest true "Export parameters"
// @Success 201 {object} response.Envelope
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req createExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	job, err := h.exports.Submit(c.Request.Context(), service.ExportRequest{
		Kind:          service.ExportKind(req.Kind),
		CertificateID: req.CertificateID,
		Activities: models.ActivityFilter{
			Actor:    strings.ToLower(req.Actor),
			Contract: req.Contract,
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// Get godoc
// @Summary Poll an export job
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	job, err := h.exports.Job(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a rendered export via its signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	f, err := h.exports.Open(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close() //nolint:errcheck
	c.File(f.Name())
}
