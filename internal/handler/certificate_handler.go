package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnledger/indexer/internal/service"
	"github.com/learnledger/indexer/pkg/response"
)

// CertificateHandler exposes certificate endpoints.
type CertificateHandler struct {
	certificates *service.CertificateService
}

// NewCertificateHandler constructs CertificateHandler.
func NewCertificateHandler(certificates *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Get godoc
// @Summary Get a certificate with its course history
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate token ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	cert, err := h.certificates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// Courses godoc
// @Summary List the course history rows of a certificate
// @Tags Certificates
// @Produce json
// @Param id path string true "Certificate token ID"
// @Success 200 {object} response.Envelope
// @Router /certificates/{id}/courses [get]
func (h *CertificateHandler) Courses(c *gin.Context) {
	courses, err := h.certificates.Courses(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ByOwner godoc
// @Summary Get the certificate owned by an address
// @Tags Certificates
// @Produce json
// @Param address path string true "Owner address"
// @Success 200 {object} response.Envelope
// @Router /certificates/owner/{address} [get]
func (h *CertificateHandler) ByOwner(c *gin.Context) {
	cert, err := h.certificates.ByOwner(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}
