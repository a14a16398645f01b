package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/service"
	"github.com/noah-isme/fulfillment-api/pkg/response"
)

// BillingHandler exposes billing statement endpoints.
type BillingHandler struct {
	billing *service.BillingService
}

// NewBillingHandler constructs BillingHandler.
func NewBillingHandler(billing *service.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// Report godoc
// @Summary Billing breakdown for a customer
// @Description Per-item storage, prep and fulfillment costs with totals.
// @Tags Billing
// @Produce json
// @Param id path int true "Customer ID"
// @Param format query string false "Export format (csv or pdf); omit for JSON"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /customers/{id}/billing-report [get]
func (h *BillingHandler) Report(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if format := c.Query("format"); format != "" {
		payload, contentType, filename, err := h.billing.Export(c.Request.Context(), id, models.ReportFormat(format))
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Data(http.StatusOK, contentType, payload)
		return
	}

	report, err := h.billing.Report(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportLink godoc
// @Summary Create a signed download link for a billing statement
// @Description Persists the rendered statement and returns an expiring token.
// @Tags Billing
// @Produce json
// @Param id path int true "Customer ID"
// @Param format query string true "Export format (csv or pdf)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /customers/{id}/billing-report/export-link [post]
func (h *BillingHandler) ExportLink(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	link, err := h.billing.ExportLink(c.Request.Context(), id, models.ReportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, link, nil)
}

// Download godoc
// @Summary Download a persisted billing statement
// @Description Streams the statement referenced by a signed token.
// @Tags Billing
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /billing/exports/{token} [get]
func (h *BillingHandler) Download(c *gin.Context) {
	file, contentType, filename, err := h.billing.OpenExport(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, file)
}
