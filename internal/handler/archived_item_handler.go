package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fulfillment-api/internal/models"
	"github.com/noah-isme/fulfillment-api/internal/service"
	appErrors "github.com/noah-isme/fulfillment-api/pkg/errors"
	"github.com/noah-isme/fulfillment-api/pkg/response"
)

// ArchivedItemHandler exposes archive endpoints.
type ArchivedItemHandler struct {
	archives *service.ArchivedItemService
}

// NewArchivedItemHandler constructs ArchivedItemHandler.
func NewArchivedItemHandler(archives *service.ArchivedItemService) *ArchivedItemHandler {
	return &ArchivedItemHandler{archives: archives}
}

// List godoc
// @Summary List archived items
// @Tags Archive
// @Produce json
// @Param customer query int false "Filter by owning customer"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /archived-items [get]
func (h *ArchivedItemHandler) List(c *gin.Context) {
	var filter models.ArchivedItemFilter
	if raw := c.Query("customer"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Validation("invalid customer filter", map[string]string{
				"customer": "must be a numeric customer id",
			}))
			return
		}
		filter.CustomerID = &id
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	archives, pagination, err := h.archives.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archives, pagination)
}

// Get godoc
// @Summary Get archived item detail
// @Tags Archive
// @Produce json
// @Param id path int true "Archived item ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /archived-items/{id} [get]
func (h *ArchivedItemHandler) Get(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	archive, err := h.archives.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archive, nil)
}

// Create godoc
// @Summary Archive an item snapshot
// @Tags Archive
// @Accept json
// @Produce json
// @Param payload body service.CreateArchivedItemRequest true "Archive payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /archived-items [post]
func (h *ArchivedItemHandler) Create(c *gin.Context) {
	var req service.CreateArchivedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	archive, err := h.archives.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, archive)
}

// Update godoc
// @Summary Replace archived item
// @Tags Archive
// @Accept json
// @Produce json
// @Param id path int true "Archived item ID"
// @Param payload body service.UpdateArchivedItemRequest true "Archive payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /archived-items/{id} [put]
func (h *ArchivedItemHandler) Update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateArchivedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	archive, err := h.archives.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archive, nil)
}

// Patch godoc
// @Summary Partially update archived item
// @Tags Archive
// @Accept json
// @Produce json
// @Param id path int true "Archived item ID"
// @Param payload body service.PatchArchivedItemRequest true "Fields to update"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /archived-items/{id} [patch]
func (h *ArchivedItemHandler) Patch(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.PatchArchivedItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	archive, err := h.archives.Patch(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, archive, nil)
}

// Delete godoc
// @Summary Delete archived item
// @Tags Archive
// @Produce json
// @Param id path int true "Archived item ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /archived-items/{id} [delete]
func (h *ArchivedItemHandler) Delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.archives.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
