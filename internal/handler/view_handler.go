package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wellness-admin-console/internal/dto"
	"github.com/noah-isme/wellness-admin-console/internal/listing"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/internal/service"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
	"github.com/noah-isme/wellness-admin-console/pkg/response"
)

type viewRegistry interface {
	Open(ctx context.Context, req service.OpenViewRequest) (*service.View, error)
	Get(id string) (*service.View, error)
	Close(id string) error
	List() []*service.View
}

type snapshotExporter interface {
	Render(desc service.Descriptor, state listing.State[models.Document], format string) (*service.ExportFile, error)
	Publish(desc service.Descriptor, state listing.State[models.Document], format string) (*service.ExportResult, error)
	Resolve(token string) (*os.File, string, error)
}

// ViewHandler exposes server-driven list views.
type ViewHandler struct {
	views   viewRegistry
	exports snapshotExporter
}

// NewViewHandler constructs a view handler.
func NewViewHandler(views viewRegistry, exports snapshotExporter) *ViewHandler {
	return &ViewHandler{views: views, exports: exports}
}

// Resources godoc
// @Summary List manageable resources
// @Tags Views
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ViewHandler) Resources(c *gin.Context) {
	response.JSON(c, http.StatusOK, service.Resources(), nil)
}

// List godoc
// @Summary List mounted views
// @Tags Views
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /views [get]
func (h *ViewHandler) List(c *gin.Context) {
	views := h.views.List()
	out := make([]dto.ViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.NewViewResponse(v))
	}
	response.JSON(c, http.StatusOK, out, nil)
}

// Open godoc
// @Summary Mount a list view
// @Tags Views
// @Accept json
// @Produce json
// @Param payload body dto.OpenViewRequest true "View definition"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /views [post]
func (h *ViewHandler) Open(c *gin.Context) {
	var req dto.OpenViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid view payload"))
		return
	}
	view, err := h.views.Open(c.Request.Context(), service.OpenViewRequest{
		Resource:  req.Resource,
		Filters:   models.FiltersFrom(req.Filters),
		Limit:     req.Limit,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	h.writeView(c, http.StatusCreated, view)
}

// Get godoc
// @Summary Get view state
// @Tags Views
// @Produce json
// @Param id path string true "View ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /views/{id} [get]
func (h *ViewHandler) Get(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	h.writeView(c, http.StatusOK, view)
}

// Close godoc
// @Summary Unmount a view
// @Tags Views
// @Param id path string true "View ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /views/{id} [delete]
func (h *ViewHandler) Close(c *gin.Context) {
	if err := h.views.Close(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Refresh godoc
// @Summary Reload the current page
// @Tags Views
// @Produce json
// @Param id path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/refresh [post]
func (h *ViewHandler) Refresh(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	h.fetched(c, view, view.Controller.Refresh(c.Request.Context()))
}

// UpdateFilters godoc
// @Summary Merge filters into the view
// @Description Keys set to "" or null are cleared. The view returns to page 1 when the active filters change.
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param payload body object true "Partial filter set"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/filters [patch]
func (h *ViewHandler) UpdateFilters(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	var partial map[string]any
	if err := c.ShouldBindJSON(&partial); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "filters must be a JSON object"))
		return
	}
	h.fetched(c, view, view.Controller.UpdateFilters(c.Request.Context(), models.FiltersFrom(partial)))
}

// ResetFilters godoc
// @Summary Restore the view's initial filters
// @Tags Views
// @Produce json
// @Param id path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/filters/reset [post]
func (h *ViewHandler) ResetFilters(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	h.fetched(c, view, view.Controller.ResetFilters(c.Request.Context()))
}

// Search godoc
// @Summary Schedule a debounced search
// @Description Returns 202 while the search is pending; with flush=true it is applied before responding.
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param payload body dto.SearchRequest true "Search text"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /views/{id}/search [post]
func (h *ViewHandler) Search(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	var req dto.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid search payload"))
		return
	}
	view.Controller.Search(req.Text)
	if req.Flush {
		view.Controller.FlushSearch()
		h.writeView(c, http.StatusOK, view)
		return
	}
	h.writeView(c, http.StatusAccepted, view)
}

// ChangePage godoc
// @Summary Move to another page
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param payload body dto.PageRequest true "Page"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/page [post]
func (h *ViewHandler) ChangePage(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	var req dto.PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid page payload"))
		return
	}
	h.fetched(c, view, view.Controller.ChangePage(c.Request.Context(), req.Page))
}

// ChangeLimit godoc
// @Summary Change the page size
// @Description Takes effect on the next fetch.
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param payload body dto.LimitRequest true "Page size"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/limit [post]
func (h *ViewHandler) ChangeLimit(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	var req dto.LimitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid limit payload"))
		return
	}
	view.Controller.ChangeLimit(req.Limit)
	h.writeView(c, http.StatusOK, view)
}

// ClearError godoc
// @Summary Dismiss the view's fetch error
// @Tags Views
// @Produce json
// @Param id path string true "View ID"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/error [delete]
func (h *ViewHandler) ClearError(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	view.Controller.ClearError()
	h.writeView(c, http.StatusOK, view)
}

// CreateItem godoc
// @Summary Create a record through the view
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param payload body object true "Record payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /views/{id}/items [post]
func (h *ViewHandler) CreateItem(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	payload, ok := bindObject(c)
	if !ok {
		return
	}
	res := view.Controller.Create(c.Request.Context(), payload)
	if !res.OK() {
		response.Error(c, res.Err())
		return
	}
	h.mutated(c, http.StatusCreated, view, res.Raw())
}

// UpdateItem godoc
// @Summary Update a record through the view
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param itemId path string true "Record ID"
// @Param payload body object true "Record payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /views/{id}/items/{itemId} [put]
func (h *ViewHandler) UpdateItem(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	payload, ok := bindObject(c)
	if !ok {
		return
	}
	res := view.Controller.Update(c.Request.Context(), c.Param("itemId"), payload)
	if !res.OK() {
		response.Error(c, res.Err())
		return
	}
	h.mutated(c, http.StatusOK, view, res.Raw())
}

// ToggleItem godoc
// @Summary Flip a record's toggle field
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param itemId path string true "Record ID"
// @Param payload body dto.ToggleRequest true "Value before toggling"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/items/{itemId}/toggle [patch]
func (h *ViewHandler) ToggleItem(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	var req dto.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid toggle payload"))
		return
	}
	res := view.Controller.Toggle(c.Request.Context(), c.Param("itemId"), *req.Current)
	if !res.OK() {
		response.Error(c, res.Err())
		return
	}
	h.mutated(c, http.StatusOK, view, res.Raw())
}

// DeleteItem godoc
// @Summary Delete a record through the view
// @Tags Views
// @Produce json
// @Param id path string true "View ID"
// @Param itemId path string true "Record ID"
// @Success 200 {object} response.Envelope
// @Router /views/{id}/items/{itemId} [delete]
func (h *ViewHandler) DeleteItem(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	res := view.Controller.Remove(c.Request.Context(), c.Param("itemId"))
	if !res.OK() {
		response.Error(c, res.Err())
		return
	}
	h.mutated(c, http.StatusOK, view, res.Raw())
}

// ItemAction godoc
// @Summary Run an entity action
// @Description Actions depend on the resource, e.g. approve, reject, restore, cancel, revoke, resend-link.
// @Tags Views
// @Accept json
// @Produce json
// @Param id path string true "View ID"
// @Param itemId path string true "Record ID"
// @Param action path string true "Action name"
// @Param payload body object false "Action payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /views/{id}/items/{itemId}/actions/{action} [post]
func (h *ViewHandler) ItemAction(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unable to read payload"))
		return
	}
	var payload any
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
		payload = json.RawMessage(trimmed)
		if !json.Valid(trimmed) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "payload must be valid JSON"))
			return
		}
	}
	res := view.Action(c.Request.Context(), c.Param("itemId"), c.Param("action"), payload)
	if !res.OK() {
		response.Error(c, res.Err())
		return
	}
	h.mutated(c, http.StatusOK, view, res.Raw())
}

// Export godoc
// @Summary Export the view's current page
// @Description Streams the file, or with link=true stores it and returns a signed download URL.
// @Tags Exports
// @Produce json,text/csv,application/pdf
// @Param id path string true "View ID"
// @Param format query string false "csv or pdf" default(csv)
// @Param link query bool false "Return a signed link instead of the file"
// @Success 200 {file} file
// @Success 201 {object} response.Envelope
// @Router /views/{id}/export [get]
func (h *ViewHandler) Export(c *gin.Context) {
	view, ok := h.view(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", "csv")
	state := view.Controller.State()
	if c.Query("link") == "true" {
		result, err := h.exports.Publish(view.Descriptor, state, format)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, result)
		return
	}
	file, err := h.exports.Render(view.Descriptor, state, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Download godoc
// @Summary Download a stored export
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/{token} [get]
func (h *ViewHandler) Download(c *gin.Context) {
	f, name, err := h.exports.Resolve(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer f.Close() //nolint:errcheck
	info, err := f.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), f)
}

func (h *ViewHandler) view(c *gin.Context) (*service.View, bool) {
	view, err := h.views.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return view, true
}

// fetched answers a list operation. Fetch failures live in the view state,
// but a closed view is reported as such.
func (h *ViewHandler) fetched(c *gin.Context, view *service.View, res interface{ Err() *appErrors.Error }) {
	if err := res.Err(); err != nil && err.Code == appErrors.ErrViewClosed.Code {
		response.Error(c, err)
		return
	}
	h.writeView(c, http.StatusOK, view)
}

func (h *ViewHandler) writeView(c *gin.Context, status int, view *service.View) {
	body := dto.NewViewResponse(view)
	response.JSON(c, status, body, &body.State.Pagination, map[string]interface{}{"version": body.State.Version})
}

func (h *ViewHandler) mutated(c *gin.Context, status int, view *service.View, raw json.RawMessage) {
	body := dto.MutationResponse{Record: raw, View: dto.NewViewResponse(view)}
	response.JSON(c, status, body, nil, map[string]interface{}{"version": body.View.State.Version})
}

func bindObject(c *gin.Context) (map[string]any, bool) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "payload must be a JSON object"))
		return nil, false
	}
	return payload, true
}
