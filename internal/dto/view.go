package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/wellness-admin-console/internal/listing"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/internal/service"
)

// OpenViewRequest mounts a list view over a resource.
type OpenViewRequest struct {
	Resource  string         `json:"resource" binding:"required"`
	Filters   map[string]any `json:"filters"`
	Limit     int            `json:"limit" binding:"omitempty,min=1,max=200"`
	SortBy    string         `json:"sortBy"`
	SortOrder string         `json:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// SearchRequest schedules a debounced search. Flush applies it immediately.
type SearchRequest struct {
	Text  string `json:"text"`
	Flush bool   `json:"flush"`
}

// PageRequest moves the view to another page.
type PageRequest struct {
	Page int `json:"page" binding:"required,min=1"`
}

// LimitRequest changes the page size for the next fetch.
type LimitRequest struct {
	Limit int `json:"limit" binding:"required,min=1,max=200"`
}

// ToggleRequest flips a record's boolean toggle. Current is the value the
// operator saw before toggling.
type ToggleRequest struct {
	Current *bool `json:"current" binding:"required"`
}

// ViewResponse describes a mounted view and its current state.
type ViewResponse struct {
	ID          string                         `json:"id"`
	Resource    string                         `json:"resource"`
	Title       string                         `json:"title"`
	Columns     []service.Column               `json:"columns"`
	ToggleField string                         `json:"toggleField,omitempty"`
	Actions     []string                       `json:"actions,omitempty"`
	OpenedAt    time.Time                      `json:"openedAt"`
	Summary     string                         `json:"summary"`
	State       listing.State[models.Document] `json:"state"`
}

// MutationResponse pairs the server's answer to a record mutation with the
// view state after it was applied.
type MutationResponse struct {
	Record json.RawMessage `json:"record,omitempty" swaggertype:"object"`
	View   ViewResponse    `json:"view"`
}

// NewViewResponse snapshots view.
func NewViewResponse(view *service.View) ViewResponse {
	state := view.Controller.State()
	return ViewResponse{
		ID:          view.ID,
		Resource:    view.Descriptor.Name,
		Title:       view.Descriptor.Title,
		Columns:     view.Descriptor.Columns,
		ToggleField: view.Descriptor.ToggleField,
		Actions:     view.Descriptor.Actions,
		OpenedAt:    view.OpenedAt,
		Summary:     service.PageSummary(state.Pagination),
		State:       state,
	}
}
