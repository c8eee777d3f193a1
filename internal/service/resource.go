package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

type apiDoer interface {
	Do(ctx context.Context, req apiclient.Request) apiclient.Result[json.RawMessage]
}

// Resource maps one collection endpoint and its item endpoints onto adapter
// calls. It shapes parameters only; payloads pass through unmodified.
type Resource[T models.Record] struct {
	client   apiDoer
	basePath string
}

// NewResource builds a resource service rooted at basePath, e.g. "/programs".
func NewResource[T models.Record](client apiDoer, basePath string) *Resource[T] {
	return &Resource[T]{client: client, basePath: "/" + strings.Trim(basePath, "/")}
}

// BasePath returns the collection path.
func (r *Resource[T]) BasePath() string { return r.basePath }

// GetAll lists one page of the collection.
func (r *Resource[T]) GetAll(ctx context.Context, params models.ListParams) apiclient.Result[models.Page[T]] {
	res := r.client.Do(ctx, apiclient.Request{
		Method: http.MethodGet,
		Path:   r.basePath,
		Route:  r.basePath,
		Query:  ListQuery(params),
	})
	if !res.OK() {
		return apiclient.Fail[models.Page[T]](res.Err())
	}
	page, err := decodePage[T](res.Value(), params)
	if err != nil {
		return apiclient.Fail[models.Page[T]](appErrors.Wrap(err, appErrors.ErrDecode.Code, appErrors.ErrDecode.Status, appErrors.ErrDecode.Message))
	}
	return apiclient.Ok(page, res.Raw())
}

// GetByID loads a single record.
func (r *Resource[T]) GetByID(ctx context.Context, id string) apiclient.Result[T] {
	path, err := r.itemPath(id)
	if err != nil {
		return apiclient.Fail[T](err)
	}
	return apiclient.Decode[T](r.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Route: r.basePath + "/:id"}))
}

// Create posts a new record.
func (r *Resource[T]) Create(ctx context.Context, payload any) apiclient.Result[T] {
	return apiclient.Decode[T](r.client.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: r.basePath, Route: r.basePath, Body: payload}))
}

// Update replaces a record's fields.
func (r *Resource[T]) Update(ctx context.Context, id string, payload any) apiclient.Result[T] {
	path, err := r.itemPath(id)
	if err != nil {
		return apiclient.Fail[T](err)
	}
	return apiclient.Decode[T](r.client.Do(ctx, apiclient.Request{Method: http.MethodPut, Path: path, Route: r.basePath + "/:id", Body: payload}))
}

// Delete removes a record. Most resources soft delete; see Restore.
func (r *Resource[T]) Delete(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	path, err := r.itemPath(id)
	if err != nil {
		return apiclient.Fail[json.RawMessage](err)
	}
	return r.client.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: path, Route: r.basePath + "/:id"})
}

// Restore brings back a soft-deleted record.
func (r *Resource[T]) Restore(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return r.Action(ctx, id, "restore", nil)
}

// Action calls PATCH /<resource>/:id/<action>.
func (r *Resource[T]) Action(ctx context.Context, id, action string, payload any) apiclient.Result[json.RawMessage] {
	path, err := r.itemPath(id)
	if err != nil {
		return apiclient.Fail[json.RawMessage](err)
	}
	action = strings.Trim(strings.TrimSpace(action), "/")
	if action == "" {
		return apiclient.Fail[json.RawMessage](appErrors.Clone(appErrors.ErrValidation, "action is required"))
	}
	return r.client.Do(ctx, apiclient.Request{
		Method: http.MethodPatch,
		Path:   path + "/" + url.PathEscape(action),
		Route:  r.basePath + "/:id/" + action,
		Body:   payload,
	})
}

func (r *Resource[T]) itemPath(id string) (string, *appErrors.Error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "id is required")
	}
	return r.basePath + "/" + url.PathEscape(id), nil
}

// ListQuery renders list params, sending only keys that carry a value.
func ListQuery(params models.ListParams) url.Values {
	values := make(map[string]any, len(params.Filters)+4)
	for k, v := range params.Filters {
		values[k] = v
	}
	if params.Page > 0 {
		values["page"] = params.Page
	}
	if params.Limit > 0 {
		values["limit"] = params.Limit
	}
	values["sortBy"] = params.SortBy
	values["sortOrder"] = params.SortOrder
	return apiclient.BuildQuery(values)
}

// decodePage accepts {items, pagination}, a {data, pagination} variant and a
// bare array, and fills in cursor fields the server left out.
func decodePage[T any](raw json.RawMessage, params models.ListParams) (models.Page[T], error) {
	var page models.Page[T]
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &page.Items); err != nil {
			return page, err
		}
		page.Pagination.TotalCount = len(page.Items)
	default:
		var body struct {
			Items      json.RawMessage    `json:"items"`
			Data       json.RawMessage    `json:"data"`
			Pagination *models.Pagination `json:"pagination"`
		}
		if err := json.Unmarshal(trimmed, &body); err != nil {
			return page, err
		}
		items := body.Items
		if len(items) == 0 {
			items = body.Data
		}
		if len(items) > 0 && !bytes.Equal(bytes.TrimSpace(items), []byte("null")) {
			if err := json.Unmarshal(items, &page.Items); err != nil {
				return page, err
			}
		}
		if body.Pagination != nil {
			page.Pagination = *body.Pagination
		} else {
			page.Pagination.TotalCount = len(page.Items)
		}
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	normalizePagination(&page.Pagination, params, len(page.Items))
	return page, nil
}

func normalizePagination(p *models.Pagination, params models.ListParams, itemCount int) {
	if p.Limit <= 0 {
		p.Limit = params.Limit
	}
	if p.Limit <= 0 {
		p.Limit = models.DefaultLimit
	}
	if p.CurrentPage <= 0 {
		p.CurrentPage = max(params.Page, 1)
	}
	if p.TotalCount < itemCount {
		p.TotalCount = itemCount
	}
	if p.TotalPages <= 0 {
		p.TotalPages = models.TotalPages(p.TotalCount, p.Limit)
	}
}
