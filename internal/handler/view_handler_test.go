package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin-console/internal/auth"
	"github.com/noah-isme/wellness-admin-console/internal/dto"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/internal/service"
	"github.com/noah-isme/wellness-admin-console/internal/testutil/fakeapi"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
	"github.com/noah-isme/wellness-admin-console/pkg/storage"
)

type envelope struct {
	Data       json.RawMessage    `json:"data"`
	Error      *appErrors.Error   `json:"error"`
	Pagination *models.Pagination `json:"pagination"`
	Meta       map[string]any     `json:"meta"`
}

type console struct {
	t      *testing.T
	fake   *fakeapi.Server
	router *gin.Engine
	views  *service.ViewService
	token  string
}

func newConsole(t *testing.T, verifier *auth.Verifier) *console {
	t.Helper()
	gin.SetMode(gin.TestMode)
	fake := fakeapi.New(t)
	client, err := apiclient.New(apiclient.Config{BaseURL: fake.URL()})
	require.NoError(t, err)

	metrics := service.NewMetricsService()
	views := service.NewViewService(client, service.ViewConfig{SearchDelay: time.Hour}, metrics, nil)
	t.Cleanup(views.Shutdown)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exports := service.NewExportService(store, storage.NewSignedURLSigner("secret", time.Hour), service.ExportConfig{APIPrefix: "/api/v1"}, nil)

	router := NewRouter(RouterConfig{
		APIPrefix: "/api/v1",
		Metrics:   metrics,
		Verifier:  verifier,
		Views:     views,
		Exports:   exports,
	})
	return &console{t: t, fake: fake, router: router, views: views}
}

func (c *console) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (c *console) open(req dto.OpenViewRequest) dto.ViewResponse {
	c.t.Helper()
	rec, env := c.do(http.MethodPost, "/api/v1/views", req)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeView(c.t, env.Data)
}

func decodeView(t *testing.T, raw json.RawMessage) dto.ViewResponse {
	t.Helper()
	var view dto.ViewResponse
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

func decodeMutation(t *testing.T, raw json.RawMessage) dto.MutationResponse {
	t.Helper()
	var out dto.MutationResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestOpenViewAndPaginate(t *testing.T) {
	c := newConsole(t, nil)
	for i := 0; i < 45; i++ {
		c.fake.Seed("feature-requests", map[string]any{"status": "PENDING", "userId": "u"})
	}
	c.fake.Seed("feature-requests", map[string]any{"status": "APPROVED", "userId": "u"})

	view := c.open(dto.OpenViewRequest{Resource: "feature-requests", Filters: map[string]any{"status": "PENDING"}})
	assert.Equal(t, "feature-requests", view.Resource)
	assert.Len(t, view.State.Items, 20)
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 3, TotalCount: 45, Limit: 20}, view.State.Pagination)
	assert.Equal(t, "page 1 of 3 (45 total)", view.Summary)

	rec, env := c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/page", dto.PageRequest{Page: 3})
	require.Equal(t, http.StatusOK, rec.Code)
	paged := decodeView(t, env.Data)
	assert.Len(t, paged.State.Items, 5)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.CurrentPage)
	assert.Greater(t, env.Meta["version"], float64(view.State.Version))

	rec, _ = c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/page", dto.PageRequest{Page: 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = c.do(http.MethodGet, "/api/v1/views/"+view.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decodeView(t, env.Data).State.Pagination.CurrentPage)
}

func TestFiltersSearchAndReset(t *testing.T) {
	c := newConsole(t, nil)
	c.fake.Seed("programs",
		map[string]any{"title": "Morning Yoga", "isLive": true},
		map[string]any{"title": "Evening Yoga", "isLive": false},
		map[string]any{"title": "Breathwork", "isLive": true},
	)
	view := c.open(dto.OpenViewRequest{Resource: "programs"})
	require.Len(t, view.State.Items, 3)
	base := len(c.fake.RequestsTo(http.MethodGet, "/programs"))

	rec, env := c.do(http.MethodPatch, "/api/v1/views/"+view.ID+"/filters", map[string]any{"isLive": true})
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decodeView(t, env.Data)
	assert.Len(t, filtered.State.Items, 2)
	assert.Equal(t, "true", filtered.State.Filters["isLive"])
	assert.Len(t, c.fake.RequestsTo(http.MethodGet, "/programs"), base+1)

	// same value again: nothing to fetch
	c.do(http.MethodPatch, "/api/v1/views/"+view.ID+"/filters", map[string]any{"isLive": "true"})
	assert.Len(t, c.fake.RequestsTo(http.MethodGet, "/programs"), base+1)

	rec, env = c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/search", dto.SearchRequest{Text: "yoga"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, decodeView(t, env.Data).State.Filters["search"])

	rec, env = c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/search", dto.SearchRequest{Text: "morning", Flush: true})
	require.Equal(t, http.StatusOK, rec.Code)
	searched := decodeView(t, env.Data)
	assert.Equal(t, "morning", searched.State.Filters["search"])
	require.Len(t, searched.State.Items, 1)
	assert.Equal(t, "Morning Yoga", searched.State.Items[0].String("title"))

	rec, env = c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/filters/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	reset := decodeView(t, env.Data)
	assert.Len(t, reset.State.Items, 3)
	assert.Empty(t, reset.State.Filters["search"])
	assert.Empty(t, reset.State.Filters["isLive"])
}

func TestChangeLimitDoesNotFetch(t *testing.T) {
	c := newConsole(t, nil)
	for i := 0; i < 5; i++ {
		c.fake.Seed("coupons", map[string]any{"code": "C"})
	}
	view := c.open(dto.OpenViewRequest{Resource: "coupons"})
	before := len(c.fake.Requests())

	rec, env := c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/limit", dto.LimitRequest{Limit: 2})
	require.Equal(t, http.StatusOK, rec.Code)
	limited := decodeView(t, env.Data)
	assert.Equal(t, 2, limited.State.Pagination.Limit)
	assert.Len(t, limited.State.Items, 2)
	assert.Len(t, c.fake.Requests(), before)

	rec, _ = c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/limit", dto.LimitRequest{Limit: 500})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemMutations(t *testing.T) {
	c := newConsole(t, nil)
	ids := c.fake.Seed("coupons",
		map[string]any{"code": "WELCOME", "isActive": true},
		map[string]any{"code": "SPRING", "isActive": true},
	)
	view := c.open(dto.OpenViewRequest{Resource: "coupons"})
	items := "/api/v1/views/" + view.ID + "/items"

	rec, env := c.do(http.MethodPost, items, map[string]any{"discountValue": 5})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, []appErrors.FieldError{{Field: "code", Message: "code is required"}}, env.Error.Fields)

	rec, env = c.do(http.MethodPost, items, map[string]any{"code": "SUMMER"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeMutation(t, env.Data)
	assert.Contains(t, string(created.Record), "SUMMER")
	assert.Len(t, created.View.State.Items, 3)

	rec, env = c.do(http.MethodPut, items+"/"+ids[0], map[string]any{"description": "first order"})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeMutation(t, env.Data)
	for _, item := range updated.View.State.Items {
		if item.GetID() == ids[0] {
			assert.Equal(t, "first order", item.String("description"))
		}
	}

	rec, env = c.do(http.MethodPatch, items+"/"+ids[1]+"/toggle", map[string]any{"current": true})
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decodeMutation(t, env.Data)
	for _, item := range toggled.View.State.Items {
		if item.GetID() == ids[1] {
			assert.Equal(t, "false", item.String("isActive"))
		}
	}
	rec, _ = c.do(http.MethodPatch, items+"/"+ids[1]+"/toggle", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = c.do(http.MethodDelete, items+"/"+ids[0], nil)
	require.Equal(t, http.StatusOK, rec.Code)
	removed := decodeMutation(t, env.Data)
	assert.Len(t, removed.View.State.Items, 2)
	assert.Equal(t, 2, removed.View.State.Pagination.TotalCount)

	rec, env = c.do(http.MethodDelete, items+"/"+ids[0], nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "record not found", env.Error.Message)
}

func TestItemActions(t *testing.T) {
	c := newConsole(t, nil)
	ids := c.fake.Seed("feature-requests", map[string]any{"status": "PENDING", "userId": "u1"})
	view := c.open(dto.OpenViewRequest{Resource: "feature-requests", Filters: map[string]any{"status": "PENDING"}})
	actions := "/api/v1/views/" + view.ID + "/items/" + ids[0] + "/actions/"

	rec, env := c.do(http.MethodPost, actions+"approve", map[string]any{"adminNote": "enjoy"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	approved := decodeMutation(t, env.Data)
	assert.Empty(t, approved.View.State.Items)
	rec2, _ := c.fake.Record("feature-requests", ids[0])
	assert.Equal(t, "enjoy", rec2["adminNote"])

	rec, env = c.do(http.MethodPost, actions+"reject", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "request has already been approved", env.Error.Message)

	rec, _ = c.do(http.MethodPost, actions+"toggle-live", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = c.do(http.MethodPost, actions+"approve", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFetchFailureShowsInState(t *testing.T) {
	c := newConsole(t, nil)
	c.fake.Seed("sessions", map[string]any{"title": "Intro"})
	c.fake.FailNext(http.MethodGet, "sessions", http.StatusServiceUnavailable, "maintenance")

	view := c.open(dto.OpenViewRequest{Resource: "sessions"})
	require.NotNil(t, view.State.Error)
	assert.Equal(t, "maintenance", *view.State.Error)
	assert.Empty(t, view.State.Items)

	rec, env := c.do(http.MethodDelete, "/api/v1/views/"+view.ID+"/error", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeView(t, env.Data).State.Error)

	rec, env = c.do(http.MethodPost, "/api/v1/views/"+view.ID+"/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeView(t, env.Data).State.Items, 1)
}

func TestViewLifecycle(t *testing.T) {
	c := newConsole(t, nil)
	rec, env := c.do(http.MethodPost, "/api/v1/views", dto.OpenViewRequest{Resource: "lessons"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown resource lessons", env.Error.Message)

	rec, _ = c.do(http.MethodPost, "/api/v1/views", map[string]any{"resource": "quizzes", "sortOrder": "sideways"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	view := c.open(dto.OpenViewRequest{Resource: "quizzes"})
	rec, env = c.do(http.MethodGet, "/api/v1/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []dto.ViewResponse
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	assert.Len(t, listed, 1)

	rec, _ = c.do(http.MethodDelete, "/api/v1/views/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = c.do(http.MethodGet, "/api/v1/views/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = c.do(http.MethodGet, "/api/v1/resources", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resources []service.Descriptor
	require.NoError(t, json.Unmarshal(env.Data, &resources))
	assert.Len(t, resources, len(service.ResourceNames()))
}

func TestExportStreamAndSignedLink(t *testing.T) {
	c := newConsole(t, nil)
	c.fake.Seed("vouchers", map[string]any{"code": "V-100", "isActive": true})
	view := c.open(dto.OpenViewRequest{Resource: "vouchers"})

	rec, _ := c.do(http.MethodGet, "/api/v1/views/"+view.ID+"/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "vouchers_p1_")
	assert.Contains(t, rec.Body.String(), "V-100")

	rec, _ = c.do(http.MethodGet, "/api/v1/views/"+view.ID+"/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env := c.do(http.MethodGet, "/api/v1/views/"+view.ID+"/export?format=pdf&link=true", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var link service.ExportResult
	require.NoError(t, json.Unmarshal(env.Data, &link))
	require.True(t, strings.HasPrefix(link.URL, "/api/v1/exports/"))

	rec, _ = c.do(http.MethodGet, link.URL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))

	rec, _ = c.do(http.MethodGet, link.URL+"tampered", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestConsoleAuth(t *testing.T) {
	verifier := auth.NewVerifier("console-secret", "wellness-admin-console")
	c := newConsole(t, verifier)

	rec, _ := c.do(http.MethodGet, "/api/v1/resources", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := verifier.Issue("op-1", "ops@example.com", time.Minute)
	require.NoError(t, err)
	c.token = token
	rec, _ = c.do(http.MethodGet, "/api/v1/resources", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	c.token = ""
	rec, _ = c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	c := newConsole(t, nil)
	c.open(dto.OpenViewRequest{Resource: "subscriptions"})

	rec, _ := c.do(http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","views":1}`, rec.Body.String())

	rec, _ = c.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "console_views_active 1")
	assert.Contains(t, body, `listing_fetches_total{outcome="ok",resource="subscriptions"} 1`)
	assert.Contains(t, body, `http_requests_total{method="POST",path="/api/v1/views",status="201"} 1`)
}
