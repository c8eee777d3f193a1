// Package fakeapi is an in-memory stand-in for the platform's admin REST API,
// used by tests of the services, the list controller, the console and the CLI.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Prefix is the path every route is served under.
const Prefix = "/api/v1"

// required lists the payload keys each resource insists on at creation.
var required = map[string]string{
	"programs":        "title",
	"quizzes":         "title",
	"sessions":        "title",
	"coupons":         "code",
	"vouchers":        "code",
	"feature-pricing": "name",
}

// Recorded is one request the fake received.
type Recorded struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
	Header http.Header
}

type failure struct {
	method   string
	resource string
	status   int
	message  string
}

type collection struct {
	order   []string
	records map[string]map[string]any
}

// Server is a running fake upstream.
type Server struct {
	mu          sync.Mutex
	collections map[string]*collection
	token       string
	requests    []Recorded
	failures    []failure
	latency     func(r *http.Request) time.Duration
	seq         int

	httpServer *httptest.Server
}

// Option configures a Server.
type Option func(*Server)

// WithToken makes every route require "Authorization: Bearer <token>".
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithLatency delays each response by the returned duration.
func WithLatency(fn func(r *http.Request) time.Duration) Option {
	return func(s *Server) { s.latency = fn }
}

// New starts a fake upstream that is closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := &Server{collections: make(map[string]*collection)}
	for _, opt := range opts {
		opt(s)
	}
	s.httpServer = httptest.NewServer(s.router())
	t.Cleanup(s.httpServer.Close)
	return s
}

// URL returns the API base URL including Prefix.
func (s *Server) URL() string { return s.httpServer.URL + Prefix }

// Seed inserts records into a resource, assigning ids where missing.
func (s *Server) Seed(resource string, records ...map[string]any) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, s.insert(resource, clone(rec)))
	}
	return ids
}

// Record returns a copy of a stored record.
func (s *Server) Record(resource, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.coll(resource).records[id]
	if !ok {
		return nil, false
	}
	return clone(rec), true
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// RequestsTo filters recorded requests by method and path suffix.
func (s *Server) RequestsTo(method, pathSuffix string) []Recorded {
	var out []Recorded
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasSuffix(r.Path, pathSuffix) {
			out = append(out, r)
		}
	}
	return out
}

// FailNext makes the next matching request fail with status and message.
// An empty method or resource matches any.
func (s *Server) FailNext(method, resource string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, resource: resource, status: status, message: message})
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	api := r.Group(Prefix, s.record, s.authenticate, s.delay, s.injectFailure)
	api.GET("/:resource", s.list)
	api.POST("/:resource", s.create)
	api.GET("/:resource/:id", s.get)
	api.PUT("/:resource/:id", s.update)
	api.DELETE("/:resource/:id", s.remove)
	api.PATCH("/:resource/:id/:action", s.action)
	return r
}

func (s *Server) record(c *gin.Context) {
	rec := Recorded{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.Query(),
		Header: c.Request.Header.Clone(),
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		var body map[string]any
		if err := json.NewDecoder(c.Request.Body).Decode(&body); err == nil {
			rec.Body = body
			c.Set("body", body)
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, rec)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) authenticate(c *gin.Context) {
	if s.token != "" && c.GetHeader("Authorization") != "Bearer "+s.token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid or missing token"})
		return
	}
	c.Next()
}

func (s *Server) delay(c *gin.Context) {
	if s.latency != nil {
		if d := s.latency(c.Request); d > 0 {
			time.Sleep(d)
		}
	}
	c.Next()
}

func (s *Server) injectFailure(c *gin.Context) {
	s.mu.Lock()
	for i, f := range s.failures {
		if (f.method == "" || f.method == c.Request.Method) && (f.resource == "" || f.resource == c.Param("resource")) {
			s.failures = append(s.failures[:i], s.failures[i+1:]...)
			s.mu.Unlock()
			c.AbortWithStatusJSON(f.status, gin.H{"success": false, "message": f.message})
			return
		}
	}
	s.mu.Unlock()
	c.Next()
}

func (s *Server) list(c *gin.Context) {
	page := atoiDefault(c.Query("page"), 1)
	limit := atoiDefault(c.Query("limit"), 20)
	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	includeDeleted := c.Query("includeDeleted") == "true"

	s.mu.Lock()
	coll := s.coll(c.Param("resource"))
	matched := make([]map[string]any, 0, len(coll.order))
	for _, id := range coll.order {
		rec := coll.records[id]
		if deleted, _ := rec["isDeleted"].(bool); deleted && !includeDeleted {
			continue
		}
		if !matches(rec, c.Request.URL.Query(), search) {
			continue
		}
		matched = append(matched, clone(rec))
	}
	s.mu.Unlock()

	if sortBy := c.Query("sortBy"); sortBy != "" {
		desc := strings.EqualFold(c.Query("sortOrder"), "desc")
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := fmt.Sprint(matched[i][sortBy]), fmt.Sprint(matched[j][sortBy])
			if desc {
				return a > b
			}
			return a < b
		})
	}

	total := len(matched)
	start := min((page-1)*limit, total)
	end := min(start+limit, total)
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items": matched[start:end],
			"pagination": gin.H{
				"currentPage": page,
				"totalPages":  totalPages,
				"totalCount":  total,
				"limit":       limit,
			},
		},
	})
}

func (s *Server) get(c *gin.Context) {
	rec, ok := s.live(c.Param("resource"), c.Param("id"))
	if !ok {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": rec})
}

func (s *Server) create(c *gin.Context) {
	body := bodyOf(c)
	resource := c.Param("resource")
	if field, ok := required[resource]; ok {
		if v, _ := body[field].(string); strings.TrimSpace(v) == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"success": false,
				"message": "Validation failed",
				"errors":  []gin.H{{"field": field, "message": field + " is required"}},
			})
			return
		}
	}
	s.mu.Lock()
	id := s.insert(resource, body)
	rec := clone(s.coll(resource).records[id])
	s.mu.Unlock()
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": rec})
}

func (s *Server) update(c *gin.Context) {
	resource, id := c.Param("resource"), c.Param("id")
	body := bodyOf(c)
	s.mu.Lock()
	rec, ok := s.coll(resource).records[id]
	if !ok || isDeleted(rec) {
		s.mu.Unlock()
		notFound(c)
		return
	}
	for k, v := range body {
		if k == "id" {
			continue
		}
		rec[k] = v
	}
	rec["updatedAt"] = s.now()
	out := clone(rec)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "data": out})
}

func (s *Server) remove(c *gin.Context) {
	resource, id := c.Param("resource"), c.Param("id")
	s.mu.Lock()
	rec, ok := s.coll(resource).records[id]
	if !ok || isDeleted(rec) {
		s.mu.Unlock()
		notFound(c)
		return
	}
	rec["isDeleted"] = true
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "deleted", "data": nil})
}

func (s *Server) action(c *gin.Context) {
	resource, id, action := c.Param("resource"), c.Param("id"), c.Param("action")
	body := bodyOf(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.coll(resource).records[id]
	if !ok || (isDeleted(rec) && action != "restore") {
		notFound(c)
		return
	}

	switch action {
	case "restore":
		rec["isDeleted"] = false
	case "toggle-live":
		rec["isLive"] = !truthy(rec["isLive"])
	case "toggle-status":
		rec["isActive"] = !truthy(rec["isActive"])
	case "approve", "reject":
		if status, _ := rec["status"].(string); status != "PENDING" {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "request has already been " + strings.ToLower(status)})
			return
		}
		rec["status"] = map[string]string{"approve": "APPROVED", "reject": "REJECTED"}[action]
		if note, ok := body["adminNote"]; ok {
			rec["adminNote"] = note
		}
		rec["reviewedAt"] = s.now()
		c.JSON(http.StatusOK, gin.H{"success": true, "data": clone(rec)})
		return
	case "cancel":
		rec["status"] = "CANCELLED"
	case "revoke":
		rec["isRevoked"] = true
		rec["isActive"] = false
	case "resend-link":
	default:
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "unknown action " + action})
		return
	}
	// actions acknowledge without echoing the record
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "ok", "data": nil})
}

func (s *Server) live(resource, id string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.coll(resource).records[id]
	if !ok || isDeleted(rec) {
		return nil, false
	}
	return clone(rec), true
}

// insert stores rec; callers hold mu.
func (s *Server) insert(resource string, rec map[string]any) string {
	coll := s.coll(resource)
	id, _ := rec["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	rec["id"] = id
	if _, ok := rec["createdAt"]; !ok {
		rec["createdAt"] = s.now()
	}
	if _, exists := coll.records[id]; !exists {
		coll.order = append(coll.order, id)
	}
	coll.records[id] = rec
	return id
}

// now returns a strictly increasing timestamp so createdAt sorts by insertion.
func (s *Server) now() string {
	s.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second).Format(time.RFC3339)
}

func (s *Server) coll(resource string) *collection {
	coll, ok := s.collections[resource]
	if !ok {
		coll = &collection{records: make(map[string]map[string]any)}
		s.collections[resource] = coll
	}
	return coll
}

var reserved = map[string]bool{"page": true, "limit": true, "sortBy": true, "sortOrder": true, "search": true, "includeDeleted": true}

func matches(rec map[string]any, query url.Values, search string) bool {
	for key, values := range query {
		if reserved[key] || len(values) == 0 {
			continue
		}
		if fmt.Sprint(rec[key]) != values[0] {
			return false
		}
	}
	if search == "" {
		return true
	}
	for _, v := range rec {
		if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), search) {
			return true
		}
	}
	return false
}

func bodyOf(c *gin.Context) map[string]any {
	if v, ok := c.Get("body"); ok {
		if body, ok := v.(map[string]any); ok {
			return clone(body)
		}
	}
	return map[string]any{}
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "record not found", "status": http.StatusNotFound}})
}

func isDeleted(rec map[string]any) bool {
	deleted, _ := rec["isDeleted"].(bool)
	return deleted
}

func truthy(v any) bool {
	b, _ := v.(bool)
	return b
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func clone(rec map[string]any) map[string]any {
	out := make(map[string]any, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
