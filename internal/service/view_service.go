package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin-console/internal/listing"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

// DefaultViewTTL is how long an untouched view stays mounted.
const DefaultViewTTL = 15 * time.Minute

// ViewConfig tunes the controllers the registry mounts.
type ViewConfig struct {
	DefaultLimit   int
	SearchDelay    time.Duration
	DisableFencing bool
	TTL            time.Duration
}

// OpenViewRequest describes the list a caller wants mounted.
type OpenViewRequest struct {
	Resource  string
	Filters   models.Filters
	Limit     int
	SortBy    string
	SortOrder string
}

// View is one mounted list: a controller bound to a resource.
type View struct {
	ID         string
	Descriptor Descriptor
	Controller *listing.Controller[models.Document]
	OpenedAt   time.Time

	binding *Binding
}

// Action runs an item action the resource supports, then reloads the current
// page since the action may move the record in or out of the filtered set.
func (v *View) Action(ctx context.Context, itemID, action string, payload any) apiclient.Result[json.RawMessage] {
	action = strings.ToLower(strings.TrimSpace(action))
	if !v.Descriptor.Supports(action) {
		return apiclient.Fail[json.RawMessage](appErrors.Clone(appErrors.ErrUnsupported, v.Descriptor.Name+" does not support "+action))
	}
	if v.Controller.Closed() {
		return apiclient.Fail[json.RawMessage](appErrors.ErrViewClosed)
	}
	res := v.binding.Action(ctx, itemID, action, payload)
	if res.OK() {
		v.Controller.Refresh(ctx)
	}
	return res
}

// ViewService keeps mounted views in a TTL cache. Expiry or removal unmounts
// the view by closing its controller.
type ViewService struct {
	client  apiDoer
	cfg     ViewConfig
	views   *cache.Cache
	metrics *MetricsService
	logger  *zap.Logger
}

// NewViewService builds the registry.
func NewViewService(client apiDoer, cfg ViewConfig, metrics *MetricsService, logger *zap.Logger) *ViewService {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultViewTTL
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = models.DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := cfg.TTL / 2
	if cleanup < time.Second {
		cleanup = time.Second
	}
	s := &ViewService{
		client:  client,
		cfg:     cfg,
		views:   cache.New(cfg.TTL, cleanup),
		metrics: metrics,
		logger:  logger,
	}
	s.views.OnEvicted(s.unmount)
	return s
}

// Open mounts a new view and loads its first page. A failed first fetch still
// yields a view whose state carries the error.
func (s *ViewService) Open(ctx context.Context, req OpenViewRequest) (*View, error) {
	desc, ok := LookupResource(req.Resource)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown resource "+strings.TrimSpace(req.Resource))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	sortBy, sortOrder := req.SortBy, req.SortOrder
	if sortBy == "" {
		sortBy, sortOrder = desc.DefaultSortBy, desc.DefaultSortOrder
	}

	binding := desc.Bind(s.client)
	ctrl := listing.New[models.Document](binding.Documents, listing.Options{
		Resource:       desc.Name,
		InitialFilters: req.Filters,
		Limit:          limit,
		SortBy:         sortBy,
		SortOrder:      sortOrder,
		ToggleField:    desc.ToggleField,
		Toggle:         binding.Toggle(),
		SearchDelay:    s.cfg.SearchDelay,
		DisableFencing: s.cfg.DisableFencing,
		Logger:         s.logger,
		Metrics:        s.metrics,
	})
	view := &View{
		ID:         uuid.NewString(),
		Descriptor: desc,
		Controller: ctrl,
		OpenedAt:   time.Now().UTC(),
		binding:    binding,
	}
	s.views.Set(view.ID, view, cache.DefaultExpiration)
	s.syncGauge()
	s.logger.Info("view mounted", zap.String("view_id", view.ID), zap.String("resource", desc.Name))

	ctrl.Mount(ctx)
	return view, nil
}

// Get returns a mounted view and extends its lifetime. A view closed or
// expired between the lookup and the renewal is reported as not found.
func (s *ViewService) Get(id string) (*View, error) {
	v, ok := s.views.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "view not found")
	}
	view := v.(*View)
	if !s.touch(id, view) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "view not found")
	}
	return view, nil
}

// touch renews a view only while it is still mounted.
func (s *ViewService) touch(id string, view *View) bool {
	return s.views.Replace(id, view, cache.DefaultExpiration) == nil
}

// Close unmounts a view.
func (s *ViewService) Close(id string) error {
	if _, ok := s.views.Get(id); !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "view not found")
	}
	s.views.Delete(id)
	return nil
}

// List returns the mounted views ordered by open time.
func (s *ViewService) List() []*View {
	items := s.views.Items()
	out := make([]*View, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(*View))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.Before(out[j].OpenedAt) })
	return out
}

// Count reports mounted views.
func (s *ViewService) Count() int {
	return s.views.ItemCount()
}

// Sweep unmounts expired views now rather than waiting for the janitor.
func (s *ViewService) Sweep() {
	s.views.DeleteExpired()
}

// Shutdown unmounts every view.
func (s *ViewService) Shutdown() {
	for id := range s.views.Items() {
		s.views.Delete(id)
	}
	// expired entries are not returned by Items
	s.views.DeleteExpired()
	s.syncGauge()
}

func (s *ViewService) unmount(id string, v interface{}) {
	if view, ok := v.(*View); ok {
		view.Controller.Close()
	}
	s.syncGauge()
	s.logger.Info("view unmounted", zap.String("view_id", id))
}

func (s *ViewService) syncGauge() {
	s.metrics.SetActiveViews(s.views.ItemCount())
}
