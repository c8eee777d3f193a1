// Package listing implements the list-state controller that backs every list
// view: filters, debounced search, pagination and record mutations that keep
// the in-memory page consistent with the server.
package listing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	"github.com/noah-isme/wellness-admin-console/pkg/debounce"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

// DefaultSearchDelay is the quiet period applied to search input.
const DefaultSearchDelay = 300 * time.Millisecond

// Fetch outcomes reported to the FetchObserver.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

// Source is the resource service a controller drives.
type Source[T models.Record] interface {
	GetAll(ctx context.Context, params models.ListParams) apiclient.Result[models.Page[T]]
	Create(ctx context.Context, payload any) apiclient.Result[T]
	Update(ctx context.Context, id string, payload any) apiclient.Result[T]
	Delete(ctx context.Context, id string) apiclient.Result[json.RawMessage]
}

// ToggleFunc calls a resource's boolean toggle action.
type ToggleFunc func(ctx context.Context, id string) apiclient.Result[json.RawMessage]

// FetchObserver receives one outcome per completed fetch.
type FetchObserver interface {
	ObserveListFetch(resource, outcome string)
}

// Options configures a controller.
type Options struct {
	// Resource labels logs and metrics.
	Resource       string
	InitialFilters models.Filters
	Limit          int
	SortBy         string
	SortOrder      string
	// ToggleField is the boolean record field flipped by Toggle.
	ToggleField string
	Toggle      ToggleFunc
	SearchDelay time.Duration
	// DisableFencing lets whichever fetch resolves last overwrite the state,
	// even when a newer fetch was issued after it.
	DisableFencing bool
	Logger         *zap.Logger
	Metrics        FetchObserver
}

// State is a copy of the controller's state at one point in time.
type State[T any] struct {
	Items      []T               `json:"items"`
	Pagination models.Pagination `json:"pagination"`
	Filters    models.Filters    `json:"filters"`
	IsLoading  bool              `json:"isLoading"`
	Error      *string           `json:"error"`
	// Version increases with every change; subscribers may use it to drop
	// states delivered out of order.
	Version uint64 `json:"version"`
}

// Controller owns one list view's collection snapshot, filter set and
// pagination cursor. It is safe for concurrent use; no lock is held while a
// request is in flight.
type Controller[T models.Record] struct {
	source   Source[T]
	opts     Options
	defaults models.Filters
	logger   *zap.Logger
	search   *debounce.Debouncer[string]

	mu         sync.Mutex
	items      []T
	pagination models.Pagination
	filters    models.Filters
	loading    bool
	err        *string
	version    uint64
	issued     uint64
	cancels    map[uint64]context.CancelFunc
	subs       map[int]func(State[T])
	nextSub    int
	closed     bool
}

// New constructs a controller with an empty snapshot. Call Mount to load the
// first page.
func New[T models.Record](source Source[T], opts Options) *Controller[T] {
	if opts.Limit <= 0 {
		opts.Limit = models.DefaultLimit
	}
	if opts.SearchDelay <= 0 {
		opts.SearchDelay = DefaultSearchDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	defaults := models.Filters{models.SearchKey: ""}.Merge(opts.InitialFilters)
	c := &Controller[T]{
		source:     source,
		opts:       opts,
		defaults:   defaults,
		logger:     opts.Logger.With(zap.String("resource", opts.Resource)),
		items:      []T{},
		pagination: models.Pagination{CurrentPage: 1, Limit: opts.Limit},
		filters:    defaults.Clone(),
		cancels:    make(map[uint64]context.CancelFunc),
		subs:       make(map[int]func(State[T])),
	}
	c.search = debounce.New(opts.SearchDelay, c.applySearch)
	return c
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Mount loads the first page.
func (c *Controller[T]) Mount(ctx context.Context) apiclient.Result[models.Page[T]] {
	return c.Fetch(ctx, 1)
}

// Refresh reloads the current page with the current filters.
func (c *Controller[T]) Refresh(ctx context.Context) apiclient.Result[models.Page[T]] {
	c.mu.Lock()
	page := c.pagination.CurrentPage
	c.mu.Unlock()
	return c.Fetch(ctx, page)
}

// Fetch requests one page using the current filters, limit and sort. Success
// replaces the snapshot and cursor; failure records the message and empties
// the snapshot. Unless fencing is disabled, only the most recently issued
// fetch may change the state.
func (c *Controller[T]) Fetch(ctx context.Context, page int) apiclient.Result[models.Page[T]] {
	if page < 1 {
		page = 1
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apiclient.Fail[models.Page[T]](appErrors.ErrViewClosed)
	}
	c.issued++
	seq := c.issued
	params := models.ListParams{
		Filters:   c.filters.Active(),
		Page:      page,
		Limit:     c.pagination.Limit,
		SortBy:    c.opts.SortBy,
		SortOrder: c.opts.SortOrder,
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancels[seq] = cancel
	c.loading = true
	c.err = nil
	c.touchLocked()
	c.publishUnlock()

	res := c.source.GetAll(fetchCtx, params)
	cancel()

	c.mu.Lock()
	delete(c.cancels, seq)
	if c.closed {
		c.mu.Unlock()
		return res
	}
	if !c.opts.DisableFencing && seq != c.issued {
		c.mu.Unlock()
		c.logger.Debug("discarding stale list response", zap.Uint64("seq", seq), zap.Int("page", page))
		c.observe(OutcomeStale)
		return res
	}

	if res.OK() {
		if last, over := pastEnd(res.Value(), params); over {
			c.mu.Unlock()
			c.logger.Debug("page beyond last page, fetching last page", zap.Int("page", page), zap.Int("last", last))
			return c.Fetch(ctx, last)
		}
	}

	c.loading = false
	if res.OK() {
		c.applyPageLocked(res.Value(), params)
	} else {
		msg := res.Message()
		c.err = &msg
		c.items = []T{}
		c.pagination = models.Pagination{CurrentPage: 1, Limit: params.Limit}
	}
	c.touchLocked()
	c.publishUnlock()

	if res.OK() {
		c.observe(OutcomeOK)
	} else {
		c.logger.Warn("list fetch failed", zap.Int("page", page), zap.String("code", res.Err().Code), zap.String("message", res.Message()))
		c.observe(OutcomeError)
	}
	return res
}

// UpdateFilters shallow-merges partial into the filter set. A change resets
// the cursor to page 1 and runs exactly one fetch; a merge that leaves the
// active filters unchanged fetches nothing and returns the current page.
func (c *Controller[T]) UpdateFilters(ctx context.Context, partial models.Filters) apiclient.Result[models.Page[T]] {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apiclient.Fail[models.Page[T]](appErrors.ErrViewClosed)
	}
	return c.setFiltersUnlock(ctx, c.filters.Merge(partial))
}

// ResetFilters restores the initial filter set, dropping any pending search.
// Calling it repeatedly yields the same filter set.
func (c *Controller[T]) ResetFilters(ctx context.Context) apiclient.Result[models.Page[T]] {
	c.search.Cancel()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return apiclient.Fail[models.Page[T]](appErrors.ErrViewClosed)
	}
	return c.setFiltersUnlock(ctx, c.defaults.Clone())
}

// Search schedules text to be applied as the search filter once input has
// been quiet for the search delay. Only the last text in a burst is applied.
func (c *Controller[T]) Search(text string) {
	c.search.Trigger(text)
}

// FlushSearch applies a pending search immediately and reports whether there
// was one.
func (c *Controller[T]) FlushSearch() bool {
	return c.search.Flush()
}

// ChangePage fetches page without touching the filters. A page beyond the
// last known page is clamped before the request is issued.
func (c *Controller[T]) ChangePage(ctx context.Context, page int) apiclient.Result[models.Page[T]] {
	c.mu.Lock()
	if last := c.pagination.TotalPages; last > 0 && page > last {
		page = last
	}
	c.mu.Unlock()
	return c.Fetch(ctx, page)
}

// ChangeLimit sets the page size used by the next fetch. It does not fetch;
// the snapshot is trimmed so it never holds more than limit records.
func (c *Controller[T]) ChangeLimit(limit int) {
	if limit < 1 {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.pagination.Limit = limit
	if len(c.items) > limit {
		c.items = append([]T(nil), c.items[:limit]...)
	}
	c.pagination.TotalPages = models.TotalPages(c.pagination.TotalCount, limit)
	c.pagination.CurrentPage = models.ClampPage(c.pagination.CurrentPage, c.pagination.TotalPages)
	c.touchLocked()
	c.publishUnlock()
}

// Create posts payload and, on success, re-fetches page 1 since the new
// record's position is only known to the server.
func (c *Controller[T]) Create(ctx context.Context, payload any) apiclient.Result[T] {
	if c.isClosed() {
		return apiclient.Fail[T](appErrors.ErrViewClosed)
	}
	res := c.source.Create(ctx, payload)
	if res.OK() {
		c.Fetch(ctx, 1)
	}
	return res
}

// Update saves payload and patches the matching record in place, payload
// fields first and then whatever the server returned. No fetch is made.
func (c *Controller[T]) Update(ctx context.Context, id string, payload any) apiclient.Result[T] {
	if c.isClosed() {
		return apiclient.Fail[T](appErrors.ErrViewClosed)
	}
	res := c.source.Update(ctx, id, payload)
	if !res.OK() {
		return res
	}
	c.patch(id, payload, res.Raw())
	return res
}

// Toggle calls the resource's toggle action and, on success, sets the toggle
// field of the matching record to !current whatever the response contains.
func (c *Controller[T]) Toggle(ctx context.Context, id string, current bool) apiclient.Result[json.RawMessage] {
	if c.isClosed() {
		return apiclient.Fail[json.RawMessage](appErrors.ErrViewClosed)
	}
	if c.opts.Toggle == nil || c.opts.ToggleField == "" {
		return apiclient.Fail[json.RawMessage](appErrors.Clone(appErrors.ErrUnsupported, "resource has no toggle action"))
	}
	res := c.opts.Toggle(ctx, id)
	if !res.OK() {
		return res
	}
	c.patch(id, map[string]any{c.opts.ToggleField: !current}, nil)
	return res
}

// Remove deletes the record and, on success, drops it from the snapshot and
// decrements the total count, recomputing the page count.
func (c *Controller[T]) Remove(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	if c.isClosed() {
		return apiclient.Fail[json.RawMessage](appErrors.ErrViewClosed)
	}
	res := c.source.Delete(ctx, id)
	if !res.OK() {
		return res
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return res
	}
	items := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if item.GetID() != id {
			items = append(items, item)
		}
	}
	c.items = items
	p := &c.pagination
	p.TotalCount = max(p.TotalCount-1, 0)
	p.TotalPages = models.TotalPages(p.TotalCount, p.Limit)
	p.CurrentPage = models.ClampPage(p.CurrentPage, p.TotalPages)
	c.touchLocked()
	c.publishUnlock()
	return res
}

// ClearError dismisses the last fetch error without touching the snapshot.
func (c *Controller[T]) ClearError() {
	c.mu.Lock()
	if c.closed || c.err == nil {
		c.mu.Unlock()
		return
	}
	c.err = nil
	c.touchLocked()
	c.publishUnlock()
}

// Subscribe calls fn with the current state and again after every change
// until the returned function is called or the controller is closed.
func (c *Controller[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	state := c.snapshotLocked()
	c.mu.Unlock()

	fn(state)
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Close tears the view down: the pending search is dropped, in-flight
// fetches are cancelled and subscribers are released. Later calls fail with
// VIEW_CLOSED. Close is idempotent.
func (c *Controller[T]) Close() {
	c.search.Stop()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	for seq, cancel := range c.cancels {
		cancel()
		delete(c.cancels, seq)
	}
	c.subs = make(map[int]func(State[T]))
	c.loading = false
	c.mu.Unlock()
}

// Closed reports whether Close has been called.
func (c *Controller[T]) Closed() bool { return c.isClosed() }

func (c *Controller[T]) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller[T]) applySearch(text string) {
	c.UpdateFilters(context.Background(), models.Filters{models.SearchKey: text})
}

// setFiltersUnlock installs next and fetches page 1 when the active filters
// changed. It is entered with mu held and returns with it released.
func (c *Controller[T]) setFiltersUnlock(ctx context.Context, next models.Filters) apiclient.Result[models.Page[T]] {
	changed := !next.Equal(c.filters)
	c.filters = next
	if !changed {
		page := models.Page[T]{Items: append([]T(nil), c.items...), Pagination: c.pagination}
		c.mu.Unlock()
		return apiclient.Ok(page, nil)
	}
	c.pagination.CurrentPage = 1
	c.touchLocked()
	c.publishUnlock()
	return c.Fetch(ctx, 1)
}

// pastEnd reports the last page when the server answered an empty page that
// lies beyond a non-empty result set.
func pastEnd[T any](page models.Page[T], params models.ListParams) (int, bool) {
	if len(page.Items) > 0 || params.Page <= 1 {
		return 0, false
	}
	total := page.Pagination.TotalPages
	if total <= 0 {
		total = models.TotalPages(page.Pagination.TotalCount, params.Limit)
	}
	if page.Pagination.TotalCount <= 0 || params.Page <= total {
		return 0, false
	}
	return total, true
}

func (c *Controller[T]) applyPageLocked(page models.Page[T], params models.ListParams) {
	items := page.Items
	if len(items) > params.Limit {
		items = items[:params.Limit]
	}
	c.items = append(make([]T, 0, len(items)), items...)

	p := page.Pagination
	p.Limit = params.Limit
	if p.TotalCount < len(c.items) {
		p.TotalCount = len(c.items)
	}
	if p.TotalPages <= 0 {
		p.TotalPages = models.TotalPages(p.TotalCount, p.Limit)
	}
	if p.CurrentPage <= 0 {
		p.CurrentPage = params.Page
	}
	p.CurrentPage = models.ClampPage(p.CurrentPage, p.TotalPages)
	c.pagination = p
}

func (c *Controller[T]) patch(id string, payload any, raw json.RawMessage) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	idx := -1
	for i, item := range c.items {
		if item.GetID() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return
	}
	merged, err := mergeRecord(c.items[idx], payload, raw)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("unable to patch record in place", zap.String("id", id), zap.Error(err))
		return
	}
	items := append([]T(nil), c.items...)
	items[idx] = merged
	c.items = items
	c.touchLocked()
	c.publishUnlock()
}

func (c *Controller[T]) touchLocked() { c.version++ }

func (c *Controller[T]) snapshotLocked() State[T] {
	var errCopy *string
	if c.err != nil {
		msg := *c.err
		errCopy = &msg
	}
	return State[T]{
		Items:      append(make([]T, 0, len(c.items)), c.items...),
		Pagination: c.pagination,
		Filters:    c.filters.Clone(),
		IsLoading:  c.loading,
		Error:      errCopy,
		Version:    c.version,
	}
}

// publishUnlock snapshots the state, releases mu and notifies subscribers
// outside the lock so they may call back into the controller.
func (c *Controller[T]) publishUnlock() {
	if len(c.subs) == 0 {
		c.mu.Unlock()
		return
	}
	state := c.snapshotLocked()
	subs := make([]func(State[T]), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(state)
	}
}

func (c *Controller[T]) observe(outcome string) {
	if c.opts.Metrics != nil {
		c.opts.Metrics.ObserveListFetch(c.opts.Resource, outcome)
	}
}
