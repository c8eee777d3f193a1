package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

func TestViewServiceOpenMountsFirstPage(t *testing.T) {
	fake, client := newUpstream(t)
	for i := 0; i < 25; i++ {
		fake.Seed("coupons", map[string]any{"code": "C", "isActive": true})
	}
	metrics := NewMetricsService()
	views := NewViewService(client, ViewConfig{DefaultLimit: 10}, metrics, nil)

	view, err := views.Open(context.Background(), OpenViewRequest{Resource: "Coupons"})
	require.NoError(t, err)
	assert.Equal(t, "coupons", view.Descriptor.Name)

	state := view.Controller.State()
	assert.Len(t, state.Items, 10)
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 3, TotalCount: 25, Limit: 10}, state.Pagination)
	assert.Nil(t, state.Error)

	reqs := fake.RequestsTo(http.MethodGet, "/coupons")
	require.Len(t, reqs, 1)
	assert.Equal(t, "createdAt", reqs[0].Query.Get("sortBy"))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.viewsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.listFetches.WithLabelValues("coupons", "ok")))

	got, err := views.Get(view.ID)
	require.NoError(t, err)
	assert.Same(t, view, got)
}

func TestViewServiceUnknownResource(t *testing.T) {
	_, client := newUpstream(t)
	views := NewViewService(client, ViewConfig{}, nil, nil)
	_, err := views.Open(context.Background(), OpenViewRequest{Resource: "lessons"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestViewServiceFailedMountKeepsView(t *testing.T) {
	fake, client := newUpstream(t)
	fake.FailNext(http.MethodGet, "programs", http.StatusInternalServerError, "database unavailable")
	views := NewViewService(client, ViewConfig{}, nil, nil)

	view, err := views.Open(context.Background(), OpenViewRequest{Resource: "programs"})
	require.NoError(t, err)
	state := view.Controller.State()
	require.NotNil(t, state.Error)
	assert.Equal(t, "database unavailable", *state.Error)
	assert.Empty(t, state.Items)
}

func TestViewActionRefreshesPage(t *testing.T) {
	fake, client := newUpstream(t)
	ids := fake.Seed("feature-requests",
		map[string]any{"status": "PENDING", "userId": "u1"},
		map[string]any{"status": "PENDING", "userId": "u2"},
	)
	views := NewViewService(client, ViewConfig{}, nil, nil)
	ctx := context.Background()

	view, err := views.Open(ctx, OpenViewRequest{Resource: "feature-requests", Filters: models.Filters{"status": "PENDING"}})
	require.NoError(t, err)
	require.Len(t, view.Controller.State().Items, 2)

	res := view.Action(ctx, ids[0], "approve", models.ReviewPayload{AdminNote: "ok"})
	require.True(t, res.OK(), res.Message())
	state := view.Controller.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, ids[1], state.Items[0].GetID())
	assert.Equal(t, 1, state.Pagination.TotalCount)

	unsupported := view.Action(ctx, ids[1], "toggle-live", nil)
	require.False(t, unsupported.OK())
	assert.Equal(t, appErrors.ErrUnsupported.Code, unsupported.Err().Code)
}

func TestViewToggleUsesDescriptor(t *testing.T) {
	fake, client := newUpstream(t)
	ids := fake.Seed("programs", map[string]any{"title": "Yoga", "isLive": false})
	views := NewViewService(client, ViewConfig{}, nil, nil)
	view, err := views.Open(context.Background(), OpenViewRequest{Resource: "programs"})
	require.NoError(t, err)

	require.True(t, view.Controller.Toggle(context.Background(), ids[0], false).OK())
	live, ok := view.Controller.State().Items[0].Bool("isLive")
	assert.True(t, ok)
	assert.True(t, live)
	assert.Len(t, fake.RequestsTo(http.MethodPatch, "/toggle-live"), 1)
}

func TestViewServiceCloseAndExpiry(t *testing.T) {
	_, client := newUpstream(t)
	metrics := NewMetricsService()
	views := NewViewService(client, ViewConfig{TTL: 30 * time.Millisecond}, metrics, nil)
	ctx := context.Background()

	closed, err := views.Open(ctx, OpenViewRequest{Resource: "quizzes"})
	require.NoError(t, err)
	require.NoError(t, views.Close(closed.ID))
	assert.True(t, closed.Controller.Closed())
	assert.ErrorIs(t, views.Close(closed.ID), appErrors.ErrNotFound)

	idle, err := views.Open(ctx, OpenViewRequest{Resource: "quizzes"})
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	views.Sweep()
	_, err = views.Get(idle.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.True(t, idle.Controller.Closed())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.viewsActive))
}

func TestViewServiceRenewDoesNotRemountClosedView(t *testing.T) {
	_, client := newUpstream(t)
	metrics := NewMetricsService()
	views := NewViewService(client, ViewConfig{TTL: 30 * time.Millisecond}, metrics, nil)
	ctx := context.Background()

	closed, err := views.Open(ctx, OpenViewRequest{Resource: "coupons"})
	require.NoError(t, err)
	require.True(t, views.touch(closed.ID, closed))
	require.NoError(t, views.Close(closed.ID))
	assert.False(t, views.touch(closed.ID, closed))
	assert.Equal(t, 0, views.Count())

	expired, err := views.Open(ctx, OpenViewRequest{Resource: "coupons"})
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	assert.False(t, views.touch(expired.ID, expired))
	_, err = views.Get(expired.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	views.Sweep()
	assert.Equal(t, 0, views.Count())
	assert.True(t, expired.Controller.Closed())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.viewsActive))
}

func TestViewServiceShutdown(t *testing.T) {
	_, client := newUpstream(t)
	views := NewViewService(client, ViewConfig{}, nil, nil)
	a, err := views.Open(context.Background(), OpenViewRequest{Resource: "sessions"})
	require.NoError(t, err)
	b, err := views.Open(context.Background(), OpenViewRequest{Resource: "vouchers"})
	require.NoError(t, err)
	assert.Len(t, views.List(), 2)

	views.Shutdown()
	assert.Equal(t, 0, views.Count())
	assert.True(t, a.Controller.Closed())
	assert.True(t, b.Controller.Closed())
}
