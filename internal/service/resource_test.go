package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/internal/testutil/fakeapi"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

func newUpstream(t *testing.T, opts ...fakeapi.Option) (*fakeapi.Server, *apiclient.Client) {
	t.Helper()
	fake := fakeapi.New(t, opts...)
	client, err := apiclient.New(apiclient.Config{BaseURL: fake.URL()})
	require.NoError(t, err)
	return fake, client
}

func TestListQueryOmitsAbsentKeys(t *testing.T) {
	q := ListQuery(models.ListParams{
		Filters: models.Filters{"status": "PENDING", "search": "", "isActive": ""},
		Page:    1,
		Limit:   20,
		SortBy:  "createdAt",
	})
	assert.Equal(t, "limit=20&page=1&sortBy=createdAt&status=PENDING", q.Encode())
}

func TestResourceGetAllPaginates(t *testing.T) {
	fake, client := newUpstream(t)
	for i := 0; i < 45; i++ {
		fake.Seed("feature-requests", map[string]any{"status": "PENDING", "userId": "u"})
	}
	fake.Seed("feature-requests", map[string]any{"status": "APPROVED", "userId": "u"})

	svc := NewRequestService(client)
	res := svc.GetAll(context.Background(), models.ListParams{Filters: models.Filters{"status": "PENDING"}, Page: 3, Limit: 20})
	require.True(t, res.OK(), res.Message())

	page := res.Value()
	assert.Len(t, page.Items, 5)
	assert.Equal(t, models.Pagination{CurrentPage: 3, TotalPages: 3, TotalCount: 45, Limit: 20}, page.Pagination)

	reqs := fake.RequestsTo(http.MethodGet, "/feature-requests")
	require.Len(t, reqs, 1)
	assert.Equal(t, "PENDING", reqs[0].Query.Get("status"))
	assert.False(t, reqs[0].Query.Has("search"))
}

func TestResourceGetByID(t *testing.T) {
	fake, client := newUpstream(t)
	ids := fake.Seed("programs", map[string]any{"title": "Mindful Mornings", "isLive": true})
	svc := NewProgramService(client)

	res := svc.GetByID(context.Background(), ids[0])
	require.True(t, res.OK())
	assert.Equal(t, "Mindful Mornings", res.Value().Title)
	assert.True(t, res.Value().IsLive)

	missing := svc.GetByID(context.Background(), "nope")
	require.False(t, missing.OK())
	assert.Equal(t, appErrors.KindNotFound, missing.Err().Kind())
	assert.Equal(t, "record not found", missing.Message())

	before := len(fake.Requests())
	blank := svc.GetByID(context.Background(), "  ")
	require.False(t, blank.OK())
	assert.Equal(t, appErrors.KindValidation, blank.Err().Kind())
	assert.Len(t, fake.Requests(), before)
}

func TestResourceCreatePassesPayloadThrough(t *testing.T) {
	fake, client := newUpstream(t)
	svc := NewCouponService(client)

	payload := map[string]any{"code": "WELCOME10", "discountValue": 10, "custom": "kept"}
	res := svc.Create(context.Background(), payload)
	require.True(t, res.OK(), res.Message())
	assert.Equal(t, "WELCOME10", res.Value().Code)
	assert.NotEmpty(t, res.Value().ID)

	posted := fake.RequestsTo(http.MethodPost, "/coupons")
	require.Len(t, posted, 1)
	assert.Equal(t, "kept", posted[0].Body["custom"])

	invalid := svc.Create(context.Background(), map[string]any{"discountValue": 5})
	require.False(t, invalid.OK())
	assert.Equal(t, "Validation failed", invalid.Message())
	assert.Equal(t, []appErrors.FieldError{{Field: "code", Message: "code is required"}}, invalid.FieldErrors())
}

func TestResourceSoftDeleteAndRestore(t *testing.T) {
	fake, client := newUpstream(t)
	ids := fake.Seed("quizzes", map[string]any{"title": "Sleep check", "isActive": true})
	svc := NewQuizService(client)
	ctx := context.Background()

	require.True(t, svc.Delete(ctx, ids[0]).OK())
	list := svc.GetAll(ctx, models.ListParams{Page: 1, Limit: 20})
	require.True(t, list.OK())
	assert.Empty(t, list.Value().Items)
	assert.Equal(t, 0, list.Value().Pagination.TotalCount)

	require.True(t, svc.Restore(ctx, ids[0]).OK())
	list = svc.GetAll(ctx, models.ListParams{Page: 1, Limit: 20})
	require.True(t, list.OK())
	require.Len(t, list.Value().Items, 1)
	assert.Equal(t, ids[0], list.Value().Items[0].ID)
}

func TestEntityActions(t *testing.T) {
	fake, client := newUpstream(t)
	ctx := context.Background()

	reqIDs := fake.Seed("feature-requests", map[string]any{"status": "PENDING", "userId": "u1", "featureKey": "journal"})
	requests := NewRequestService(client)
	approved := requests.Approve(ctx, reqIDs[0], models.ReviewPayload{AdminNote: "welcome"})
	require.True(t, approved.OK(), approved.Message())
	rec, _ := fake.Record("feature-requests", reqIDs[0])
	assert.Equal(t, "APPROVED", rec["status"])
	assert.Equal(t, "welcome", rec["adminNote"])

	again := requests.Reject(ctx, reqIDs[0], models.ReviewPayload{})
	require.False(t, again.OK())
	assert.Equal(t, appErrors.KindConflict, again.Err().Kind())
	assert.Equal(t, "request has already been approved", again.Message())

	progIDs := fake.Seed("programs", map[string]any{"title": "Breathwork", "isLive": false})
	require.True(t, NewProgramService(client).ToggleLive(ctx, progIDs[0]).OK())
	rec, _ = fake.Record("programs", progIDs[0])
	assert.Equal(t, true, rec["isLive"])

	voucherIDs := fake.Seed("vouchers", map[string]any{"code": "V1", "isActive": true})
	require.True(t, NewVoucherService(client).Revoke(ctx, voucherIDs[0]).OK())
	rec, _ = fake.Record("vouchers", voucherIDs[0])
	assert.Equal(t, true, rec["isRevoked"])

	sessionIDs := fake.Seed("sessions", map[string]any{"title": "Intro call", "status": "SCHEDULED"})
	sessions := NewSessionService(client)
	require.True(t, sessions.ResendLink(ctx, sessionIDs[0]).OK())
	require.True(t, sessions.Cancel(ctx, sessionIDs[0]).OK())
	rec, _ = fake.Record("sessions", sessionIDs[0])
	assert.Equal(t, "CANCELLED", rec["status"])

	subIDs := fake.Seed("subscriptions", map[string]any{"userId": "u1", "plan": "pro", "status": "ACTIVE"})
	require.True(t, NewSubscriptionService(client).Cancel(ctx, subIDs[0]).OK())

	patches := fake.RequestsTo(http.MethodPatch, "/cancel")
	assert.Len(t, patches, 2)
}

func TestDecodePageShapes(t *testing.T) {
	params := models.ListParams{Page: 2, Limit: 10}

	bare, err := decodePage[models.Document]([]byte(`[{"id":"a"},{"id":"b"}]`), params)
	require.NoError(t, err)
	assert.Len(t, bare.Items, 2)
	assert.Equal(t, models.Pagination{CurrentPage: 2, TotalPages: 1, TotalCount: 2, Limit: 10}, bare.Pagination)

	folded, err := decodePage[models.Document]([]byte(`{"items":[{"id":"a"}],"pagination":{"page":1,"page_size":10,"total_count":11}}`), params)
	require.NoError(t, err)
	assert.Equal(t, models.Pagination{CurrentPage: 1, TotalPages: 2, TotalCount: 11, Limit: 10}, folded.Pagination)

	empty, err := decodePage[models.Document](nil, params)
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.Pagination.TotalPages)

	_, err = decodePage[models.Document]([]byte(`{"items":"nope"}`), params)
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	d, ok := LookupResource(" Programs ")
	require.True(t, ok)
	assert.Equal(t, "isLive", d.ToggleField)
	assert.True(t, d.Supports("toggle-live"))
	assert.True(t, d.Supports("restore"))
	assert.False(t, d.Supports("approve"))

	_, ok = LookupResource("unknown")
	assert.False(t, ok)

	names := ResourceNames()
	assert.Equal(t, []string{"coupons", "feature-pricing", "feature-requests", "programs", "quizzes", "sessions", "subscriptions", "vouchers"}, names)
	assert.Len(t, Resources(), len(names))

	requests, _ := LookupResource("feature-requests")
	assert.Nil(t, requests.Bind(nil).Toggle())
	assert.Equal(t, "/feature-requests", requests.BasePath)
}
