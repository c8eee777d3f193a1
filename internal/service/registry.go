package service

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"

	"github.com/noah-isme/wellness-admin-console/internal/listing"
	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

// Column is one displayed field of a resource.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Descriptor tells the presentation layer how to drive a resource without
// knowing its entity type.
type Descriptor struct {
	Name             string   `json:"name"`
	Title            string   `json:"title"`
	BasePath         string   `json:"basePath"`
	Columns          []Column `json:"columns"`
	ToggleField      string   `json:"toggleField,omitempty"`
	ToggleAction     string   `json:"toggleAction,omitempty"`
	Actions          []string `json:"actions,omitempty"`
	DefaultSortBy    string   `json:"defaultSortBy,omitempty"`
	DefaultSortOrder string   `json:"defaultSortOrder,omitempty"`

	entity func(client apiDoer) entityService
}

// Supports reports whether action is one of the resource's item actions.
func (d Descriptor) Supports(action string) bool {
	return action == d.ToggleAction && action != "" || slices.Contains(d.Actions, action)
}

// actionFunc runs one item action of an entity service.
type actionFunc func(ctx context.Context, id string, payload any) apiclient.Result[json.RawMessage]

// entityService is a typed resource service exposing its item actions.
type entityService interface {
	BasePath() string
	actions() map[string]actionFunc
}

// withoutPayload adapts an action that takes no body.
func withoutPayload(fn func(context.Context, string) apiclient.Result[json.RawMessage]) actionFunc {
	return func(ctx context.Context, id string, _ any) apiclient.Result[json.RawMessage] {
		return fn(ctx, id)
	}
}

// Binding is a descriptor attached to an upstream client: an untyped list
// source over the entity's base path plus the entity service's actions.
type Binding struct {
	Descriptor
	Documents *Resource[models.Document]

	actions map[string]actionFunc
}

// Bind attaches the descriptor to client through its entity service.
func (d Descriptor) Bind(client apiDoer) *Binding {
	entity := d.entity(client)
	return &Binding{
		Descriptor: d,
		Documents:  NewResource[models.Document](client, entity.BasePath()),
		actions:    entity.actions(),
	}
}

// Action runs a supported item action.
func (b *Binding) Action(ctx context.Context, id, action string, payload any) apiclient.Result[json.RawMessage] {
	action = strings.ToLower(strings.TrimSpace(action))
	fn, ok := b.actions[action]
	if !ok || !b.Supports(action) {
		return apiclient.Fail[json.RawMessage](appErrors.Clone(appErrors.ErrUnsupported, b.Name+" does not support "+action))
	}
	return fn(ctx, id, payload)
}

// Toggle returns the entity's boolean toggle, or nil when it has none.
func (b *Binding) Toggle() listing.ToggleFunc {
	if b.ToggleAction == "" || b.ToggleField == "" {
		return nil
	}
	fn, ok := b.actions[b.ToggleAction]
	if !ok {
		return nil
	}
	return func(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
		return fn(ctx, id, nil)
	}
}

var descriptors = map[string]Descriptor{
	"programs": {
		Name: "programs", Title: "Programs", BasePath: programsPath,
		Columns:     []Column{{"id", "ID"}, {"title", "Title"}, {"category", "Category"}, {"price", "Price"}, {"isLive", "Live"}},
		ToggleField: "isLive", ToggleAction: "toggle-live",
		Actions:       []string{"restore"},
		DefaultSortBy: "createdAt", DefaultSortOrder: "desc",
		entity:        func(c apiDoer) entityService { return NewProgramService(c) },
	},
	"quizzes": {
		Name: "quizzes", Title: "Quizzes", BasePath: quizzesPath,
		Columns:     []Column{{"id", "ID"}, {"title", "Title"}, {"programId", "Program"}, {"questionCount", "Questions"}, {"isActive", "Active"}},
		ToggleField: "isActive", ToggleAction: "toggle-status",
		Actions:       []string{"restore"},
		DefaultSortBy: "createdAt", DefaultSortOrder: "desc",
		entity:        func(c apiDoer) entityService { return NewQuizService(c) },
	},
	"sessions": {
		Name: "sessions", Title: "Sessions", BasePath: sessionsPath,
		Columns:       []Column{{"id", "ID"}, {"title", "Title"}, {"coachId", "Coach"}, {"scheduledAt", "Scheduled"}, {"status", "Status"}},
		Actions:       []string{"resend-link", "cancel"},
		DefaultSortBy: "scheduledAt", DefaultSortOrder: "asc",
		entity:        func(c apiDoer) entityService { return NewSessionService(c) },
	},
	"coupons": {
		Name: "coupons", Title: "Coupons", BasePath: couponsPath,
		Columns:     []Column{{"id", "ID"}, {"code", "Code"}, {"discountType", "Type"}, {"discountValue", "Value"}, {"isActive", "Active"}},
		ToggleField: "isActive", ToggleAction: "toggle-status",
		DefaultSortBy: "createdAt", DefaultSortOrder: "desc",
		entity:        func(c apiDoer) entityService { return NewCouponService(c) },
	},
	"vouchers": {
		Name: "vouchers", Title: "Vouchers", BasePath: vouchersPath,
		Columns:     []Column{{"id", "ID"}, {"code", "Code"}, {"issuedTo", "Issued to"}, {"expiresAt", "Expires"}, {"isActive", "Active"}},
		ToggleField: "isActive", ToggleAction: "toggle-status",
		Actions:       []string{"revoke"},
		DefaultSortBy: "createdAt", DefaultSortOrder: "desc",
		entity:        func(c apiDoer) entityService { return NewVoucherService(c) },
	},
	"feature-pricing": {
		Name: "feature-pricing", Title: "Feature pricing", BasePath: pricingPath,
		Columns:     []Column{{"id", "ID"}, {"featureKey", "Feature"}, {"name", "Name"}, {"price", "Price"}, {"isActive", "Active"}},
		ToggleField: "isActive", ToggleAction: "toggle-status",
		DefaultSortBy: "featureKey", DefaultSortOrder: "asc",
		entity:        func(c apiDoer) entityService { return NewPricingService(c) },
	},
	"feature-requests": {
		Name: "feature-requests", Title: "Feature requests", BasePath: requestsPath,
		Columns:       []Column{{"id", "ID"}, {"userId", "User"}, {"featureKey", "Feature"}, {"status", "Status"}},
		Actions:       []string{"approve", "reject"},
		DefaultSortBy: "createdAt", DefaultSortOrder: "desc",
		entity:        func(c apiDoer) entityService { return NewRequestService(c) },
	},
	"subscriptions": {
		Name: "subscriptions", Title: "Subscriptions", BasePath: subscriptionsPath,
		Columns:       []Column{{"id", "ID"}, {"userId", "User"}, {"plan", "Plan"}, {"status", "Status"}, {"endsAt", "Ends"}},
		Actions:       []string{"cancel", "restore"},
		DefaultSortBy: "createdAt", DefaultSortOrder: "desc",
		entity:        func(c apiDoer) entityService { return NewSubscriptionService(c) },
	},
}

// LookupResource returns the descriptor registered under name.
func LookupResource(name string) (Descriptor, bool) {
	d, ok := descriptors[strings.ToLower(strings.TrimSpace(name))]
	return d, ok
}

// Resources lists every registered descriptor ordered by name.
func Resources() []Descriptor {
	out := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResourceNames lists registered names ordered alphabetically.
func ResourceNames() []string {
	names := make([]string, 0, len(descriptors))
	for name := range descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
