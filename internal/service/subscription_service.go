package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const subscriptionsPath = "/subscriptions"

// SubscriptionService manages user subscriptions.
type SubscriptionService struct {
	*Resource[models.Subscription]
}

// NewSubscriptionService constructs a subscription service.
func NewSubscriptionService(client apiDoer) *SubscriptionService {
	return &SubscriptionService{Resource: NewResource[models.Subscription](client, subscriptionsPath)}
}

// Cancel stops renewal and ends the subscription.
func (s *SubscriptionService) Cancel(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "cancel", nil)
}

func (s *SubscriptionService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"cancel":  withoutPayload(s.Cancel),
		"restore": withoutPayload(s.Restore),
	}
}
