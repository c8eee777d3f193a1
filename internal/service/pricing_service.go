package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const pricingPath = "/feature-pricing"

// PricingService manages feature pricing entries.
type PricingService struct {
	*Resource[models.FeaturePricing]
}

// NewPricingService constructs a pricing service.
func NewPricingService(client apiDoer) *PricingService {
	return &PricingService{Resource: NewResource[models.FeaturePricing](client, pricingPath)}
}

// ToggleStatus activates or deactivates a price.
func (s *PricingService) ToggleStatus(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "toggle-status", nil)
}

func (s *PricingService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"toggle-status": withoutPayload(s.ToggleStatus),
	}
}
