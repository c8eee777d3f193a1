package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const couponsPath = "/coupons"

// CouponService manages discount coupons.
type CouponService struct {
	*Resource[models.Coupon]
}

// NewCouponService constructs a coupon service.
func NewCouponService(client apiDoer) *CouponService {
	return &CouponService{Resource: NewResource[models.Coupon](client, couponsPath)}
}

// ToggleStatus activates or deactivates a coupon.
func (s *CouponService) ToggleStatus(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "toggle-status", nil)
}

func (s *CouponService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"toggle-status": withoutPayload(s.ToggleStatus),
	}
}
