package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const vouchersPath = "/vouchers"

// VoucherService manages prepaid vouchers.
type VoucherService struct {
	*Resource[models.Voucher]
}

// NewVoucherService constructs a voucher service.
func NewVoucherService(client apiDoer) *VoucherService {
	return &VoucherService{Resource: NewResource[models.Voucher](client, vouchersPath)}
}

// ToggleStatus activates or deactivates a voucher.
func (s *VoucherService) ToggleStatus(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "toggle-status", nil)
}

// Revoke invalidates a voucher permanently.
func (s *VoucherService) Revoke(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "revoke", nil)
}

func (s *VoucherService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"toggle-status": withoutPayload(s.ToggleStatus),
		"revoke":        withoutPayload(s.Revoke),
	}
}
