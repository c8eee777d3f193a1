package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
	appErrors "github.com/noah-isme/wellness-admin-console/pkg/errors"
)

const requestsPath = "/feature-requests"

// RequestService manages feature-access requests. Approving a request that
// is no longer pending is rejected by the server with a conflict.
type RequestService struct {
	*Resource[models.FeatureRequest]
}

// NewRequestService constructs a feature request service.
func NewRequestService(client apiDoer) *RequestService {
	return &RequestService{Resource: NewResource[models.FeatureRequest](client, requestsPath)}
}

// Approve grants the requested feature.
func (s *RequestService) Approve(ctx context.Context, id string, payload models.ReviewPayload) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "approve", payload)
}

// Reject declines the request.
func (s *RequestService) Reject(ctx context.Context, id string, payload models.ReviewPayload) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "reject", payload)
}

func (s *RequestService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"approve": reviewAction(s.Approve),
		"reject":  reviewAction(s.Reject),
	}
}

// reviewAction decodes a free-form payload into a ReviewPayload before
// running fn.
func reviewAction(fn func(context.Context, string, models.ReviewPayload) apiclient.Result[json.RawMessage]) actionFunc {
	return func(ctx context.Context, id string, payload any) apiclient.Result[json.RawMessage] {
		review, err := reviewPayload(payload)
		if err != nil {
			return apiclient.Fail[json.RawMessage](appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload"))
		}
		return fn(ctx, id, review)
	}
}

func reviewPayload(payload any) (models.ReviewPayload, error) {
	var review models.ReviewPayload
	var raw []byte
	switch p := payload.(type) {
	case nil:
		return review, nil
	case models.ReviewPayload:
		return p, nil
	case *models.ReviewPayload:
		if p != nil {
			review = *p
		}
		return review, nil
	case json.RawMessage:
		raw = p
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return review, err
		}
		raw = b
	}
	if len(raw) == 0 || string(raw) == "null" {
		return review, nil
	}
	err := json.Unmarshal(raw, &review)
	return review, err
}
