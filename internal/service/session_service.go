package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const sessionsPath = "/sessions"

// SessionService manages coaching sessions.
type SessionService struct {
	*Resource[models.Session]
}

// NewSessionService constructs a session service.
func NewSessionService(client apiDoer) *SessionService {
	return &SessionService{Resource: NewResource[models.Session](client, sessionsPath)}
}

// ResendLink asks the platform to email the meeting link again.
func (s *SessionService) ResendLink(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "resend-link", nil)
}

// Cancel cancels a scheduled session.
func (s *SessionService) Cancel(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "cancel", nil)
}

func (s *SessionService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"resend-link": withoutPayload(s.ResendLink),
		"cancel":      withoutPayload(s.Cancel),
	}
}
