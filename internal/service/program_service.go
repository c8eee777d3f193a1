package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const programsPath = "/programs"

// ProgramService manages coaching programmes.
type ProgramService struct {
	*Resource[models.Program]
}

// NewProgramService constructs a program service.
func NewProgramService(client apiDoer) *ProgramService {
	return &ProgramService{Resource: NewResource[models.Program](client, programsPath)}
}

// ToggleLive publishes or unpublishes a programme.
func (s *ProgramService) ToggleLive(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "toggle-live", nil)
}

func (s *ProgramService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"toggle-live": withoutPayload(s.ToggleLive),
		"restore":     withoutPayload(s.Restore),
	}
}
