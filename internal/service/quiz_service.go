package service

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/wellness-admin-console/internal/models"
	"github.com/noah-isme/wellness-admin-console/pkg/apiclient"
)

const quizzesPath = "/quizzes"

// QuizService manages quizzes.
type QuizService struct {
	*Resource[models.Quiz]
}

// NewQuizService constructs a quiz service.
func NewQuizService(client apiDoer) *QuizService {
	return &QuizService{Resource: NewResource[models.Quiz](client, quizzesPath)}
}

// ToggleStatus activates or deactivates a quiz.
func (s *QuizService) ToggleStatus(ctx context.Context, id string) apiclient.Result[json.RawMessage] {
	return s.Action(ctx, id, "toggle-status", nil)
}

func (s *QuizService) actions() map[string]actionFunc {
	return map[string]actionFunc{
		"toggle-status": withoutPayload(s.ToggleStatus),
		"restore":       withoutPayload(s.Restore),
	}
}
