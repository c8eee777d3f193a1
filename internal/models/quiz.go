package models

import "time"

// Quiz is an assessment attached to a programme.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	ProgramID     string     `json:"programId,omitempty"`
	QuestionCount int        `json:"questionCount,omitempty"`
	PassingScore  int        `json:"passingScore,omitempty"`
	IsActive      bool       `json:"isActive"`
	IsDeleted     bool       `json:"isDeleted,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (q Quiz) GetID() string { return q.ID }
