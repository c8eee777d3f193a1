package models

import "time"

// Program is a coaching programme offered on the platform.
type Program struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	CoachID       string     `json:"coachId,omitempty"`
	Category      string     `json:"category,omitempty"`
	Price         float64    `json:"price"`
	DurationWeeks int        `json:"durationWeeks,omitempty"`
	IsLive        bool       `json:"isLive"`
	IsDeleted     bool       `json:"isDeleted,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (p Program) GetID() string { return p.ID }
