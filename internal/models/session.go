package models

import "time"

// Session statuses reported by the platform.
const (
	SessionScheduled = "SCHEDULED"
	SessionCompleted = "COMPLETED"
	SessionCancelled = "CANCELLED"
)

// Session is a scheduled coaching call.
type Session struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CoachID     string     `json:"coachId,omitempty"`
	ClientID    string     `json:"clientId,omitempty"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
	Duration    int        `json:"duration,omitempty"`
	MeetingLink string     `json:"meetingLink,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (s Session) GetID() string { return s.ID }
