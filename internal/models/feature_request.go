package models

import "time"

// Feature request statuses.
const (
	RequestPending  = "PENDING"
	RequestApproved = "APPROVED"
	RequestRejected = "REJECTED"
)

// FeatureRequest is a user's request for access to a gated feature.
type FeatureRequest struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	FeatureKey string     `json:"featureKey"`
	Reason     string     `json:"reason,omitempty"`
	Status     string     `json:"status"`
	AdminNote  string     `json:"adminNote,omitempty"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (r FeatureRequest) GetID() string { return r.ID }

// ReviewPayload is the body sent when approving or rejecting a request.
type ReviewPayload struct {
	AdminNote string `json:"adminNote,omitempty"`
}
