package models

import "time"

// Voucher grants prepaid access to a programme or feature.
type Voucher struct {
	ID         string     `json:"id"`
	Code       string     `json:"code"`
	ProgramID  string     `json:"programId,omitempty"`
	IssuedTo   string     `json:"issuedTo,omitempty"`
	RedeemedAt *time.Time `json:"redeemedAt,omitempty"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	IsActive   bool       `json:"isActive"`
	IsRevoked  bool       `json:"isRevoked,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (v Voucher) GetID() string { return v.ID }
