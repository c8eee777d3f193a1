package models

import "time"

// FeaturePricing is the price attached to a premium feature.
type FeaturePricing struct {
	ID          string     `json:"id"`
	FeatureKey  string     `json:"featureKey"`
	Name        string     `json:"name"`
	Price       float64    `json:"price"`
	Currency    string     `json:"currency,omitempty"`
	BillingType string     `json:"billingType,omitempty"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (f FeaturePricing) GetID() string { return f.ID }
