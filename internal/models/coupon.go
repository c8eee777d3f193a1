package models

import "time"

// Coupon is a discount code. Discount rules are enforced server-side.
type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discountType,omitempty"`
	DiscountValue float64    `json:"discountValue"`
	MaxUses       int        `json:"maxUses,omitempty"`
	UsedCount     int        `json:"usedCount,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// GetID implements Record.
func (c Coupon) GetID() string { return c.ID }
