package domain

import "time"

// Journal is the case record owning a set of shared documents. The account
// contact fields are denormalized here because authorization matching only
// ever needs them alongside the journal row.
type Journal struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	ExternalID string `gorm:"size:64;uniqueIndex;not null" json:"external_id"`
	// AccessToken is the legacy shared secret; compared verbatim, never hashed.
	AccessToken string `gorm:"size:128" json:"-"`
	Name        string `gorm:"size:128;not null" json:"name"`
	MarketUnit  string `gorm:"size:32;index" json:"market_unit"`

	PrimaryEmail    string `gorm:"size:255;index" json:"-"`
	PrimaryPhone    string `gorm:"size:64;index" json:"-"`
	SpouseEmail     string `gorm:"size:255" json:"-"`
	SpousePhone     string `gorm:"size:64" json:"-"`
	SpouseRecipient bool   `gorm:"not null;default:false" json:"-"`

	// Legacy journal-flow OTP lives on the journal row itself.
	OTPCode      string     `gorm:"size:8" json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	FirstDraftSentAt *time.Time `json:"first_draft_sent_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
