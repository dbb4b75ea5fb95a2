package domain

import "time"

const (
	// OTPPurposeDocumentPortal partitions portal codes from other OTP
	// consumers sharing the same table.
	OTPPurposeDocumentPortal = "DocumentPortal"

	IdentifierEmail = "Email"
	IdentifierPhone = "Phone"

	ChannelEmail = "Email"
	ChannelSMS   = "SMS"

	OTPStatusPending  = "Pending"
	OTPStatusVerified = "Verified"
)

// OTP is a one-time passcode row. Rows are append-only: expiry is enforced by
// time comparison and verified rows stay behind for audit, never deleted.
type OTP struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`
	// Key is purpose|type|value|brand plus a random disambiguator, so repeated
	// requests for the same identifier still insert distinct rows.
	Key             string     `gorm:"size:255;uniqueIndex;not null" json:"-"`
	Brand           string     `gorm:"size:8;index;not null" json:"brand"`
	Purpose         string     `gorm:"size:64;index;not null" json:"purpose"`
	IdentifierType  string     `gorm:"size:16;index;not null" json:"identifier_type"`
	IdentifierValue string     `gorm:"size:255;index;not null" json:"identifier_value"`
	Channel         string     `gorm:"size:16;not null" json:"channel"`
	Code            string     `gorm:"size:8;not null" json:"-"`
	Status          string     `gorm:"size:16;index;not null;default:Pending" json:"status"`
	SentAt          time.Time  `json:"sent_at"`
	ExpiresAt       time.Time  `gorm:"index;not null" json:"expires_at"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	AttemptCount    int        `gorm:"not null;default:0" json:"attempt_count"`
	ResendCount     int        `gorm:"not null;default:0" json:"resend_count"`
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
