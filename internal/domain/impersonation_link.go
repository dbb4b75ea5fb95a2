package domain

import "time"

// ImpersonationLink is a staff-issued, single-use token granting a
// journal-scoped session without OTP verification. UsedAt is written before
// any session is handed out; a link whose UsedAt is non-nil is burned forever.
type ImpersonationLink struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	Token     string   `gorm:"size:128;uniqueIndex;not null" json:"-"`
	JournalID string   `gorm:"size:36;index;not null" json:"journal_id"`
	Journal   *Journal `gorm:"foreignKey:JournalID" json:"-"`

	AllowApprove bool       `gorm:"not null;default:false" json:"allow_approve"`
	ExpiresAt    time.Time  `gorm:"index;not null" json:"expires_at"`
	UsedAt       *time.Time `gorm:"index" json:"used_at,omitempty"`
	UsedByIP     string     `gorm:"size:64" json:"-"`
	IsRevoked    bool       `gorm:"not null;default:false" json:"is_revoked"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
