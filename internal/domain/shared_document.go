package domain

import "time"

type SharedDocument struct {
	ID        string   `gorm:"primaryKey;size:36" json:"id"`
	JournalID string   `gorm:"size:36;index;not null" json:"journal_id"`
	Journal   *Journal `gorm:"foreignKey:JournalID" json:"-"`

	Name         string         `gorm:"size:255;not null" json:"name"`
	Version      int            `gorm:"not null;default:1" json:"version"`
	Status       DocumentStatus `gorm:"size:32;not null;default:Sent" json:"status"`
	StorageKey   string         `gorm:"size:512" json:"-"`
	DocumentType string         `gorm:"size:64;index" json:"document_type"`
	MarketUnit   string         `gorm:"size:32" json:"market_unit"`

	IsNewestVersion   bool `gorm:"not null;default:true;index" json:"is_newest_version"`
	IsApprovalBlocked bool `gorm:"not null;default:false" json:"is_approval_blocked"`
	SortOrder         int  `gorm:"not null;default:0" json:"sort_order"`

	SentAt        *time.Time `json:"sent_at,omitempty"`
	FirstViewedAt *time.Time `json:"first_viewed_at,omitempty"`
	LastViewedAt  *time.Time `json:"last_viewed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
