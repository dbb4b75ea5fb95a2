package domain

import "time"

type ChatMessage struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	JournalID  string    `gorm:"size:36;index;not null" json:"journal_id"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Inbound    bool      `gorm:"not null;default:false" json:"inbound"`
	AuthorName string    `gorm:"size:128" json:"author_name"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}
