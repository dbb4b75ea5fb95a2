package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
)

const chatListLimit = 500

type ChatRepository interface {
	ListByJournal(ctx context.Context, journalID string, since *time.Time) ([]domain.ChatMessage, error)
	Create(ctx context.Context, msg *domain.ChatMessage) error
}

type GormChatRepository struct{ db *gorm.DB }

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &GormChatRepository{db: db}
}

func (r *GormChatRepository) ListByJournal(ctx context.Context, journalID string, since *time.Time) ([]domain.ChatMessage, error) {
	q := r.db.WithContext(ctx).Where("journal_id = ?", journalID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	var msgs []domain.ChatMessage
	if err := q.Order("created_at asc").Limit(chatListLimit).Find(&msgs).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "chat_message", "list_by_journal", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "chat_message", "list_by_journal", "success")
	return msgs, nil
}

func (r *GormChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "chat_message", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "chat_message", "create", "success")
	return nil
}
