package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
)

var ErrLinkNotFound = errors.New("impersonation link not found")

type ImpersonationLinkRepository interface {
	FindByToken(ctx context.Context, token string) (*domain.ImpersonationLink, error)
	// MarkUsed burns the link with an optimistic guard: the update only
	// lands while used_at is still null and the link is not revoked, so
	// concurrent redemptions cannot both succeed.
	MarkUsed(ctx context.Context, id string, at time.Time, sourceIP string) (bool, error)
	Create(ctx context.Context, link *domain.ImpersonationLink) error
}

type GormImpersonationLinkRepository struct{ db *gorm.DB }

func NewImpersonationLinkRepository(db *gorm.DB) ImpersonationLinkRepository {
	return &GormImpersonationLinkRepository{db: db}
}

func (r *GormImpersonationLinkRepository) FindByToken(ctx context.Context, token string) (*domain.ImpersonationLink, error) {
	var link domain.ImpersonationLink
	err := r.db.WithContext(ctx).Preload("Journal").Where("token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "impersonation_link", "find_by_token", "not_found")
			return nil, ErrLinkNotFound
		}
		observability.RecordRepositoryOperation(ctx, "impersonation_link", "find_by_token", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "impersonation_link", "find_by_token", "success")
	return &link, nil
}

func (r *GormImpersonationLinkRepository) MarkUsed(ctx context.Context, id string, at time.Time, sourceIP string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.ImpersonationLink{}).
		Where("id = ? AND used_at IS NULL AND is_revoked = ?", id, false).
		Updates(map[string]any{
			"used_at":    at,
			"used_by_ip": sourceIP,
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "impersonation_link", "mark_used", "error")
		return false, res.Error
	}
	outcome := "success"
	if res.RowsAffected == 0 {
		outcome = "conflict"
	}
	observability.RecordRepositoryOperation(ctx, "impersonation_link", "mark_used", outcome)
	return res.RowsAffected > 0, nil
}

func (r *GormImpersonationLinkRepository) Create(ctx context.Context, link *domain.ImpersonationLink) error {
	if link.ID == "" {
		link.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "impersonation_link", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "impersonation_link", "create", "success")
	return nil
}
