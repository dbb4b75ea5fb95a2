package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
)

var ErrJournalNotFound = errors.New("journal not found")

type JournalRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Journal, error)
	FindByExternalID(ctx context.Context, externalID string) (*domain.Journal, error)
	SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error
	Create(ctx context.Context, journal *domain.Journal) error
}

type GormJournalRepository struct{ db *gorm.DB }

func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &GormJournalRepository{db: db}
}

func (r *GormJournalRepository) FindByID(ctx context.Context, id string) (*domain.Journal, error) {
	var journal domain.Journal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&journal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "journal", "find_by_id", "not_found")
			return nil, ErrJournalNotFound
		}
		observability.RecordRepositoryOperation(ctx, "journal", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "journal", "find_by_id", "success")
	return &journal, nil
}

func (r *GormJournalRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Journal, error) {
	var journal domain.Journal
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&journal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "journal", "find_by_external_id", "not_found")
			return nil, ErrJournalNotFound
		}
		observability.RecordRepositoryOperation(ctx, "journal", "find_by_external_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "journal", "find_by_external_id", "success")
	return &journal, nil
}

func (r *GormJournalRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Journal{}).Where("id = ?", id).Updates(map[string]any{
		"otp_code":       code,
		"otp_expires_at": expiresAt,
	})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "journal", "set_otp", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "journal", "set_otp", "not_found")
		return ErrJournalNotFound
	}
	observability.RecordRepositoryOperation(ctx, "journal", "set_otp", "success")
	return nil
}

func (r *GormJournalRepository) Create(ctx context.Context, journal *domain.Journal) error {
	if journal.ID == "" {
		journal.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(journal).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "journal", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "journal", "create", "success")
	return nil
}
