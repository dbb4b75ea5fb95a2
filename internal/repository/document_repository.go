package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
)

var ErrDocumentNotFound = errors.New("shared document not found")

const listLimit = 200

// DocumentFilter narrows identifier-based listings. Exactly one of Email or
// PhoneVariants is set; JournalID optionally restricts to a single journal.
type DocumentFilter struct {
	Email         string
	Phone         string
	PhoneVariants []string
	JournalID     string
	// AllVersions keeps superseded versions in the result set. Listings
	// never want that; match counting does.
	AllVersions bool
}

type DocumentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.SharedDocument, error)
	ListByJournal(ctx context.Context, journalID string) ([]domain.SharedDocument, error)
	ListByOwner(ctx context.Context, filter DocumentFilter) ([]domain.SharedDocument, error)
	CountByOwner(ctx context.Context, filter DocumentFilter) (int64, error)
	MarkViewed(ctx context.Context, id string, at time.Time, toViewed bool) error
	Approve(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, doc *domain.SharedDocument) error
}

type GormDocumentRepository struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) FindByID(ctx context.Context, id string) (*domain.SharedDocument, error) {
	var doc domain.SharedDocument
	err := r.db.WithContext(ctx).Preload("Journal").Where("id = ?", id).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "shared_document", "find_by_id", "not_found")
			return nil, ErrDocumentNotFound
		}
		observability.RecordRepositoryOperation(ctx, "shared_document", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "shared_document", "find_by_id", "success")
	return &doc, nil
}

func (r *GormDocumentRepository) ListByJournal(ctx context.Context, journalID string) ([]domain.SharedDocument, error) {
	var docs []domain.SharedDocument
	err := r.db.WithContext(ctx).Preload("Journal").
		Where("journal_id = ?", journalID).
		Where("is_newest_version = ?", true).
		Order("sort_order asc").Order("name asc").
		Limit(listLimit).
		Find(&docs).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "shared_document", "list_by_journal", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "shared_document", "list_by_journal", "success")
	return docs, nil
}

func (r *GormDocumentRepository) ListByOwner(ctx context.Context, filter DocumentFilter) ([]domain.SharedDocument, error) {
	var docs []domain.SharedDocument
	err := r.ownerQuery(ctx, filter).
		Order("shared_documents.sort_order asc").Order("shared_documents.name asc").
		Limit(listLimit).
		Find(&docs).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "shared_document", "list_by_owner", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "shared_document", "list_by_owner", "success")
	return docs, nil
}

func (r *GormDocumentRepository) CountByOwner(ctx context.Context, filter DocumentFilter) (int64, error) {
	var count int64
	err := r.ownerQuery(ctx, filter).Model(&domain.SharedDocument{}).Count(&count).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "shared_document", "count_by_owner", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "shared_document", "count_by_owner", "success")
	return count, nil
}

// ownerQuery builds the newest-version + primary-or-spouse predicate. Spouse
// matching only applies when the journal has spouse co-recipiency enabled.
func (r *GormDocumentRepository) ownerQuery(ctx context.Context, filter DocumentFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&domain.SharedDocument{}).
		Joins("Journal").Preload("Journal")
	if !filter.AllVersions {
		q = q.Where("shared_documents.is_newest_version = ?", true)
	}
	if filter.Email != "" {
		q = q.Where(
			r.db.Where(`"Journal".primary_email = ?`, filter.Email).
				Or(`"Journal".spouse_recipient = ? AND "Journal".spouse_email = ?`, true, filter.Email),
		)
	} else {
		variants := filter.PhoneVariants
		if len(variants) == 0 {
			variants = []string{filter.Phone}
		}
		q = q.Where(
			r.db.Where(`"Journal".primary_phone = ?`, filter.Phone).
				Or(`"Journal".spouse_recipient = ? AND "Journal".spouse_phone IN ?`, true, variants),
		)
	}
	if filter.JournalID != "" {
		q = q.Where("shared_documents.journal_id = ?", filter.JournalID)
	}
	return q
}

// MarkViewed stamps view timestamps and optionally moves Sent to Viewed.
// Best-effort from the caller's perspective; a failure only degrades audit.
func (r *GormDocumentRepository) MarkViewed(ctx context.Context, id string, at time.Time, toViewed bool) error {
	fields := map[string]any{"last_viewed_at": at}
	if toViewed {
		fields["status"] = domain.StatusViewed
	}
	res := r.db.WithContext(ctx).Model(&domain.SharedDocument{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "shared_document", "mark_viewed", "error")
		return res.Error
	}
	// First view stamp only when unset.
	r.db.WithContext(ctx).Model(&domain.SharedDocument{}).
		Where("id = ? AND first_viewed_at IS NULL", id).
		Update("first_viewed_at", at)
	observability.RecordRepositoryOperation(ctx, "shared_document", "mark_viewed", "success")
	return nil
}

// Approve transitions to Approved with a status guard so a stale read can
// never approve a blocked or already-approved row.
func (r *GormDocumentRepository) Approve(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.SharedDocument{}).
		Where("id = ? AND is_approval_blocked = ? AND status IN ?", id, false,
			[]domain.DocumentStatus{domain.StatusSent, domain.StatusViewed}).
		Update("status", domain.StatusApproved)
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "shared_document", "approve", "error")
		return false, res.Error
	}
	outcome := "success"
	if res.RowsAffected == 0 {
		outcome = "skipped"
	}
	observability.RecordRepositoryOperation(ctx, "shared_document", "approve", outcome)
	return res.RowsAffected > 0, nil
}

func (r *GormDocumentRepository) Create(ctx context.Context, doc *domain.SharedDocument) error {
	if doc.ID == "" {
		doc.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "shared_document", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "shared_document", "create", "success")
	return nil
}
