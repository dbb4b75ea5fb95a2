package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
)

var ErrOTPNotFound = errors.New("otp record not found")

// OTPTuple identifies the ledger partition a code lives in.
type OTPTuple struct {
	Purpose         string
	Brand           string
	IdentifierType  string
	IdentifierValue string
}

type OTPRepository interface {
	Create(ctx context.Context, otp *domain.OTP) error
	LatestPending(ctx context.Context, tuple OTPTuple) (*domain.OTP, error)
	CountForTuple(ctx context.Context, tuple OTPTuple) (int64, error)
	// MarkVerified flips Pending to Verified exactly once; the boolean is
	// false when another verification already won the race.
	MarkVerified(ctx context.Context, id string, at time.Time) (bool, error)
	IncrementAttempts(ctx context.Context, id string) error
}

type GormOTPRepository struct{ db *gorm.DB }

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &GormOTPRepository{db: db}
}

func (r *GormOTPRepository) Create(ctx context.Context, otp *domain.OTP) error {
	if otp.ID == "" {
		otp.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(otp).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "otp", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "otp", "create", "success")
	return nil
}

func (r *GormOTPRepository) LatestPending(ctx context.Context, tuple OTPTuple) (*domain.OTP, error) {
	var otp domain.OTP
	err := r.tupleQuery(ctx, tuple).
		Where("status = ?", domain.OTPStatusPending).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "otp", "latest_pending", "not_found")
			return nil, ErrOTPNotFound
		}
		observability.RecordRepositoryOperation(ctx, "otp", "latest_pending", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "otp", "latest_pending", "success")
	return &otp, nil
}

func (r *GormOTPRepository) CountForTuple(ctx context.Context, tuple OTPTuple) (int64, error) {
	var count int64
	if err := r.tupleQuery(ctx, tuple).Count(&count).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "otp", "count_for_tuple", "error")
		return 0, err
	}
	observability.RecordRepositoryOperation(ctx, "otp", "count_for_tuple", "success")
	return count, nil
}

func (r *GormOTPRepository) tupleQuery(ctx context.Context, tuple OTPTuple) *gorm.DB {
	return r.db.WithContext(ctx).Model(&domain.OTP{}).
		Where("purpose = ? AND brand = ? AND identifier_type = ? AND identifier_value = ?",
			tuple.Purpose, tuple.Brand, tuple.IdentifierType, tuple.IdentifierValue)
}

func (r *GormOTPRepository) MarkVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.OTP{}).
		Where("id = ? AND status = ?", id, domain.OTPStatusPending).
		Updates(map[string]any{
			"status":        domain.OTPStatusVerified,
			"verified_at":   at,
			"attempt_count": gorm.Expr("attempt_count + 1"),
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "otp", "mark_verified", "error")
		return false, res.Error
	}
	outcome := "success"
	if res.RowsAffected == 0 {
		outcome = "conflict"
	}
	observability.RecordRepositoryOperation(ctx, "otp", "mark_verified", outcome)
	return res.RowsAffected > 0, nil
}

func (r *GormOTPRepository) IncrementAttempts(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&domain.OTP{}).
		Where("id = ?", id).
		Update("attempt_count", gorm.Expr("attempt_count + 1"))
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "otp", "increment_attempts", "error")
		return res.Error
	}
	observability.RecordRepositoryOperation(ctx, "otp", "increment_attempts", "success")
	return nil
}
