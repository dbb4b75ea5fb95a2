package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/timeutil"
)

var (
	ErrJournalUnauthorized = errors.New("journal credentials rejected")
	ErrJournalOTPInvalid   = errors.New("invalid journal code")
	ErrJournalOTPExpired   = errors.New("expired journal code")
)

// JournalAuthService covers the legacy flow: clients hold a journal number
// and a shared access token, optionally hardened with a per-journal code.
type JournalAuthService struct {
	journals repository.JournalRepository
	notifier OTPNotifier
	otpTTL   time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewJournalAuthService(
	journals repository.JournalRepository,
	notifier OTPNotifier,
	otpTTL time.Duration,
	logger *slog.Logger,
) *JournalAuthService {
	return &JournalAuthService{
		journals: journals,
		notifier: notifier,
		otpTTL:   otpTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Authenticate checks the externalId+accessToken pair. The stored token is a
// plain shared secret compared verbatim; there is nothing to hash.
func (s *JournalAuthService) Authenticate(ctx context.Context, externalID, accessToken string) (string, error) {
	if externalID == "" || accessToken == "" {
		return "", ErrJournalUnauthorized
	}
	journal, err := s.journals.FindByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, repository.ErrJournalNotFound) {
			observability.RecordAuthEvent(ctx, "journal_auth", "rejected")
			return "", ErrJournalUnauthorized
		}
		return "", err
	}
	if journal.AccessToken == "" ||
		subtle.ConstantTimeCompare([]byte(journal.AccessToken), []byte(accessToken)) != 1 {
		observability.RecordAuthEvent(ctx, "journal_auth", "rejected")
		return "", ErrJournalUnauthorized
	}
	observability.RecordAuthEvent(ctx, "journal_auth", "success")
	return journal.ID, nil
}

// SendOTP stamps a fresh code onto the journal row. The response to the
// client carries no hint whether delivery happened.
func (s *JournalAuthService) SendOTP(ctx context.Context, externalID string) error {
	journal, err := s.journals.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	code, err := security.NewOTPCode()
	if err != nil {
		return err
	}
	expiresAt := s.now().UTC().Add(s.otpTTL)
	if err := s.journals.SetOTP(ctx, journal.ID, code, expiresAt); err != nil {
		return err
	}
	if err := s.notifier.SendOTP(ctx, OTPNotification{
		Brand:           journal.MarketUnit,
		IdentifierValue: journal.ExternalID,
		Code:            code,
		ExpiresAt:       expiresAt,
	}); err != nil {
		s.logger.ErrorContext(ctx, "journal otp delivery failed", "journal_id", journal.ID, "error", err)
	}
	observability.RecordAuthEvent(ctx, "journal_otp_send", "success")
	return nil
}

// VerifyOTP checks the code currently on the journal row. Expiry fails
// closed: a missing or unparseable expiry rejects the code.
func (s *JournalAuthService) VerifyOTP(ctx context.Context, externalID, code string) error {
	journal, err := s.journals.FindByExternalID(ctx, externalID)
	if err != nil {
		return err
	}
	if code == "" || journal.OTPCode == "" ||
		subtle.ConstantTimeCompare([]byte(journal.OTPCode), []byte(code)) != 1 {
		observability.RecordAuthEvent(ctx, "journal_otp_verify", "rejected")
		return ErrJournalOTPInvalid
	}
	if timeutil.Expired(journal.OTPExpiresAt, s.now().UTC()) {
		observability.RecordAuthEvent(ctx, "journal_otp_verify", "expired")
		return ErrJournalOTPExpired
	}
	observability.RecordAuthEvent(ctx, "journal_otp_verify", "success")
	return nil
}
