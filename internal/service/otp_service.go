package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/identity"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
)

// ErrOTPInvalid covers every verification failure: unknown identifier, wrong
// code, expired code, lost race. Callers must not distinguish them to the
// client.
var ErrOTPInvalid = errors.New("invalid or expired code")

// OTPNotification carries everything a delivery channel needs to send a code.
type OTPNotification struct {
	Brand           string
	IdentifierType  string
	IdentifierValue string
	Channel         string
	Code            string
	ExpiresAt       time.Time
}

type OTPNotifier interface {
	SendOTP(ctx context.Context, notification OTPNotification) error
}

// DevOTPNotifier logs codes instead of delivering them. Only wired outside
// production.
type DevOTPNotifier struct {
	logger *slog.Logger
}

func NewDevOTPNotifier(logger *slog.Logger) *DevOTPNotifier {
	return &DevOTPNotifier{logger: logger}
}

func (n *DevOTPNotifier) SendOTP(ctx context.Context, notification OTPNotification) error {
	n.logger.InfoContext(ctx, "otp code issued",
		"brand", notification.Brand,
		"identifier_type", notification.IdentifierType,
		"identifier", notification.IdentifierValue,
		"channel", notification.Channel,
		"code", notification.Code,
		"expires_at", notification.ExpiresAt,
	)
	return nil
}

// OTPService issues and verifies identifier-bound one-time codes and mints
// bearer sessions for verified identifiers.
type OTPService struct {
	otps       repository.OTPRepository
	notifier   OTPNotifier
	codec      *security.TokenCodec
	otpTTL     time.Duration
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewOTPService(
	otps repository.OTPRepository,
	notifier OTPNotifier,
	codec *security.TokenCodec,
	otpTTL, sessionTTL time.Duration,
	logger *slog.Logger,
) *OTPService {
	return &OTPService{
		otps:       otps,
		notifier:   notifier,
		codec:      codec,
		otpTTL:     otpTTL,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// OTPRequestInput identifies where a code should go. IdentifierValue is raw
// client input and gets normalized here.
type OTPRequestInput struct {
	Brand           string
	IdentifierType  string
	IdentifierValue string
}

// Request issues a fresh code for the identifier. It succeeds whether or not
// the identifier belongs to any journal so the endpoint cannot be used to
// probe which addresses exist.
func (s *OTPService) Request(ctx context.Context, input OTPRequestInput) error {
	value, channel := normalizeIdentifier(input.IdentifierType, input.IdentifierValue)
	if value == "" {
		return ErrOTPInvalid
	}
	tuple := repository.OTPTuple{
		Purpose:         domain.OTPPurposeDocumentPortal,
		Brand:           input.Brand,
		IdentifierType:  input.IdentifierType,
		IdentifierValue: value,
	}

	resends, err := s.otps.CountForTuple(ctx, tuple)
	if err != nil {
		observability.RecordAuthEvent(ctx, "otp_request", "error")
		return err
	}

	code, err := security.NewOTPCode()
	if err != nil {
		return err
	}
	disambiguator, err := security.NewHexToken(4)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	otp := &domain.OTP{
		Key: fmt.Sprintf("%s|%s|%s|%s|%s",
			tuple.Purpose, tuple.IdentifierType, tuple.IdentifierValue, tuple.Brand, disambiguator),
		Brand:           tuple.Brand,
		Purpose:         tuple.Purpose,
		IdentifierType:  tuple.IdentifierType,
		IdentifierValue: tuple.IdentifierValue,
		Channel:         channel,
		Code:            code,
		Status:          domain.OTPStatusPending,
		SentAt:          now,
		ExpiresAt:       now.Add(s.otpTTL),
		ResendCount:     int(resends),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		observability.RecordAuthEvent(ctx, "otp_request", "error")
		return err
	}

	if err := s.notifier.SendOTP(ctx, OTPNotification{
		Brand:           tuple.Brand,
		IdentifierType:  tuple.IdentifierType,
		IdentifierValue: tuple.IdentifierValue,
		Channel:         channel,
		Code:            code,
		ExpiresAt:       otp.ExpiresAt,
	}); err != nil {
		// The row exists; delivery is retried by requesting again.
		s.logger.ErrorContext(ctx, "otp delivery failed",
			"identifier_type", tuple.IdentifierType, "error", err)
	}
	observability.RecordAuthEvent(ctx, "otp_request", "success")
	return nil
}

type OTPVerifyInput struct {
	Brand           string
	IdentifierType  string
	IdentifierValue string
	Code            string
}

// OTPVerifyResult carries the minted session plus the canonical identifier the
// session is bound to.
type OTPVerifyResult struct {
	Session    string
	Identifier string
}

// Verify checks the newest pending code for the identifier and mints a
// session when it matches. All failures collapse to ErrOTPInvalid.
func (s *OTPService) Verify(ctx context.Context, input OTPVerifyInput) (*OTPVerifyResult, error) {
	value, _ := normalizeIdentifier(input.IdentifierType, input.IdentifierValue)
	if value == "" || input.Code == "" {
		observability.RecordAuthEvent(ctx, "otp_verify", "rejected")
		return nil, ErrOTPInvalid
	}
	tuple := repository.OTPTuple{
		Purpose:         domain.OTPPurposeDocumentPortal,
		Brand:           input.Brand,
		IdentifierType:  input.IdentifierType,
		IdentifierValue: value,
	}

	otp, err := s.otps.LatestPending(ctx, tuple)
	if err != nil {
		if errors.Is(err, repository.ErrOTPNotFound) {
			observability.RecordAuthEvent(ctx, "otp_verify", "rejected")
			return nil, ErrOTPInvalid
		}
		return nil, err
	}

	now := s.now().UTC()
	if now.After(otp.ExpiresAt) {
		s.bumpAttempts(ctx, otp.ID)
		observability.RecordAuthEvent(ctx, "otp_verify", "expired")
		return nil, ErrOTPInvalid
	}
	if subtle.ConstantTimeCompare([]byte(otp.Code), []byte(input.Code)) != 1 {
		s.bumpAttempts(ctx, otp.ID)
		observability.RecordAuthEvent(ctx, "otp_verify", "rejected")
		return nil, ErrOTPInvalid
	}

	won, err := s.otps.MarkVerified(ctx, otp.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		s.bumpAttempts(ctx, otp.ID)
		observability.RecordAuthEvent(ctx, "otp_verify", "conflict")
		return nil, ErrOTPInvalid
	}

	session, err := s.codec.Issue(subjectTypeFor(input.IdentifierType), value, s.sessionTTL, nil)
	if err != nil {
		return nil, err
	}
	observability.RecordAuthEvent(ctx, "otp_verify", "success")
	return &OTPVerifyResult{Session: session, Identifier: value}, nil
}

// bumpAttempts is best effort; a failed bump must not mask the rejection.
func (s *OTPService) bumpAttempts(ctx context.Context, id string) {
	if err := s.otps.IncrementAttempts(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "otp attempt bump failed", "otp_id", id, "error", err)
	}
}

// NormalizeIdentifierValue canonicalizes an identifier the same way session
// subjects are canonicalized at issue time, so handlers can compare
// client-provided identifiers against session claims.
func NormalizeIdentifierValue(identifierType, raw string) string {
	value, _ := normalizeIdentifier(identifierType, raw)
	return value
}

func normalizeIdentifier(identifierType, raw string) (value, channel string) {
	switch identifierType {
	case domain.IdentifierPhone:
		return identity.NormalizePhone(raw), domain.ChannelSMS
	default:
		return identity.NormalizeEmail(raw), domain.ChannelEmail
	}
}

func subjectTypeFor(identifierType string) string {
	if identifierType == domain.IdentifierPhone {
		return security.SubjectTypePhone
	}
	return security.SubjectTypeEmail
}
