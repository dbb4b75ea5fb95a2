package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubOTPRepository struct {
	createFn            func(ctx context.Context, otp *domain.OTP) error
	latestPendingFn     func(ctx context.Context, tuple repository.OTPTuple) (*domain.OTP, error)
	countForTupleFn     func(ctx context.Context, tuple repository.OTPTuple) (int64, error)
	markVerifiedFn      func(ctx context.Context, id string, at time.Time) (bool, error)
	incrementAttemptsFn func(ctx context.Context, id string) error
}

func (s *stubOTPRepository) Create(ctx context.Context, otp *domain.OTP) error {
	return s.createFn(ctx, otp)
}

func (s *stubOTPRepository) LatestPending(ctx context.Context, tuple repository.OTPTuple) (*domain.OTP, error) {
	return s.latestPendingFn(ctx, tuple)
}

func (s *stubOTPRepository) CountForTuple(ctx context.Context, tuple repository.OTPTuple) (int64, error) {
	if s.countForTupleFn == nil {
		return 0, nil
	}
	return s.countForTupleFn(ctx, tuple)
}

func (s *stubOTPRepository) MarkVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	return s.markVerifiedFn(ctx, id, at)
}

func (s *stubOTPRepository) IncrementAttempts(ctx context.Context, id string) error {
	if s.incrementAttemptsFn == nil {
		return nil
	}
	return s.incrementAttemptsFn(ctx, id)
}

type stubJournalRepository struct {
	findByIDFn         func(ctx context.Context, id string) (*domain.Journal, error)
	findByExternalIDFn func(ctx context.Context, externalID string) (*domain.Journal, error)
	setOTPFn           func(ctx context.Context, id, code string, expiresAt time.Time) error
	createFn           func(ctx context.Context, journal *domain.Journal) error
}

func (s *stubJournalRepository) FindByID(ctx context.Context, id string) (*domain.Journal, error) {
	return s.findByIDFn(ctx, id)
}

func (s *stubJournalRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Journal, error) {
	return s.findByExternalIDFn(ctx, externalID)
}

func (s *stubJournalRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	return s.setOTPFn(ctx, id, code, expiresAt)
}

func (s *stubJournalRepository) Create(ctx context.Context, journal *domain.Journal) error {
	return s.createFn(ctx, journal)
}

type stubDocumentRepository struct {
	findByIDFn      func(ctx context.Context, id string) (*domain.SharedDocument, error)
	listByJournalFn func(ctx context.Context, journalID string) ([]domain.SharedDocument, error)
	listByOwnerFn   func(ctx context.Context, filter repository.DocumentFilter) ([]domain.SharedDocument, error)
	countByOwnerFn  func(ctx context.Context, filter repository.DocumentFilter) (int64, error)
	markViewedFn    func(ctx context.Context, id string, at time.Time, toViewed bool) error
	approveFn       func(ctx context.Context, id string) (bool, error)
	createFn        func(ctx context.Context, doc *domain.SharedDocument) error
}

func (s *stubDocumentRepository) FindByID(ctx context.Context, id string) (*domain.SharedDocument, error) {
	return s.findByIDFn(ctx, id)
}

func (s *stubDocumentRepository) ListByJournal(ctx context.Context, journalID string) ([]domain.SharedDocument, error) {
	return s.listByJournalFn(ctx, journalID)
}

func (s *stubDocumentRepository) ListByOwner(ctx context.Context, filter repository.DocumentFilter) ([]domain.SharedDocument, error) {
	return s.listByOwnerFn(ctx, filter)
}

func (s *stubDocumentRepository) CountByOwner(ctx context.Context, filter repository.DocumentFilter) (int64, error) {
	return s.countByOwnerFn(ctx, filter)
}

func (s *stubDocumentRepository) MarkViewed(ctx context.Context, id string, at time.Time, toViewed bool) error {
	if s.markViewedFn == nil {
		return nil
	}
	return s.markViewedFn(ctx, id, at, toViewed)
}

func (s *stubDocumentRepository) Approve(ctx context.Context, id string) (bool, error) {
	return s.approveFn(ctx, id)
}

func (s *stubDocumentRepository) Create(ctx context.Context, doc *domain.SharedDocument) error {
	return s.createFn(ctx, doc)
}

type stubLinkRepository struct {
	findByTokenFn func(ctx context.Context, token string) (*domain.ImpersonationLink, error)
	markUsedFn    func(ctx context.Context, id string, at time.Time, sourceIP string) (bool, error)
	createFn      func(ctx context.Context, link *domain.ImpersonationLink) error
}

func (s *stubLinkRepository) FindByToken(ctx context.Context, token string) (*domain.ImpersonationLink, error) {
	return s.findByTokenFn(ctx, token)
}

func (s *stubLinkRepository) MarkUsed(ctx context.Context, id string, at time.Time, sourceIP string) (bool, error) {
	return s.markUsedFn(ctx, id, at, sourceIP)
}

func (s *stubLinkRepository) Create(ctx context.Context, link *domain.ImpersonationLink) error {
	return s.createFn(ctx, link)
}

type stubChatRepository struct {
	listByJournalFn func(ctx context.Context, journalID string, since *time.Time) ([]domain.ChatMessage, error)
	createFn        func(ctx context.Context, msg *domain.ChatMessage) error
}

func (s *stubChatRepository) ListByJournal(ctx context.Context, journalID string, since *time.Time) ([]domain.ChatMessage, error) {
	return s.listByJournalFn(ctx, journalID, since)
}

func (s *stubChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	return s.createFn(ctx, msg)
}

// stubStorage signs deterministic URLs so tests can assert on the key.
type stubStorage struct {
	downloads []string
	uploads   []string
	err       error
}

func (s *stubStorage) PresignDownload(_ context.Context, objectKey, filename string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.downloads = append(s.downloads, objectKey)
	return fmt.Sprintf("https://storage.test/%s?name=%s", objectKey, filename), nil
}

func (s *stubStorage) PresignUpload(_ context.Context, objectKey string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, objectKey)
	return "https://storage.test/put/" + objectKey, nil
}

// captureNotifier records notifications instead of delivering.
type captureNotifier struct {
	sent []OTPNotification
	err  error
}

func (n *captureNotifier) SendOTP(_ context.Context, notification OTPNotification) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, notification)
	return nil
}
