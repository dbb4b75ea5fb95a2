package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/middleware"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/service"
)

const handlerTestSecret = "fedcba9876543210fedcba9876543210"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubOTPRepository struct {
	createFn        func(ctx context.Context, otp *domain.OTP) error
	latestPendingFn func(ctx context.Context, tuple repository.OTPTuple) (*domain.OTP, error)
	markVerifiedFn  func(ctx context.Context, id string, at time.Time) (bool, error)
}

func (s *stubOTPRepository) Create(ctx context.Context, otp *domain.OTP) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, otp)
}

func (s *stubOTPRepository) LatestPending(ctx context.Context, tuple repository.OTPTuple) (*domain.OTP, error) {
	if s.latestPendingFn == nil {
		return nil, repository.ErrOTPNotFound
	}
	return s.latestPendingFn(ctx, tuple)
}

func (s *stubOTPRepository) CountForTuple(ctx context.Context, tuple repository.OTPTuple) (int64, error) {
	return 0, nil
}

func (s *stubOTPRepository) MarkVerified(ctx context.Context, id string, at time.Time) (bool, error) {
	if s.markVerifiedFn == nil {
		return true, nil
	}
	return s.markVerifiedFn(ctx, id, at)
}

func (s *stubOTPRepository) IncrementAttempts(ctx context.Context, id string) error { return nil }

type stubJournalRepository struct {
	findByIDFn         func(ctx context.Context, id string) (*domain.Journal, error)
	findByExternalIDFn func(ctx context.Context, externalID string) (*domain.Journal, error)
	setOTPFn           func(ctx context.Context, id, code string, expiresAt time.Time) error
}

func (s *stubJournalRepository) FindByID(ctx context.Context, id string) (*domain.Journal, error) {
	if s.findByIDFn == nil {
		return nil, repository.ErrJournalNotFound
	}
	return s.findByIDFn(ctx, id)
}

func (s *stubJournalRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.Journal, error) {
	if s.findByExternalIDFn == nil {
		return nil, repository.ErrJournalNotFound
	}
	return s.findByExternalIDFn(ctx, externalID)
}

func (s *stubJournalRepository) SetOTP(ctx context.Context, id, code string, expiresAt time.Time) error {
	if s.setOTPFn == nil {
		return nil
	}
	return s.setOTPFn(ctx, id, code, expiresAt)
}

func (s *stubJournalRepository) Create(ctx context.Context, journal *domain.Journal) error {
	return nil
}

type stubDocumentRepository struct {
	findByIDFn     func(ctx context.Context, id string) (*domain.SharedDocument, error)
	listByJournal  func(ctx context.Context, journalID string) ([]domain.SharedDocument, error)
	listByOwnerFn  func(ctx context.Context, filter repository.DocumentFilter) ([]domain.SharedDocument, error)
	countByOwnerFn func(ctx context.Context, filter repository.DocumentFilter) (int64, error)
	markViewedFn   func(ctx context.Context, id string, at time.Time, toViewed bool) error
	approveFn      func(ctx context.Context, id string) (bool, error)
}

func (s *stubDocumentRepository) FindByID(ctx context.Context, id string) (*domain.SharedDocument, error) {
	if s.findByIDFn == nil {
		return nil, repository.ErrDocumentNotFound
	}
	return s.findByIDFn(ctx, id)
}

func (s *stubDocumentRepository) ListByJournal(ctx context.Context, journalID string) ([]domain.SharedDocument, error) {
	if s.listByJournal == nil {
		return nil, nil
	}
	return s.listByJournal(ctx, journalID)
}

func (s *stubDocumentRepository) ListByOwner(ctx context.Context, filter repository.DocumentFilter) ([]domain.SharedDocument, error) {
	if s.listByOwnerFn == nil {
		return nil, nil
	}
	return s.listByOwnerFn(ctx, filter)
}

func (s *stubDocumentRepository) CountByOwner(ctx context.Context, filter repository.DocumentFilter) (int64, error) {
	if s.countByOwnerFn == nil {
		return 0, nil
	}
	return s.countByOwnerFn(ctx, filter)
}

func (s *stubDocumentRepository) MarkViewed(ctx context.Context, id string, at time.Time, toViewed bool) error {
	if s.markViewedFn == nil {
		return nil
	}
	return s.markViewedFn(ctx, id, at, toViewed)
}

func (s *stubDocumentRepository) Approve(ctx context.Context, id string) (bool, error) {
	if s.approveFn == nil {
		return false, nil
	}
	return s.approveFn(ctx, id)
}

func (s *stubDocumentRepository) Create(ctx context.Context, doc *domain.SharedDocument) error {
	return nil
}

type stubLinkRepository struct {
	findByTokenFn func(ctx context.Context, token string) (*domain.ImpersonationLink, error)
	markUsedFn    func(ctx context.Context, id string, at time.Time, sourceIP string) (bool, error)
}

func (s *stubLinkRepository) FindByToken(ctx context.Context, token string) (*domain.ImpersonationLink, error) {
	if s.findByTokenFn == nil {
		return nil, repository.ErrLinkNotFound
	}
	return s.findByTokenFn(ctx, token)
}

func (s *stubLinkRepository) MarkUsed(ctx context.Context, id string, at time.Time, sourceIP string) (bool, error) {
	if s.markUsedFn == nil {
		return true, nil
	}
	return s.markUsedFn(ctx, id, at, sourceIP)
}

func (s *stubLinkRepository) Create(ctx context.Context, link *domain.ImpersonationLink) error {
	return nil
}

type stubChatRepository struct {
	listFn   func(ctx context.Context, journalID string, since *time.Time) ([]domain.ChatMessage, error)
	createFn func(ctx context.Context, msg *domain.ChatMessage) error
}

func (s *stubChatRepository) ListByJournal(ctx context.Context, journalID string, since *time.Time) ([]domain.ChatMessage, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, journalID, since)
}

func (s *stubChatRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if s.createFn == nil {
		msg.ID = "msg-1"
		return nil
	}
	return s.createFn(ctx, msg)
}

type stubStorage struct {
	downloads []string
	uploads   []string
}

func (s *stubStorage) PresignDownload(ctx context.Context, objectKey, filename string) (string, error) {
	s.downloads = append(s.downloads, objectKey)
	return fmt.Sprintf("https://storage.test/%s?name=%s", objectKey, filename), nil
}

func (s *stubStorage) PresignUpload(ctx context.Context, objectKey string) (string, error) {
	s.uploads = append(s.uploads, objectKey)
	return "https://storage.test/put/" + objectKey, nil
}

type captureNotifier struct {
	sent []service.OTPNotification
}

func (n *captureNotifier) SendOTP(ctx context.Context, notification service.OTPNotification) error {
	n.sent = append(n.sent, notification)
	return nil
}

// handlerEnv wires real services on stub repositories so handler tests hit
// the whole request path below the router.
type handlerEnv struct {
	codec     *security.TokenCodec
	otps      *stubOTPRepository
	journals  *stubJournalRepository
	documents *stubDocumentRepository
	links     *stubLinkRepository
	chats     *stubChatRepository
	storage   *stubStorage
	notifier  *captureNotifier

	auth *AuthHandler
	docs *DocumentHandler
	chat *ChatHandler
}

func newHandlerEnv() *handlerEnv {
	env := &handlerEnv{
		codec:     security.NewTokenCodec(handlerTestSecret),
		otps:      &stubOTPRepository{},
		journals:  &stubJournalRepository{},
		documents: &stubDocumentRepository{},
		links:     &stubLinkRepository{},
		chats:     &stubChatRepository{},
		storage:   &stubStorage{},
		notifier:  &captureNotifier{},
	}
	logger := testLogger()
	otpSvc := service.NewOTPService(env.otps, env.notifier, env.codec, 10*time.Minute, time.Hour, logger)
	impSvc := service.NewImpersonationService(env.links, env.codec, time.Hour, logger)
	journalAuth := service.NewJournalAuthService(env.journals, env.notifier, 10*time.Minute, logger)
	keys := service.NewObjectKeyBuilder(map[string]string{"DFJ_DK": "dk/customer-documents"})
	docSvc := service.NewDocumentService(env.documents, env.journals, env.storage, keys, logger)
	chatSvc := service.NewChatService(env.chats, env.documents, logger)

	env.auth = NewAuthHandler(otpSvc, impSvc, journalAuth, logger)
	env.docs = NewDocumentHandler(docSvc, journalAuth, logger)
	env.chat = NewChatHandler(chatSvc, journalAuth, logger)
	return env
}

// issueSession mints a real bearer token the RequireSession middleware will
// accept.
func (env *handlerEnv) issueSession(t *testing.T, subjectType, subject string, extra *security.ExtraClaims) string {
	t.Helper()
	token, err := env.codec.Issue(subjectType, subject, time.Hour, extra)
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return token
}

// withSession wraps a handler the way the router does for protected routes.
func (env *handlerEnv) withSession(h http.HandlerFunc) http.Handler {
	return middleware.RequireSession(env.codec)(h)
}

func postJSON(t *testing.T, h http.Handler, target string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type testEnvelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return env
}

// envelopeData fails unless the response is a success envelope, then returns
// its data payload.
func envelopeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("expected success envelope, got %q", rec.Body.String())
	}
	return env.Data
}

func wantErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %q)", rec.Code, status, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil || env.Error.Code != code {
		t.Fatalf("error code = %+v, want %s", env.Error, code)
	}
}
