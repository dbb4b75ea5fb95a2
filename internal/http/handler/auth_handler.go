package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/response"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/service"
)

type AuthHandler struct {
	otps          *service.OTPService
	impersonation *service.ImpersonationService
	journalAuth   *service.JournalAuthService
	logger        *slog.Logger
}

func NewAuthHandler(
	otps *service.OTPService,
	impersonation *service.ImpersonationService,
	journalAuth *service.JournalAuthService,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		otps:          otps,
		impersonation: impersonation,
		journalAuth:   journalAuth,
		logger:        logger,
	}
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}

type identifierRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

// exactlyOne enforces the email-XOR-phone contract shared by the identifier
// endpoints.
func (req *identifierRequest) exactlyOne() (identifierType, value string, ok bool) {
	hasEmail := strings.TrimSpace(req.Email) != ""
	hasPhone := strings.TrimSpace(req.Phone) != ""
	if hasEmail == hasPhone {
		return "", "", false
	}
	if hasEmail {
		return domain.IdentifierEmail, req.Email, true
	}
	return domain.IdentifierPhone, req.Phone, true
}

// RequestOTP is deliberately a soft-success endpoint: whatever happens, the
// caller learns nothing about whether the identifier exists.
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	identifierType, value, ok := req.exactlyOne()
	if !ok {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "provide exactly one of: email or phone")
		return
	}
	err := h.otps.Request(r.Context(), service.OTPRequestInput{
		Brand:           DetectBrand(r),
		IdentifierType:  identifierType,
		IdentifierValue: value,
	})
	if err != nil && !errors.Is(err, service.ErrOTPInvalid) {
		h.logger.ErrorContext(r.Context(), "otp request failed", "error", err)
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// VerifyOTP never returns an HTTP error for a bad code; the body's ok flag
// carries the verdict so the client cannot time or enumerate failures.
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req identifierRequest
	if err := decodeJSON(r, &req); err != nil {
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": false})
		return
	}
	identifierType, value, ok := req.exactlyOne()
	if !ok || len(req.OTP) != 6 {
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": false})
		return
	}
	result, err := h.otps.Verify(r.Context(), service.OTPVerifyInput{
		Brand:           DetectBrand(r),
		IdentifierType:  identifierType,
		IdentifierValue: value,
		Code:            strings.TrimSpace(req.OTP),
	})
	if err != nil {
		if !errors.Is(err, service.ErrOTPInvalid) {
			h.logger.ErrorContext(r.Context(), "otp verify failed", "error", err)
		}
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": false})
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":         true,
		"session":    result.Session,
		"identifier": result.Identifier,
	})
}

type impersonationLoginRequest struct {
	Token string `json:"token"`
}

// ImpersonationLogin redeems a single-use link. Rejections ride in the body
// with ok=false and a human-readable reason, mirroring the OTP endpoints.
func (h *AuthHandler) ImpersonationLogin(w http.ResponseWriter, r *http.Request) {
	var req impersonationLoginRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Token) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing token")
		return
	}
	result, err := h.impersonation.Redeem(r.Context(), strings.TrimSpace(req.Token), clientIP(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLinkNotFound):
			response.JSON(w, r, http.StatusOK, map[string]any{"ok": false, "error": "Invalid or expired token"})
		case errors.Is(err, service.ErrLinkRevoked):
			response.JSON(w, r, http.StatusOK, map[string]any{"ok": false, "error": "This link has been revoked"})
		case errors.Is(err, service.ErrLinkUsed):
			response.JSON(w, r, http.StatusOK, map[string]any{"ok": false, "error": "This link has already been used"})
		case errors.Is(err, service.ErrLinkExpired):
			response.JSON(w, r, http.StatusOK, map[string]any{"ok": false, "error": "Token expired"})
		default:
			h.logger.ErrorContext(r.Context(), "impersonation login failed", "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to validate token")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":           true,
		"session":      result.Session,
		"journalId":    result.JournalID,
		"journalName":  result.JournalName,
		"allowApprove": result.AllowApprove,
	})
}

type journalOTPRequest struct {
	ExternalID string `json:"externalId"`
	OTP        string `json:"otp"`
}

// OTPSend is the legacy journal-flow code sender.
func (h *AuthHandler) OTPSend(w http.ResponseWriter, r *http.Request) {
	var req journalOTPRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.ExternalID) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing externalId")
		return
	}
	if err := h.journalAuth.SendOTP(r.Context(), strings.TrimSpace(req.ExternalID)); err != nil {
		if errors.Is(err, repository.ErrJournalNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "journal not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "journal otp send failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to send code")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
}

// OTPVerify is the legacy journal-flow code check. Bad codes come back with
// ok=false, not an error status.
func (h *AuthHandler) OTPVerify(w http.ResponseWriter, r *http.Request) {
	var req journalOTPRequest
	if err := decodeJSON(r, &req); err != nil ||
		strings.TrimSpace(req.ExternalID) == "" || strings.TrimSpace(req.OTP) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing externalId or otp")
		return
	}
	err := h.journalAuth.VerifyOTP(r.Context(), strings.TrimSpace(req.ExternalID), strings.TrimSpace(req.OTP))
	switch {
	case err == nil:
		response.JSON(w, r, http.StatusOK, map[string]bool{"ok": true})
	case errors.Is(err, repository.ErrJournalNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "journal not found")
	case errors.Is(err, service.ErrJournalOTPInvalid):
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": false, "error": "Invalid code"})
	case errors.Is(err, service.ErrJournalOTPExpired):
		response.JSON(w, r, http.StatusOK, map[string]any{"ok": false, "error": "Code expired"})
	default:
		h.logger.ErrorContext(r.Context(), "journal otp verify failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to verify code")
	}
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if comma := strings.IndexByte(ip, ','); comma >= 0 {
			ip = ip[:comma]
		}
		return strings.TrimSpace(ip)
	}
	return r.RemoteAddr
}
