package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/middleware"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/response"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/service"
)

type DocumentHandler struct {
	documents   *service.DocumentService
	journalAuth *service.JournalAuthService
	logger      *slog.Logger
}

func NewDocumentHandler(
	documents *service.DocumentService,
	journalAuth *service.JournalAuthService,
	logger *slog.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		documents:   documents,
		journalAuth: journalAuth,
		logger:      logger,
	}
}

// sessionPrincipal builds the principal from claims stored by
// RequireSession. For identifier sessions, a provided email/phone must match
// the session subject; clients cannot list someone else's documents on their
// own session.
func sessionPrincipal(w http.ResponseWriter, r *http.Request, req *identifierRequest) (service.Principal, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
		return service.Principal{}, false
	}
	principal := service.PrincipalFromClaims(claims)
	if principal.Kind == service.PrincipalIdentifier && req != nil {
		identifierType, value, ok := req.exactlyOne()
		if !ok {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "provide exactly one of: email or phone")
			return service.Principal{}, false
		}
		normalized := service.NormalizeIdentifierValue(identifierType, value)
		if identifierType != principal.IdentifierType || normalized != principal.Identifier {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "identifier does not match session")
			return service.Principal{}, false
		}
	}
	return principal, true
}

type identifierListRequest struct {
	identifierRequest
	JournalID string `json:"journalId"`
}

// IdentifierList serves POST /identifier/list.
func (h *DocumentHandler) IdentifierList(w http.ResponseWriter, r *http.Request) {
	var req identifierListRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	principal, ok := sessionPrincipal(w, r, &req.identifierRequest)
	if !ok {
		return
	}
	listing, err := h.documents.List(r.Context(), principal, strings.TrimSpace(req.JournalID))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "identifier list failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "listing failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":       true,
		"items":    listing.Items,
		"journals": listing.Journals,
	})
}

type docURLRequest struct {
	DocID string `json:"docId"`
}

// IdentifierDocURL serves POST /identifier/doc-url.
func (h *DocumentHandler) IdentifierDocURL(w http.ResponseWriter, r *http.Request) {
	var req docURLRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.DocID) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing docId")
		return
	}
	principal, ok := sessionPrincipal(w, r, nil)
	if !ok {
		return
	}
	url, err := h.documents.DownloadURL(r.Context(), principal, strings.TrimSpace(req.DocID))
	if err != nil {
		h.writeDocumentError(w, r, err, "doc url failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "url": url})
}

type approveRequest struct {
	DocIDs []string `json:"docIds"`
}

// IdentifierApprove serves POST /identifier/approve.
func (h *DocumentHandler) IdentifierApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeJSON(r, &req); err != nil || len(req.DocIDs) == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing docIds")
		return
	}
	principal, ok := sessionPrincipal(w, r, nil)
	if !ok {
		return
	}
	result, err := h.documents.Approve(r.Context(), principal, req.DocIDs)
	if err != nil {
		if errors.Is(err, service.ErrApprovalNotAllowed) {
			response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "approval not allowed in impersonation mode")
			return
		}
		h.logger.ErrorContext(r.Context(), "approve failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "approval failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":       true,
		"approved": result.Approved,
		"skipped":  result.Skipped,
	})
}

// IdentifierSearch serves POST /identifier/search. No session required; the
// response only carries a match count.
func (h *DocumentHandler) IdentifierSearch(w http.ResponseWriter, r *http.Request) {
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
	result, err := h.documents.Search(r.Context(), identifierType, value)
	if err != nil {
		if errors.Is(err, service.ErrInvalidIdentifier) {
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid identifier format")
			return
		}
		h.logger.ErrorContext(r.Context(), "identifier search failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "search failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":             true,
		"identifierType": result.IdentifierType,
		"identifier":     result.Identifier,
		"matchCount":     result.MatchCount,
	})
}

type journalCredentials struct {
	ExternalID  string `json:"externalId"`
	AccessToken string `json:"accessToken"`
}

// journalPrincipal authenticates the legacy externalId+accessToken pair.
func (h *DocumentHandler) journalPrincipal(w http.ResponseWriter, r *http.Request, creds journalCredentials) (service.Principal, bool) {
	journalID, err := h.journalAuth.Authenticate(r.Context(),
		strings.TrimSpace(creds.ExternalID), strings.TrimSpace(creds.AccessToken))
	if err != nil {
		if errors.Is(err, service.ErrJournalUnauthorized) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return service.Principal{}, false
		}
		h.logger.ErrorContext(r.Context(), "journal auth failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "authentication failed")
		return service.Principal{}, false
	}
	return service.JournalPrincipal(journalID), true
}

type journalDocRequest struct {
	journalCredentials
	DocID  string               `json:"docId"`
	DocIDs []string             `json:"docIds"`
	Files  []service.UploadFile `json:"files"`
}

// DocList serves the legacy POST /doc-list.
func (h *DocumentHandler) DocList(w http.ResponseWriter, r *http.Request) {
	var req journalDocRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	principal, ok := h.journalPrincipal(w, r, req.journalCredentials)
	if !ok {
		return
	}
	listing, err := h.documents.List(r.Context(), principal, "")
	if err != nil {
		h.logger.ErrorContext(r.Context(), "doc list failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "listing failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "items": listing.Items})
}

// DocURL serves the legacy POST /doc-url.
func (h *DocumentHandler) DocURL(w http.ResponseWriter, r *http.Request) {
	var req journalDocRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.DocID) == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing docId")
		return
	}
	principal, ok := h.journalPrincipal(w, r, req.journalCredentials)
	if !ok {
		return
	}
	url, err := h.documents.DownloadURL(r.Context(), principal, strings.TrimSpace(req.DocID))
	if err != nil {
		h.writeDocumentError(w, r, err, "doc url failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "url": url})
}

// Approve serves the legacy POST /approve.
func (h *DocumentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req journalDocRequest
	if err := decodeJSON(r, &req); err != nil || len(req.DocIDs) == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing externalId, accessToken or docIds")
		return
	}
	principal, ok := h.journalPrincipal(w, r, req.journalCredentials)
	if !ok {
		return
	}
	result, err := h.documents.Approve(r.Context(), principal, req.DocIDs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "approve failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "approval failed")
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{
		"ok":       true,
		"approved": result.Approved,
		"skipped":  result.Skipped,
	})
}

// UploadStart serves the legacy POST /upload-start.
func (h *DocumentHandler) UploadStart(w http.ResponseWriter, r *http.Request) {
	var req journalDocRequest
	if err := decodeJSON(r, &req); err != nil || len(req.Files) == 0 {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "no files specified")
		return
	}
	principal, ok := h.journalPrincipal(w, r, req.journalCredentials)
	if !ok {
		return
	}
	items, err := h.documents.UploadStart(r.Context(), principal.JournalID, req.Files)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFilenameMismatch):
			response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "filename must include the journal number")
		case errors.Is(err, repository.ErrJournalNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "journal not found")
		default:
			h.logger.ErrorContext(r.Context(), "upload start failed", "error", err)
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "upload start failed")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "items": items})
}

func (h *DocumentHandler) writeDocumentError(w http.ResponseWriter, r *http.Request, err error, logMsg string) {
	switch {
	case errors.Is(err, repository.ErrDocumentNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "not found")
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, service.ErrMissingStorageKey):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "document has no stored file")
	default:
		h.logger.ErrorContext(r.Context(), logMsg, "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "server error")
	}
}
