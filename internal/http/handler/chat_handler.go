package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/http/response"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/service"
)

type ChatHandler struct {
	chat        *service.ChatService
	journalAuth *service.JournalAuthService
	logger      *slog.Logger
}

func NewChatHandler(
	chat *service.ChatService,
	journalAuth *service.JournalAuthService,
	logger *slog.Logger,
) *ChatHandler {
	return &ChatHandler{chat: chat, journalAuth: journalAuth, logger: logger}
}

type chatListRequest struct {
	JournalID string `json:"journalId"`
	Since     string `json:"since"`
}

// IdentifierChatList serves POST /identifier/chat/list.
func (h *ChatHandler) IdentifierChatList(w http.ResponseWriter, r *http.Request) {
	var req chatListRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	principal, ok := sessionPrincipal(w, r, nil)
	if !ok {
		return
	}
	journalID := resolveChatJournal(principal, req.JournalID)
	if journalID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing journalId")
		return
	}
	h.writeThread(w, r, principal, journalID, req.Since)
}

type chatSendRequest struct {
	JournalID string `json:"journalId"`
	Body      string `json:"body"`
}

// IdentifierChatSend serves POST /identifier/chat/send.
func (h *ChatHandler) IdentifierChatSend(w http.ResponseWriter, r *http.Request) {
	var req chatSendRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	principal, ok := sessionPrincipal(w, r, nil)
	if !ok {
		return
	}
	journalID := resolveChatJournal(principal, req.JournalID)
	if journalID == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing journalId")
		return
	}
	id, err := h.chat.Send(r.Context(), principal, journalID, strings.TrimSpace(req.Body))
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "id": id})
}

type legacyChatSendRequest struct {
	journalCredentials
	DocID string `json:"docId"`
	Body  string `json:"body"`
}

// ChatSend serves the legacy POST /chat/send. The thread is journal-scoped;
// a docId is accepted and resolved to its owning journal.
func (h *ChatHandler) ChatSend(w http.ResponseWriter, r *http.Request) {
	var req legacyChatSendRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	principal, ok := h.legacyPrincipal(w, r, req.journalCredentials)
	if !ok {
		return
	}
	journalID, ok := h.legacyChatJournal(w, r, principal, req.DocID)
	if !ok {
		return
	}
	id, err := h.chat.Send(r.Context(), principal, journalID, strings.TrimSpace(req.Body))
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "id": id})
}

// ChatList serves the legacy GET /chat/list. Credentials and filters arrive
// as query parameters: e (externalId), t (accessToken), docId and since. A
// long-standing client sent the since filter as "ince"; both spellings are
// honored.
func (h *ChatHandler) ChatList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	creds := journalCredentials{
		ExternalID:  q.Get("e"),
		AccessToken: q.Get("t"),
	}
	principal, ok := h.legacyPrincipal(w, r, creds)
	if !ok {
		return
	}
	journalID, ok := h.legacyChatJournal(w, r, principal, q.Get("docId"))
	if !ok {
		return
	}
	since := q.Get("since")
	if since == "" {
		since = q.Get("ince")
	}
	h.writeThread(w, r, principal, journalID, since)
}

func (h *ChatHandler) writeThread(w http.ResponseWriter, r *http.Request, principal service.Principal, journalID, since string) {
	messages, err := h.chat.List(r.Context(), principal, journalID, strings.TrimSpace(since))
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]any{"ok": true, "messages": messages})
}

func (h *ChatHandler) legacyPrincipal(w http.ResponseWriter, r *http.Request, creds journalCredentials) (service.Principal, bool) {
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

// legacyChatJournal keeps docId-addressed requests inside the authenticated
// journal: a document belonging to another journal is treated as not found.
func (h *ChatHandler) legacyChatJournal(w http.ResponseWriter, r *http.Request, principal service.Principal, docID string) (string, bool) {
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return principal.JournalID, true
	}
	journalID, err := h.chat.ResolveJournalForDocument(r.Context(), docID)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "document not found")
			return "", false
		}
		h.logger.ErrorContext(r.Context(), "chat journal resolution failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "server error")
		return "", false
	}
	if journalID != principal.JournalID {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "document not found")
		return "", false
	}
	return journalID, true
}

// resolveChatJournal fills the journal for sessions already pinned to one.
func resolveChatJournal(principal service.Principal, requested string) string {
	if principal.JournalID != "" {
		return principal.JournalID
	}
	return strings.TrimSpace(requested)
}

func (h *ChatHandler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrChatForbidden):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, service.ErrChatMissingBody):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing message body")
	case errors.Is(err, service.ErrChatNoJournal):
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "missing journalId")
	default:
		h.logger.ErrorContext(r.Context(), "chat request failed", "error", err)
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "server error")
	}
}
