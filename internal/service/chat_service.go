package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/timeutil"
)

var (
	ErrChatForbidden   = errors.New("chat access forbidden")
	ErrChatMissingBody = errors.New("missing message body")
	ErrChatNoJournal   = errors.New("no journal resolved for chat")
)

// ChatMessageView is the wire shape of one chat message.
type ChatMessageView struct {
	ID      string    `json:"id"`
	Body    string    `json:"body"`
	Inbound bool      `json:"inbound"`
	At      time.Time `json:"at"`
}

// ChatService serves the journal-scoped message thread. Messages hang off the
// journal, never off individual documents; document-scoped requests resolve
// to the owning journal first.
type ChatService struct {
	messages  repository.ChatRepository
	documents repository.DocumentRepository
	logger    *slog.Logger
	now       func() time.Time
}

func NewChatService(
	messages repository.ChatRepository,
	documents repository.DocumentRepository,
	logger *slog.Logger,
) *ChatService {
	return &ChatService{
		messages:  messages,
		documents: documents,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns the journal's thread in chronological order. since is an
// optional raw timestamp; an unparseable value is ignored rather than failing
// the poll.
func (s *ChatService) List(ctx context.Context, principal Principal, journalID, since string) ([]ChatMessageView, error) {
	if err := enforceJournalScope(principal, journalID); err != nil {
		return nil, err
	}
	if journalID == "" {
		return nil, ErrChatNoJournal
	}
	var sinceAt *time.Time
	if since != "" {
		if t, ok := timeutil.ParseTimestamp(since); ok {
			sinceAt = &t
		}
	}
	msgs, err := s.messages.ListByJournal(ctx, journalID, sinceAt)
	if err != nil {
		return nil, err
	}
	views := make([]ChatMessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, ChatMessageView{
			ID:      m.ID,
			Body:    m.Body,
			Inbound: m.Inbound,
			At:      m.CreatedAt,
		})
	}
	return views, nil
}

// Send records an inbound client message on the journal thread.
func (s *ChatService) Send(ctx context.Context, principal Principal, journalID, body string) (string, error) {
	if body == "" {
		return "", ErrChatMissingBody
	}
	if err := enforceJournalScope(principal, journalID); err != nil {
		return "", err
	}
	if journalID == "" {
		return "", ErrChatNoJournal
	}
	msg := &domain.ChatMessage{
		JournalID: journalID,
		Body:      body,
		Inbound:   true,
		CreatedAt: s.now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// ResolveJournalForDocument maps a document ID to its owning journal for the
// legacy document-scoped chat routes.
func (s *ChatService) ResolveJournalForDocument(ctx context.Context, docID string) (string, error) {
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		return "", err
	}
	return doc.JournalID, nil
}

// enforceJournalScope rejects a journal-pinned session reaching for another
// journal's thread.
func enforceJournalScope(principal Principal, journalID string) error {
	if principal.JournalID != "" && journalID != principal.JournalID {
		return ErrChatForbidden
	}
	return nil
}
