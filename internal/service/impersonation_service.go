package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
)

var (
	ErrLinkNotFound = errors.New("impersonation link not found")
	ErrLinkRevoked  = errors.New("impersonation link revoked")
	ErrLinkUsed     = errors.New("impersonation link already used")
	ErrLinkExpired  = errors.New("impersonation link expired")
)

// ImpersonationService redeems staff-issued single-use links into
// journal-scoped sessions.
type ImpersonationService struct {
	links      repository.ImpersonationLinkRepository
	codec      *security.TokenCodec
	sessionTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewImpersonationService(
	links repository.ImpersonationLinkRepository,
	codec *security.TokenCodec,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *ImpersonationService {
	return &ImpersonationService{
		links:      links,
		codec:      codec,
		sessionTTL: sessionTTL,
		logger:     logger,
		now:        time.Now,
	}
}

type RedeemResult struct {
	Session      string
	JournalID    string
	JournalName  string
	AllowApprove bool
}

// Redeem burns the link and mints a session. The link is marked used before
// any token leaves this function; if the burn fails or loses a race, no
// session is issued. Checks run revoked first, then used, then expired, so a
// revoked link never reports a softer reason.
func (s *ImpersonationService) Redeem(ctx context.Context, token, sourceIP string) (*RedeemResult, error) {
	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			observability.RecordAuthEvent(ctx, "impersonation", "not_found")
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	now := s.now().UTC()
	switch {
	case link.IsRevoked:
		observability.RecordAuthEvent(ctx, "impersonation", "revoked")
		return nil, ErrLinkRevoked
	case link.UsedAt != nil:
		observability.RecordAuthEvent(ctx, "impersonation", "used")
		return nil, ErrLinkUsed
	case now.After(link.ExpiresAt):
		observability.RecordAuthEvent(ctx, "impersonation", "expired")
		return nil, ErrLinkExpired
	}

	won, err := s.links.MarkUsed(ctx, link.ID, now, sourceIP)
	if err != nil {
		return nil, err
	}
	if !won {
		observability.RecordAuthEvent(ctx, "impersonation", "conflict")
		return nil, ErrLinkUsed
	}

	// The session never outlives the link it came from.
	ttl := s.sessionTTL
	if remaining := link.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	session, err := s.codec.Issue(security.SubjectTypeImpersonation, link.JournalID, ttl, &security.ExtraClaims{
		Role:         security.RoleImpersonation,
		JournalID:    link.JournalID,
		AllowApprove: link.AllowApprove,
		AuditID:      link.ID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "impersonation link redeemed",
		"link_id", link.ID, "journal_id", link.JournalID, "source_ip", sourceIP)
	observability.RecordAuthEvent(ctx, "impersonation", "success")

	result := &RedeemResult{
		Session:      session,
		JournalID:    link.JournalID,
		AllowApprove: link.AllowApprove,
	}
	if link.Journal != nil {
		result.JournalName = link.Journal.Name
	}
	return result, nil
}
