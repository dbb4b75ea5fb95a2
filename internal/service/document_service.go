package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/EasyLegalGroup/docshare-v1.3/internal/domain"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/identity"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/observability"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/repository"
	"github.com/EasyLegalGroup/docshare-v1.3/internal/security"
)

var (
	ErrForbidden          = errors.New("document access forbidden")
	ErrApprovalNotAllowed = errors.New("approval not allowed for this session")
	ErrMissingStorageKey  = errors.New("document has no storage key")
	ErrFilenameMismatch   = errors.New("filename must include the journal number")
	ErrInvalidIdentifier  = errors.New("invalid identifier")
)

// PrincipalKind discriminates the three ways a caller can be authenticated.
type PrincipalKind string

const (
	// PrincipalIdentifier is an OTP-verified email or phone session.
	PrincipalIdentifier PrincipalKind = "identifier"
	// PrincipalImpersonation is a journal-scoped staff session from a
	// redeemed link.
	PrincipalImpersonation PrincipalKind = "impersonation"
	// PrincipalJournal is the legacy externalId+accessToken flow.
	PrincipalJournal PrincipalKind = "journal"
)

// Principal is the resolved caller identity every authorization decision
// keys off. One struct covers all flows; capability flags say what the
// session may do.
type Principal struct {
	Kind           PrincipalKind
	JournalID      string
	IdentifierType string
	Identifier     string
	AllowApprove   bool
}

// PrincipalFromClaims maps verified session claims onto a principal.
// Identifier sessions may approve; impersonation sessions only when the link
// granted it.
func PrincipalFromClaims(claims *security.SessionClaims) Principal {
	if claims.Impersonation() {
		return Principal{
			Kind:         PrincipalImpersonation,
			JournalID:    claims.JournalID,
			AllowApprove: claims.AllowApprove,
		}
	}
	identifierType := domain.IdentifierEmail
	if claims.Type == security.SubjectTypePhone {
		identifierType = domain.IdentifierPhone
	}
	return Principal{
		Kind:           PrincipalIdentifier,
		IdentifierType: identifierType,
		Identifier:     claims.Subject,
		AllowApprove:   true,
	}
}

// JournalPrincipal is the legacy flow's principal, scoped to one journal with
// full capabilities.
func JournalPrincipal(journalID string) Principal {
	return Principal{Kind: PrincipalJournal, JournalID: journalID, AllowApprove: true}
}

// DocumentService enforces the ownership predicate and drives document
// listing, viewing, approval and upload.
type DocumentService struct {
	documents repository.DocumentRepository
	journals  repository.JournalRepository
	storage   StorageService
	keys      *ObjectKeyBuilder
	logger    *slog.Logger
	now       func() time.Time
}

func NewDocumentService(
	documents repository.DocumentRepository,
	journals repository.JournalRepository,
	storage StorageService,
	keys *ObjectKeyBuilder,
	logger *slog.Logger,
) *DocumentService {
	return &DocumentService{
		documents: documents,
		journals:  journals,
		storage:   storage,
		keys:      keys,
		logger:    logger,
		now:       time.Now,
	}
}

type SearchResult struct {
	IdentifierType string `json:"identifierType"`
	Identifier     string `json:"identifier"`
	MatchCount     int64  `json:"matchCount"`
}

// Search reports how many shared documents an identifier can reach. It leaks
// only a count, never which journals matched.
func (s *DocumentService) Search(ctx context.Context, identifierType, raw string) (*SearchResult, error) {
	value, _ := normalizeIdentifier(identifierType, raw)
	if !plausibleIdentifier(identifierType, value) {
		return nil, ErrInvalidIdentifier
	}
	filter := s.ownerFilter(identifierType, value, "")
	filter.AllVersions = true
	count, err := s.documents.CountByOwner(ctx, filter)
	if err != nil {
		return nil, err
	}
	resultType := "email"
	if identifierType == domain.IdentifierPhone {
		resultType = "phone"
	}
	return &SearchResult{IdentifierType: resultType, Identifier: value, MatchCount: count}, nil
}

// DocumentItem is the wire shape of one listed document.
type DocumentItem struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Version           int        `json:"version"`
	Status            string     `json:"status"`
	IsNewestVersion   bool       `json:"isNewestVersion"`
	DocumentType      string     `json:"documentType,omitempty"`
	MarketUnit        string     `json:"marketUnit,omitempty"`
	SentDate          *time.Time `json:"sentDate,omitempty"`
	FirstViewed       *time.Time `json:"firstViewed,omitempty"`
	LastViewed        *time.Time `json:"lastViewed,omitempty"`
	JournalID         string     `json:"journalId"`
	JournalName       string     `json:"journalName,omitempty"`
	SortOrder         int        `json:"sortOrder"`
	IsApprovalBlocked bool       `json:"isApprovalBlocked"`
}

// DocumentTypeCounts tracks approval progress within one document type.
type DocumentTypeCounts struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
}

// JournalSummary aggregates one journal's documents for the listing header.
type JournalSummary struct {
	ID               string                         `json:"id"`
	Name             string                         `json:"name"`
	DocumentCount    int                            `json:"documentCount"`
	ApprovedCount    int                            `json:"approvedCount"`
	FirstDraftSent   *time.Time                     `json:"firstDraftSent,omitempty"`
	DocumentTypes    []string                       `json:"documentTypes"`
	DocumentStatuses map[string]*DocumentTypeCounts `json:"documentStatuses"`
}

type DocumentListing struct {
	Items    []DocumentItem   `json:"items"`
	Journals []JournalSummary `json:"journals"`
}

// List returns the caller's reachable documents grouped by journal.
// journalID optionally narrows an identifier session to one journal;
// impersonation sessions are always pinned to their own journal.
func (s *DocumentService) List(ctx context.Context, principal Principal, journalID string) (*DocumentListing, error) {
	var (
		docs []domain.SharedDocument
		err  error
	)
	switch principal.Kind {
	case PrincipalIdentifier:
		docs, err = s.documents.ListByOwner(ctx, s.ownerFilter(principal.IdentifierType, principal.Identifier, journalID))
	default:
		docs, err = s.documents.ListByJournal(ctx, principal.JournalID)
	}
	if err != nil {
		observability.RecordDocumentEvent(ctx, "list", "error")
		return nil, err
	}
	observability.RecordDocumentEvent(ctx, "list", "success")
	return buildListing(docs), nil
}

func buildListing(docs []domain.SharedDocument) *DocumentListing {
	listing := &DocumentListing{
		Items:    make([]DocumentItem, 0, len(docs)),
		Journals: []JournalSummary{},
	}
	byJournal := map[string]*JournalSummary{}
	order := []string{}

	for i := range docs {
		doc := &docs[i]
		item := DocumentItem{
			ID:                doc.ID,
			Name:              doc.Name,
			Version:           doc.Version,
			Status:            string(doc.Status),
			IsNewestVersion:   doc.IsNewestVersion,
			DocumentType:      doc.DocumentType,
			MarketUnit:        doc.MarketUnit,
			SentDate:          doc.SentAt,
			FirstViewed:       doc.FirstViewedAt,
			LastViewed:        doc.LastViewedAt,
			JournalID:         doc.JournalID,
			SortOrder:         doc.SortOrder,
			IsApprovalBlocked: doc.IsApprovalBlocked,
		}
		if doc.Journal != nil {
			item.JournalName = doc.Journal.Name
		}
		listing.Items = append(listing.Items, item)

		summary, ok := byJournal[doc.JournalID]
		if !ok {
			summary = &JournalSummary{
				ID:               doc.JournalID,
				Name:             item.JournalName,
				DocumentTypes:    []string{},
				DocumentStatuses: map[string]*DocumentTypeCounts{},
			}
			if doc.Journal != nil {
				summary.FirstDraftSent = doc.Journal.FirstDraftSentAt
			}
			byJournal[doc.JournalID] = summary
			order = append(order, doc.JournalID)
		}
		summary.DocumentCount++
		approved := doc.Status == domain.StatusApproved
		if approved {
			summary.ApprovedCount++
		}
		if doc.DocumentType != "" {
			counts, ok := summary.DocumentStatuses[doc.DocumentType]
			if !ok {
				counts = &DocumentTypeCounts{}
				summary.DocumentStatuses[doc.DocumentType] = counts
				summary.DocumentTypes = append(summary.DocumentTypes, doc.DocumentType)
			}
			counts.Total++
			if approved {
				counts.Approved++
			}
		}
	}
	for _, id := range order {
		listing.Journals = append(listing.Journals, *byJournal[id])
	}
	return listing
}

// DownloadURL authorizes the document for the principal and returns a
// presigned URL. Viewing stamps the document unless the session is an
// impersonation; staff opening a client's documents must not look like the
// client read them.
func (s *DocumentService) DownloadURL(ctx context.Context, principal Principal, docID string) (string, error) {
	doc, err := s.authorizeDocument(ctx, principal, docID)
	if err != nil {
		return "", err
	}
	if doc.StorageKey == "" {
		return "", ErrMissingStorageKey
	}

	if principal.Kind != PrincipalImpersonation {
		if err := s.documents.MarkViewed(ctx, doc.ID, s.now().UTC(), doc.Status.TransitionsToViewed()); err != nil {
			// Audit-only; the client still gets their document.
			s.logger.WarnContext(ctx, "view stamp failed", "document_id", doc.ID, "error", err)
		}
	}

	url, err := s.storage.PresignDownload(ctx, doc.StorageKey, doc.Name)
	if err != nil {
		observability.RecordDocumentEvent(ctx, "download_url", "error")
		return "", err
	}
	observability.RecordDocumentEvent(ctx, "download_url", "success")
	return url, nil
}

type ApproveResult struct {
	Approved int `json:"approved"`
	Skipped  int `json:"skipped"`
}

// Approve processes each requested document independently. Unauthorized,
// missing, blocked and already-approved documents count as skipped; one bad
// ID never fails the batch.
func (s *DocumentService) Approve(ctx context.Context, principal Principal, docIDs []string) (*ApproveResult, error) {
	if principal.Kind == PrincipalImpersonation && !principal.AllowApprove {
		return nil, ErrApprovalNotAllowed
	}
	result := &ApproveResult{}
	for _, docID := range docIDs {
		if _, err := s.authorizeDocument(ctx, principal, docID); err != nil {
			if errors.Is(err, ErrForbidden) || errors.Is(err, repository.ErrDocumentNotFound) {
				result.Skipped++
				continue
			}
			return nil, err
		}
		approved, err := s.documents.Approve(ctx, docID)
		if err != nil {
			return nil, err
		}
		if approved {
			result.Approved++
		} else {
			result.Skipped++
		}
	}
	observability.RecordDocumentEvent(ctx, "approve", "success")
	return result, nil
}

// UploadFile is one client-declared file in an upload batch.
type UploadFile struct {
	Name        string `json:"name"`
	ContentType string `json:"type"`
}

// UploadItem pairs a pending object key with its presigned PUT URL.
type UploadItem struct {
	FileName    string `json:"fileName"`
	Key         string `json:"key"`
	PutURL      string `json:"putUrl"`
	ContentType string `json:"contentType"`
}

// UploadStart issues presigned PUT URLs for a batch of client uploads. Every
// filename must carry the journal number so uploads stay attributable when
// browsed directly in the bucket.
func (s *DocumentService) UploadStart(ctx context.Context, journalID string, files []UploadFile) ([]UploadItem, error) {
	journal, err := s.journals.FindByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	items := make([]UploadItem, 0, len(files))
	for _, f := range files {
		safeName := SanitizeFilename(f.Name)
		if !containsFold(safeName, journal.Name) {
			return nil, ErrFilenameMismatch
		}
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/pdf"
		}
		key := s.keys.Build(journal.MarketUnit, journal.Name, safeName)
		putURL, err := s.storage.PresignUpload(ctx, key)
		if err != nil {
			observability.RecordDocumentEvent(ctx, "upload_start", "error")
			return nil, err
		}
		items = append(items, UploadItem{
			FileName:    safeName,
			Key:         key,
			PutURL:      putURL,
			ContentType: contentType,
		})
	}
	observability.RecordDocumentEvent(ctx, "upload_start", "success")
	return items, nil
}

// authorizeDocument loads the document and applies the ownership predicate
// for the principal. Journal scope is enforced first so a scoped session can
// never see across journals regardless of identifier matches.
func (s *DocumentService) authorizeDocument(ctx context.Context, principal Principal, docID string) (*domain.SharedDocument, error) {
	doc, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if principal.JournalID != "" && doc.JournalID != principal.JournalID {
		observability.RecordDocumentEvent(ctx, "authorize", "forbidden")
		return nil, ErrForbidden
	}
	if principal.Kind == PrincipalIdentifier {
		if doc.Journal == nil || !ownerMatches(principal, doc.Journal) {
			observability.RecordDocumentEvent(ctx, "authorize", "forbidden")
			return nil, ErrForbidden
		}
	}
	return doc, nil
}

func ownerMatches(principal Principal, journal *domain.Journal) bool {
	switch principal.IdentifierType {
	case domain.IdentifierPhone:
		phone := principal.Identifier
		if phone == identity.NormalizePhone(journal.PrimaryPhone) {
			return true
		}
		if !journal.SpouseRecipient || journal.SpousePhone == "" {
			return false
		}
		for _, variant := range identity.MatchVariants(identity.NormalizePhone(journal.SpousePhone)) {
			if phone == variant {
				return true
			}
		}
		return false
	default:
		email := principal.Identifier
		if email != "" && email == identity.NormalizeEmail(journal.PrimaryEmail) {
			return true
		}
		return journal.SpouseRecipient && email != "" && email == identity.NormalizeEmail(journal.SpouseEmail)
	}
}

func (s *DocumentService) ownerFilter(identifierType, value, journalID string) repository.DocumentFilter {
	filter := repository.DocumentFilter{JournalID: journalID}
	if identifierType == domain.IdentifierPhone {
		filter.Phone = value
		filter.PhoneVariants = identity.MatchVariants(value)
	} else {
		filter.Email = value
	}
	return filter
}

// plausibleIdentifier is a coarse shape check: emails need an "@" and a dot,
// phones need at least one digit. Anything else is rejected before it reaches
// the database.
func plausibleIdentifier(identifierType, value string) bool {
	if value == "" {
		return false
	}
	if identifierType == domain.IdentifierPhone {
		return strings.ContainsAny(value, "0123456789")
	}
	return strings.Contains(value, "@") && strings.Contains(value, ".")
}

func containsFold(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
