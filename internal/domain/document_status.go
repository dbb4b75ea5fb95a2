package domain

import "strings"

// DocumentStatus is the closed set of shared-document states. The record store
// historically carried free-text values with inconsistent casing, so parsing is
// case- and whitespace-insensitive.
type DocumentStatus string

const (
	StatusDraft    DocumentStatus = "Draft"
	StatusSent     DocumentStatus = "Sent"
	StatusViewed   DocumentStatus = "Viewed"
	StatusApproved DocumentStatus = "Approved"
)

func ParseDocumentStatus(raw string) (DocumentStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "draft":
		return StatusDraft, true
	case "sent":
		return StatusSent, true
	case "viewed":
		return StatusViewed, true
	case "approved":
		return StatusApproved, true
	}
	return "", false
}

// TransitionsToViewed reports whether a document view moves the status to
// Viewed. Only freshly sent documents transition; later states are sticky.
func (s DocumentStatus) TransitionsToViewed() bool {
	parsed, ok := ParseDocumentStatus(string(s))
	return ok && parsed == StatusSent
}

// CanApprove reports whether an approval may act on this status. The blocked
// flag is an independent axis checked by the caller.
func (s DocumentStatus) CanApprove() bool {
	parsed, ok := ParseDocumentStatus(string(s))
	return ok && (parsed == StatusSent || parsed == StatusViewed)
}
