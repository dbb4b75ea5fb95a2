package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

var (
	ErrTokenMalformed = errors.New("session token malformed")
	ErrTokenSignature = errors.New("session token signature mismatch")
	ErrTokenExpired   = errors.New("session token expired")
)

const (
	SubjectTypeEmail         = "email"
	SubjectTypePhone         = "phone"
	SubjectTypeImpersonation = "impersonation"

	RoleImpersonation = "impersonation"
)

// SessionClaims is the self-contained claim set carried by a bearer session.
// The nonce keeps two tokens for the same subject from ever being
// byte-identical, which matters if tokens end up logged or cached.
type SessionClaims struct {
	IssuedAt     int64  `json:"iat"`
	ExpiresAt    int64  `json:"exp"`
	Type         string `json:"typ"`
	Subject      string `json:"sub"`
	Nonce        string `json:"nonce"`
	Role         string `json:"role,omitempty"`
	JournalID    string `json:"jid,omitempty"`
	AllowApprove bool   `json:"allowApprove,omitempty"`
	AuditID      string `json:"msid,omitempty"`
}

// Impersonation reports whether this session came out of a one-shot link
// redemption and is therefore journal-scoped.
func (c *SessionClaims) Impersonation() bool {
	return c.Role == RoleImpersonation || c.JournalID != ""
}

// TokenCodec builds and verifies HMAC-signed bearer tokens. The wire format
// is base64url(claims JSON, no padding) + "." + base64url(HMAC-SHA256).
// Verification is stateless: there is no server-side session store.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{secret: []byte(secret), now: time.Now}
}

// ExtraClaims are the optional claim extensions an issuer may attach.
type ExtraClaims struct {
	Role         string
	JournalID    string
	AllowApprove bool
	AuditID      string
}

func (c *TokenCodec) Issue(subjectType, subject string, ttl time.Duration, extra *ExtraClaims) (string, error) {
	nonce, err := NewHexToken(8)
	if err != nil {
		return "", err
	}
	now := c.now().UTC()
	claims := SessionClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Type:      subjectType,
		Subject:   subject,
		Nonce:     nonce,
	}
	if extra != nil {
		claims.Role = extra.Role
		claims.JournalID = extra.JournalID
		claims.AllowApprove = extra.AllowApprove
		claims.AuditID = extra.AuditID
	}
	body, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + c.sign(encoded), nil
}

func (c *TokenCodec) Verify(token string) (*SessionClaims, error) {
	body, sig, found := strings.Cut(token, ".")
	if !found || body == "" {
		return nil, ErrTokenMalformed
	}
	expected := c.sign(body)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return nil, ErrTokenSignature
	}
	raw, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return nil, ErrTokenMalformed
	}
	var claims SessionClaims
	if err := json.Unmarshal(raw, &claims); err != nil {
		return nil, ErrTokenMalformed
	}
	if c.now().UTC().Unix() > claims.ExpiresAt {
		return nil, ErrTokenExpired
	}
	return &claims, nil
}

func (c *TokenCodec) sign(encodedBody string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encodedBody))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
