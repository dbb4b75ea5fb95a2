package security

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "abcdefghijklmnopqrstuvwxyz123456"

func testCodecAt(at time.Time) *TokenCodec {
	c := NewTokenCodec(testSecret)
	c.now = func() time.Time { return at }
	return c
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodecAt(issued)

	token, err := codec.Issue(SubjectTypeEmail, "a@x.com", 15*time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Type != SubjectTypeEmail || claims.Subject != "a@x.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.IssuedAt != issued.Unix() || claims.ExpiresAt != issued.Add(15*time.Minute).Unix() {
		t.Fatalf("unexpected timestamps: %+v", claims)
	}
	if claims.Nonce == "" {
		t.Fatal("expected non-empty nonce")
	}
	if claims.Impersonation() {
		t.Fatal("identifier session must not report impersonation")
	}
}

func TestVerifyWithinAndBeyondTTL(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := testCodecAt(issued)
	token, err := codec.Issue(SubjectTypePhone, "+4512345678", time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	codec.now = func() time.Time { return issued.Add(time.Minute) }
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("expected token valid at exact expiry, got %v", err)
	}

	codec.now = func() time.Time { return issued.Add(time.Minute + time.Second) }
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerifyRejectsTamperedClaims(t *testing.T) {
	codec := testCodecAt(time.Now().UTC())
	token, err := codec.Issue(SubjectTypeEmail, "a@x.com", time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	body, sig, _ := strings.Cut(token, ".")
	for i := 0; i < len(body); i++ {
		flipped := []byte(body)
		if flipped[i] == 'A' {
			flipped[i] = 'B'
		} else {
			flipped[i] = 'A'
		}
		if string(flipped) == body {
			continue
		}
		if _, err := codec.Verify(string(flipped) + "." + sig); err == nil {
			t.Fatalf("tampered claims at index %d passed verification", i)
		}
	}
}

func TestVerifyRejectsMalformedTokens(t *testing.T) {
	codec := testCodecAt(time.Now().UTC())
	for _, raw := range []string{"", "nodot", ".sigonly", "!!!.sig"} {
		if _, err := codec.Verify(raw); err == nil {
			t.Fatalf("expected malformed token %q to fail", raw)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	codec := testCodecAt(time.Now().UTC())
	token, err := codec.Issue(SubjectTypeEmail, "a@x.com", time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	other := NewTokenCodec("zyxwvutsrqponmlkjihgfedcba654321")
	if _, err := other.Verify(token); !errors.Is(err, ErrTokenSignature) {
		t.Fatalf("expected ErrTokenSignature, got %v", err)
	}
}

func TestIssueTokensAreUnique(t *testing.T) {
	codec := testCodecAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	a, err := codec.Issue(SubjectTypeEmail, "a@x.com", time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := codec.Issue(SubjectTypeEmail, "a@x.com", time.Minute, nil)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a == b {
		t.Fatal("expected nonce to differentiate identical subjects")
	}
}

func TestImpersonationClaims(t *testing.T) {
	codec := testCodecAt(time.Now().UTC())
	token, err := codec.Issue(SubjectTypeImpersonation, "N/A", time.Minute, &ExtraClaims{
		Role:         RoleImpersonation,
		JournalID:    "journal-1",
		AllowApprove: true,
		AuditID:      "link-9",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !claims.Impersonation() {
		t.Fatal("expected impersonation session")
	}
	if claims.JournalID != "journal-1" || !claims.AllowApprove || claims.AuditID != "link-9" {
		t.Fatalf("unexpected extra claims: %+v", claims)
	}
}

func FuzzVerifyRobustness(f *testing.F) {
	codec := NewTokenCodec(testSecret)
	valid, _ := codec.Issue(SubjectTypeEmail, "a@x.com", time.Minute, nil)

	f.Add(valid)
	f.Add("")
	f.Add("not-a-token")
	f.Add(strings.Repeat("a", 8192))
	f.Add("eyJhIjoxfQ.bad")

	f.Fuzz(func(t *testing.T, raw string) {
		if len(raw) > 16384 {
			raw = raw[:16384]
		}
		claims, err := codec.Verify(raw)
		if err == nil {
			if claims == nil {
				t.Fatal("expected non-nil claims on successful verify")
			}
			if claims.Nonce == "" && raw != valid {
				t.Fatalf("unexpected verified token without nonce: %q", raw)
			}
		}
	})
}
