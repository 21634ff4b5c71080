package auth

import (
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	signed, err := IssueToken(testSecret, "user-123", RoleDoctor)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	claims, err := ParseToken(testSecret, signed)
	if err != nil {
		t.Fatalf("ParseToken() error: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("expected subject user-123, got %s", claims.Subject)
	}
	if claims.Role != RoleDoctor {
		t.Errorf("expected role doctor, got %s", claims.Role)
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining < 29*24*time.Hour || remaining > 30*24*time.Hour {
		t.Errorf("expected ~30 day expiry, got %v", remaining)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	signed, err := IssueToken(testSecret, "user-123", RolePatient)
	if err != nil {
		t.Fatalf("IssueToken() error: %v", err)
	}

	if _, err := ParseToken([]byte("other-secret"), signed); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := ParseToken(testSecret, "not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}
