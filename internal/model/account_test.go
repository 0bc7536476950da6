package model

import (
	"testing"
	"time"
)

func TestAccount_IsVerified(t *testing.T) {
	a := &Account{}
	if a.IsVerified() {
		t.Error("account without EmailVerifiedAt should not be verified")
	}

	now := time.Now()
	a.EmailVerifiedAt = &now
	if !a.IsVerified() {
		t.Error("account with EmailVerifiedAt should be verified")
	}
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"user@example.com", "user@example.com"},
		{"  User@Example.COM ", "user@example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeEmail(tt.in); got != tt.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestActionKind_Valid(t *testing.T) {
	if !ActionRegistrationVerification.Valid() {
		t.Error("registration_verification should be valid")
	}
	if ActionKind("password_reset").Valid() {
		t.Error("unknown action kind should be invalid")
	}
	if ActionKind("").Valid() {
		t.Error("empty action kind should be invalid")
	}
}

func TestActionToken_IsExpired(t *testing.T) {
	expiresAt := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	token := &ActionToken{ExpiresAt: expiresAt}

	if token.IsExpired(expiresAt.Add(-time.Second)) {
		t.Error("token should not be expired before ExpiresAt")
	}
	if token.IsExpired(expiresAt) {
		t.Error("token should not be expired exactly at ExpiresAt")
	}
	if !token.IsExpired(expiresAt.Add(time.Second)) {
		t.Error("token should be expired after ExpiresAt")
	}
}

func TestActionToken_IsExecuted(t *testing.T) {
	token := &ActionToken{}
	if token.IsExecuted() {
		t.Error("new token should not be executed")
	}
	now := time.Now()
	token.ExecutedAt = &now
	if !token.IsExecuted() {
		t.Error("token with ExecutedAt should be executed")
	}
}

func TestAuditAction_Valid(t *testing.T) {
	for _, a := range AuditActions {
		if !a.Valid() {
			t.Errorf("%s should be valid", a)
		}
	}
	if AuditAction("EXPORT").Valid() {
		t.Error("unknown audit action should be invalid")
	}
}
