package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/linkgate/internal/session"
)

// mockSessionVerifier はテスト用のSessionVerifier実装。
type mockSessionVerifier struct {
	verifyFn func(token string) (string, error)
	received string
}

func (m *mockSessionVerifier) Verify(token string) (string, error) {
	m.received = token
	if m.verifyFn != nil {
		return m.verifyFn(token)
	}
	return "", session.ErrInvalid
}

func decodeErrorBody(t *testing.T, w *httptest.ResponseRecorder) ErrorResponseBody {
	t.Helper()
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return body
}

func TestSessionMiddleware_BearerHeader_InjectsUserID(t *testing.T) {
	verifier := &mockSessionVerifier{
		verifyFn: func(token string) (string, error) { return "user-123", nil },
	}

	var capturedUserID string
	handler := NewSessionMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/url/list/logged-user", nil)
	req.Header.Set("Authorization", "Bearer tok-abc")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
	if verifier.received != "tok-abc" {
		t.Errorf("verified token = %q, want %q", verifier.received, "tok-abc")
	}
}

func TestSessionMiddleware_Cookie_InjectsUserID(t *testing.T) {
	verifier := &mockSessionVerifier{
		verifyFn: func(token string) (string, error) { return "user-cookie", nil },
	}

	var capturedUserID string
	handler := NewSessionMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserID, _ = UserIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-tok"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if capturedUserID != "user-cookie" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-cookie")
	}
	if verifier.received != "cookie-tok" {
		t.Errorf("verified token = %q, want %q", verifier.received, "cookie-tok")
	}
}

func TestTokenFromRequest(t *testing.T) {
	tests := []struct {
		name   string
		header string
		cookie string
		want   string
	}{
		{"bearer形式", "Bearer abc", "", "abc"},
		{"小文字bearer", "bearer abc", "", "abc"},
		{"生トークン", "abc", "", "abc"},
		{"ヘッダー優先", "from-header", "from-cookie", "from-header"},
		{"Cookieのみ", "", "from-cookie", "from-cookie"},
		{"なし", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			if got := TokenFromRequest(req); got != tt.want {
				t.Errorf("TokenFromRequest() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		verifyErr   error
		wantMessage string
	}{
		{"トークンなし", "", nil, "Unauthorized - No token provided"},
		{"期限切れ", "Bearer expired", session.ErrExpired, "Unauthorized - Token has expired"},
		{"不正トークン", "Bearer broken", session.ErrInvalid, "Unauthorized - Invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &mockSessionVerifier{
				verifyFn: func(token string) (string, error) { return "", tt.verifyErr },
			}
			handler := NewSessionMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/url/abc", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			body := decodeErrorBody(t, w)
			if body.Error != tt.wantMessage {
				t.Errorf("error = %q, want %q", body.Error, tt.wantMessage)
			}
			if body.Code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}
}

func TestUserIDFromContext_NoValue_ReturnsError(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for missing user ID")
	}
}

func TestUserIDFromContext_ValidValue_ReturnsUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-456")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want %q", userID, "user-456")
	}
}
