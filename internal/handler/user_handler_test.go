package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/linkgate/internal/model"
)

// --- モック定義 ---

// mockUserService はUserServiceInterfaceのモック実装。
type mockUserService struct {
	getAccountFn    func(ctx context.Context, id string) (*model.Account, error)
	updateProfileFn func(ctx context.Context, id string, username, email *string) (*model.Account, error)
	deleteAccountFn func(ctx context.Context, id string) error
}

func (m *mockUserService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	if m.getAccountFn != nil {
		return m.getAccountFn(ctx, id)
	}
	return nil, model.NewAccountNotFoundError()
}

func (m *mockUserService) UpdateProfile(ctx context.Context, id string, username, email *string) (*model.Account, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, id, username, email)
	}
	return nil, nil
}

func (m *mockUserService) DeleteAccount(ctx context.Context, id string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(ctx, id)
	}
	return nil
}

// --- GET /users/{id} ---

func TestUserHandler_Show_OmitsPasswordHash(t *testing.T) {
	acc := testAccount()
	h := NewUserHandler(&mockUserService{
		getAccountFn: func(ctx context.Context, id string) (*model.Account, error) {
			if id != acc.ID {
				t.Errorf("id = %q", id)
			}
			return acc, nil
		},
	}, newTestValidator())

	req := httptest.NewRequest(http.MethodGet, "/users/"+acc.ID, nil)
	req = withURLParam(req, "id", acc.ID)
	w := httptest.NewRecorder()

	h.Show(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	raw := w.Body.String()
	if strings.Contains(raw, "secrethash") || strings.Contains(strings.ToLower(raw), "password") {
		t.Errorf("response must not expose the password hash: %s", raw)
	}

	var resp accountResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if resp.Username != "alice" || resp.Email != "alice@example.com" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestUserHandler_Show_InvalidID(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, newTestValidator())

	req := httptest.NewRequest(http.MethodGet, "/users/abc", nil)
	req = withURLParam(req, "id", "abc")
	w := httptest.NewRecorder()

	h.Show(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestUserHandler_Show_NotFound(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, newTestValidator())

	id := "9f8e7d6c-5b4a-4392-8170-6f5e4d3c2b1a"
	req := httptest.NewRequest(http.MethodGet, "/users/"+id, nil)
	req = withURLParam(req, "id", id)
	w := httptest.NewRecorder()

	h.Show(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- PATCH /users ---

func TestUserHandler_Update_PassesOnlyGivenFields(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		updateProfileFn: func(ctx context.Context, id string, username, email *string) (*model.Account, error) {
			if id != "user-123" {
				t.Errorf("id = %q", id)
			}
			if username == nil || *username != "alice2" {
				t.Errorf("username = %v", username)
			}
			if email != nil {
				t.Errorf("email should be nil, got %q", *email)
			}
			acc := testAccount()
			acc.Username = *username
			return acc, nil
		},
	}, newTestValidator())

	req := httptest.NewRequest(http.MethodPatch, "/users", strings.NewReader(`{"username":"alice2"}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestUserHandler_Update_Conflict(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		updateProfileFn: func(ctx context.Context, id string, username, email *string) (*model.Account, error) {
			return nil, model.NewProfileConflictError("email")
		},
	}, newTestValidator())

	req := httptest.NewRequest(http.MethodPatch, "/users", strings.NewReader(`{"email":"bob@example.com"}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := decodeError(t, w).Code; got != model.ErrCodeProfileConflict {
		t.Errorf("code = %q", got)
	}
}

func TestUserHandler_Update_InvalidEmail(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		updateProfileFn: func(ctx context.Context, id string, username, email *string) (*model.Account, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}, newTestValidator())

	req := httptest.NewRequest(http.MethodPatch, "/users", strings.NewReader(`{"email":"broken"}`))
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Update(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

// --- DELETE /users/me ---

func TestUserHandler_Withdraw_Success(t *testing.T) {
	called := false
	h := NewUserHandler(&mockUserService{
		deleteAccountFn: func(ctx context.Context, id string) error {
			called = true
			if id != "user-123" {
				t.Errorf("id = %q, want %q", id, "user-123")
			}
			return nil
		},
	}, newTestValidator())

	req := httptest.NewRequest(http.MethodDelete, "/users/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !called {
		t.Error("expected DeleteAccount to be called")
	}
}

func TestUserHandler_Withdraw_NoUserID_ReturnsUnauthorized(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, newTestValidator())

	req := httptest.NewRequest(http.MethodDelete, "/users/me", nil)
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestUserHandler_Withdraw_NotFound(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		deleteAccountFn: func(ctx context.Context, id string) error {
			return model.NewAccountNotFoundError()
		},
	}, newTestValidator())

	req := httptest.NewRequest(http.MethodDelete, "/users/me", nil)
	req = withUserID(req, "user-123")
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
