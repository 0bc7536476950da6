package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/linkgate/internal/model"
	"github.com/hitoshi/linkgate/internal/validation"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetAccount(ctx context.Context, id string) (*model.Account, error)
	// UpdateProfile はnilでないフィールドのみ更新する。
	UpdateProfile(ctx context.Context, id string, username, email *string) (*model.Account, error)
	// DeleteAccount はアカウントと所有する短縮URL・アクショントークンを一括削除する。
	// 監査ログは残す。
	DeleteAccount(ctx context.Context, id string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service   UserServiceInterface
	validator RequestValidator
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface, validator RequestValidator) *UserHandler {
	return &UserHandler{
		service:   service,
		validator: validator,
	}
}

// updateUserRequest はプロフィール更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

// Show はユーザー情報を返す。
// GET /users/{id}
func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if writeViolations(w, h.validator.Validate(validation.KindShowUser, validation.Input{"user_id": id})) {
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// Update はログインユーザーのプロフィールを更新する。
// PATCH /users
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	input := validation.Input{}
	if req.Username != nil {
		input["username"] = *req.Username
	}
	if req.Email != nil {
		input["email"] = *req.Email
	}
	if writeViolations(w, h.validator.Validate(validation.KindUpdateUser, input)) {
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), userID, req.Username, req.Email)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

// Withdraw はユーザーの退会処理を実行する。
// DELETE /users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteAccount(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Account deleted successfully"})
}
