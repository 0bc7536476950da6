// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/linkgate/internal/middleware"
	"github.com/hitoshi/linkgate/internal/model"
	"github.com/hitoshi/linkgate/internal/validation"
)

// RequestValidator はリクエスト入力の検証に必要なインターフェース。
// validation.Validatorが満たす。
type RequestValidator interface {
	Validate(kind validation.Kind, input validation.Input) []string
}

// accountResponse はアカウント情報のAPIレスポンス。パスワードハッシュは含めない。
type accountResponse struct {
	ID              string     `json:"id"`
	Username        string     `json:"username"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"emailVerifiedAt"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func toAccountResponse(a *model.Account) accountResponse {
	return accountResponse{
		ID:              a.ID,
		Username:        a.Username,
		Email:           a.Email,
		EmailVerifiedAt: a.EmailVerifiedAt,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
}

// linkResponse は短縮URL情報のAPIレスポンス。
type linkResponse struct {
	ID        string    `json:"id"`
	LongURL   string    `json:"longURL"`
	ShortCode string    `json:"shortCode"`
	OwnerID   string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toLinkResponse(l *model.ShortLink) linkResponse {
	return linkResponse{
		ID:        l.ID,
		LongURL:   l.LongURL,
		ShortCode: l.ShortCode,
		OwnerID:   l.OwnerID,
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// decodeJSONBody はリクエストボディをdstにデコードする。
// ボディが空の場合はdstを変更せずnilを返す。
func decodeJSONBody(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// writeInvalidBody はJSON解析に失敗した場合の400レスポンスを書き込む。
func writeInvalidBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest,
		model.NewValidationError([]string{"Request body must be valid JSON"}))
}

// writeViolations は入力検証エラーがあれば400を書き込みtrueを返す。
func writeViolations(w http.ResponseWriter, violations []string) bool {
	if len(violations) == 0 {
		return false
	}
	middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewValidationError(violations))
	return true
}

// requireUserID は認証済みユーザーIDを取得する。取得できない場合は401を書き込む。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError("No token provided"))
		return "", false
	}
	return userID, true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeWrongCredential, model.ErrCodeCodeTaken,
		model.ErrCodeProfileConflict, model.ErrCodeInvalidURL:
		return http.StatusBadRequest
	case model.ErrCodeAccountConflict, model.ErrCodeAlreadyLoggedIn:
		return http.StatusConflict
	case model.ErrCodeAccountNotFound, model.ErrCodeAccountMissing,
		model.ErrCodeOwnerMissing, model.ErrCodeLinkNotFound:
		return http.StatusNotFound
	case model.ErrCodeNotVerified, model.ErrCodeInvalidToken, model.ErrCodeWrongAction,
		model.ErrCodeTokenExpired, model.ErrCodeNotOwner:
		return http.StatusForbidden
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
