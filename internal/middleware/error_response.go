package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/linkgate/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// errorには利用者向けメッセージ、errorsには入力検証エラーの一覧を格納する。
type ErrorResponseBody struct {
	Error    string   `json:"error"`
	Code     string   `json:"code"`
	Category string   `json:"category"`
	Action   string   `json:"action,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Error:    apiErr.Message,
		Code:     apiErr.Code,
		Category: apiErr.Category,
		Action:   apiErr.Action,
		Errors:   apiErr.Violations,
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "Internal server error",
		Category: model.CategoryInternal,
		Action:   "Retry later.",
	})
}
