package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// Categoryはエラー分類（validation, conflict, not_found, unauthorized,
// forbidden, invalid_state, internal）を保持し、境界層でのステータス決定に使う。
type APIError struct {
	Code       string   // エラーコード
	Message    string   // エラーメッセージ
	Category   string   // エラー分類
	Action     string   // 利用者向け対処方法
	Violations []string // 入力検証エラーの詳細
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラー分類
const (
	CategoryValidation   = "validation"
	CategoryConflict     = "conflict"
	CategoryNotFound     = "not_found"
	CategoryUnauthorized = "unauthorized"
	CategoryForbidden    = "forbidden"
	CategoryInvalidState = "invalid_state"
	CategoryInternal     = "internal"
)

// 定義済みエラーコード
const (
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeAccountConflict = "ACCOUNT_CONFLICT"
	ErrCodeProfileConflict = "PROFILE_CONFLICT"
	ErrCodeAccountNotFound = "ACCOUNT_NOT_FOUND"
	ErrCodeWrongCredential = "WRONG_CREDENTIAL"
	ErrCodeNotVerified     = "NOT_VERIFIED"
	ErrCodeAlreadyLoggedIn = "ALREADY_LOGGED_IN"
	ErrCodeInvalidToken    = "INVALID_TOKEN"
	ErrCodeWrongAction     = "WRONG_ACTION"
	ErrCodeTokenExpired    = "TOKEN_EXPIRED"
	ErrCodeAccountMissing  = "ACCOUNT_MISSING"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeOwnerMissing    = "OWNER_MISSING"
	ErrCodeCodeTaken       = "CODE_TAKEN"
	ErrCodeNotOwner        = "NOT_OWNER"
	ErrCodeLinkNotFound    = "LINK_NOT_FOUND"
	ErrCodeInvalidURL      = "INVALID_URL"
	ErrCodeInternal        = "INTERNAL_ERROR"
)

// IsCode はerrがcodeを持つAPIErrorかを返す。
func IsCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(violations []string) *APIError {
	return &APIError{
		Code:       ErrCodeValidation,
		Message:    "Validation failed",
		Category:   CategoryValidation,
		Action:     "Fix the listed fields and retry.",
		Violations: violations,
	}
}

// NewAccountConflictError はユーザー名またはメールアドレスの重複エラーを生成する。
func NewAccountConflictError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountConflict,
		Message:  "User already exists",
		Category: CategoryConflict,
		Action:   "Choose a different username or email.",
	}
}

// NewProfileConflictError はプロフィール更新時の重複エラーを生成する。
func NewProfileConflictError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeProfileConflict,
		Message:  fmt.Sprintf("Invalid update data: %s already in use", field),
		Category: CategoryConflict,
		Action:   "Choose a different value.",
	}
}

// NewAccountNotFoundError はアカウント未検出エラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "User not found",
		Category: CategoryNotFound,
		Action:   "Check the email address or register first.",
	}
}

// NewWrongCredentialError はパスワード不一致エラーを生成する。
func NewWrongCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongCredential,
		Message:  "Password does not match",
		Category: CategoryValidation,
		Action:   "Check your password.",
	}
}

// NewNotVerifiedError はメールアドレス未検証エラーを生成する。
func NewNotVerifiedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotVerified,
		Message:  "User not verified",
		Category: CategoryForbidden,
		Action:   "Verify your email address first.",
	}
}

// NewAlreadyLoggedInError は有効なセッションでの再ログインエラーを生成する。
func NewAlreadyLoggedInError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyLoggedIn,
		Message:  "User already logged in",
		Category: CategoryInvalidState,
		Action:   "Log out before logging in again.",
	}
}

// NewInvalidTokenError は存在しない・使用済みトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid token or expired",
		Category: CategoryForbidden,
		Action:   "Request a new verification token.",
	}
}

// NewWrongActionError はトークン種別不一致エラーを生成する。
func NewWrongActionError() *APIError {
	return &APIError{
		Code:     ErrCodeWrongAction,
		Message:  "Invalid token action name",
		Category: CategoryInvalidState,
		Action:   "Use the link from the verification email.",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Token has expired",
		Category: CategoryForbidden,
		Action:   "Request a new verification token.",
	}
}

// NewAccountMissingError はトークンが参照するアカウントが存在しない場合のエラーを生成する。
func NewAccountMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountMissing,
		Message:  "User doesn't exist",
		Category: CategoryNotFound,
		Action:   "Register again.",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Unauthorized - " + reason,
		Category: CategoryUnauthorized,
		Action:   "Log in and retry.",
	}
}

// NewOwnerMissingError は短縮URL作成者が存在しない場合のエラーを生成する。
func NewOwnerMissingError() *APIError {
	return &APIError{
		Code:     ErrCodeOwnerMissing,
		Message:  "You must login first to create shortURLs",
		Category: CategoryNotFound,
		Action:   "Log in with an existing account.",
	}
}

// NewCodeTakenError は短縮コード重複エラーを生成する。
func NewCodeTakenError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeCodeTaken,
		Message:  fmt.Sprintf("Custom short code is already in use: %s", code),
		Category: CategoryConflict,
		Action:   "Choose a different short code.",
	}
}

// NewNotOwnerError は他人の短縮URLを操作しようとした場合のエラーを生成する。
func NewNotOwnerError() *APIError {
	return &APIError{
		Code:     ErrCodeNotOwner,
		Message:  "ShortURL does not belong to this user",
		Category: CategoryForbidden,
		Action:   "Only the owner can change this short URL.",
	}
}

// NewLinkNotFoundError は短縮URL未検出エラーを生成する。
func NewLinkNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeLinkNotFound,
		Message:  "Short URL not found",
		Category: CategoryNotFound,
		Action:   "Check the short code or ID.",
	}
}

// NewInvalidURLError は無効なURLエラーを生成する。
func NewInvalidURLError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidURL,
		Message:  fmt.Sprintf("Invalid URL format: %s", reason),
		Category: CategoryValidation,
		Action:   "Use an absolute http:// or https:// URL.",
	}
}
