// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Account はサービス利用アカウントを表す。
// PasswordHashはレスポンスに含めてはならない。
type Account struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string
	EmailVerifiedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsVerified はメールアドレスが検証済みかを返す。
func (a *Account) IsVerified() bool {
	return a.EmailVerifiedAt != nil
}

// NormalizeEmail はメールアドレスを比較用に正規化する（前後空白除去・小文字化）。
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ActionKind はアクショントークンが許可する操作の種類を表す。
type ActionKind string

const (
	// ActionRegistrationVerification は登録時のメールアドレス検証。
	ActionRegistrationVerification ActionKind = "registration_verification"
)

// Valid は閉じた集合に含まれる種類かを返す。
func (k ActionKind) Valid() bool {
	switch k {
	case ActionRegistrationVerification:
		return true
	default:
		return false
	}
}

// ActionToken は1回限り・有効期限付きの操作トークンを表す。
type ActionToken struct {
	ID         string
	EntityID   string
	ActionName ActionKind
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ExecutedAt *time.Time
}

// IsExpired はnow時点でトークンが期限切れかを返す。
func (t *ActionToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IsExecuted はトークンが使用済みかを返す。
func (t *ActionToken) IsExecuted() bool {
	return t.ExecutedAt != nil
}
