// Package validation はリクエスト種別ごとの入力検証ルールを定義する。
// Validateは副作用のない純粋関数で、違反メッセージの一覧を返す。
package validation

import (
	"net/mail"
	"net/url"
	"strings"
	"unicode"

	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
)

// Kind はリクエスト種別を表す。
type Kind string

const (
	KindRegister    Kind = "register"
	KindLogin       Kind = "login"
	KindResendToken Kind = "resendToken"
	KindVerifyEmail Kind = "verifyEmail"
	KindShorten     Kind = "shortenURL"
	KindRedirect    Kind = "redirect"
	KindShowLongURL Kind = "showLongUrl"
	KindUpdateLink  Kind = "updateLink"
	KindDeleteLink  Kind = "deleteLink"
	KindShowUser    Kind = "showUser"
	KindUpdateUser  Kind = "updateUser"
)

const (
	// MinPasswordLength はパスワードの最小文字数。
	MinPasswordLength = 6
	// MaxPasswordBytes はパスワードの最大バイト数。bcryptの入力上限に合わせる。
	MaxPasswordBytes = 72
	// MaxShortCodeLength は短縮コードの最大文字数。
	MaxShortCodeLength = 32
	// MaxUsernameLength はユーザー名の最大文字数。
	MaxUsernameLength = 64
)

// Input はフィールド名から値へのマップ。キーが存在しない場合はフィールド未指定を表す。
type Input map[string]string

// Rule は1フィールドに対する制約。
type Rule struct {
	Field    string
	Optional bool // trueの場合、フィールド未指定なら検査しない
	Check    func(string) bool
	Message  string
}

// Rules はリクエスト種別ごとの検証ルール表。ルールは定義順に評価される。
var Rules = map[Kind][]Rule{
	KindRegister: {
		{Field: "email", Check: isEmail, Message: "Invalid email address"},
		{Field: "username", Check: isUsername, Message: "Username cannot be empty"},
		{Field: "password", Check: isPassword, Message: "Password must be at least 6 characters long"},
		{Field: "password", Check: isPasswordWithinLimit, Message: "Password must be at most 72 bytes long"},
	},
	KindLogin: {
		{Field: "email", Check: isEmail, Message: "Invalid email address"},
		{Field: "password", Check: isPassword, Message: "Password must be at least 6 characters long"},
		{Field: "password", Check: isPasswordWithinLimit, Message: "Password must be at most 72 bytes long"},
	},
	KindResendToken: {
		{Field: "email", Check: isEmail, Message: "Invalid email address"},
		{Field: "password", Check: isPassword, Message: "Password must be at least 6 characters long"},
		{Field: "password", Check: isPasswordWithinLimit, Message: "Password must be at most 72 bytes long"},
	},
	KindVerifyEmail: {
		{Field: "token", Check: isUUID, Message: "verify token is required"},
	},
	KindShorten: {
		{Field: "longURL", Check: isURL, Message: "Invalid URL format"},
		{Field: "customShortCode", Optional: true, Check: isShortCode, Message: "Short code must be alphanumeric"},
	},
	KindRedirect: {
		{Field: "shortCode", Check: isShortCode, Message: "Short code must be alphanumeric"},
	},
	KindShowLongURL: {
		{Field: "shortCode", Check: isShortCode, Message: "Short code must be alphanumeric"},
	},
	KindUpdateLink: {
		{Field: "shortURLId", Check: isUUID, Message: "shortURLId must be an UUID"},
		{Field: "customShortCode", Check: isShortCode, Message: "Short code must be alphanumeric"},
	},
	KindDeleteLink: {
		{Field: "shortURLId", Check: isUUID, Message: "shortURLId must be an UUID"},
	},
	KindShowUser: {
		{Field: "user_id", Check: isUUID, Message: "User ID is required"},
	},
	KindUpdateUser: {
		{Field: "email", Optional: true, Check: isEmail, Message: "Invalid email address"},
		{Field: "username", Optional: true, Check: isUsername, Message: "Username cannot be empty"},
	},
}

// Validate はkindのルール表に従ってinputを検証し、違反メッセージを返す。
// 違反がない場合はnilを返す。未知のkindはルールなしとして扱う。
func Validate(kind Kind, input Input) []string {
	var violations []string
	for _, rule := range Rules[kind] {
		value, ok := input[rule.Field]
		if !ok && rule.Optional {
			continue
		}
		if !rule.Check(value) {
			violations = append(violations, rule.Message)
		}
	}
	return violations
}

// Validator はルール表に加えてパスワード強度を検証する。
type Validator struct {
	minEntropy float64
}

// NewValidator はValidatorを生成する。minEntropyが0以下の場合、強度検証は行わない。
func NewValidator(minEntropy float64) *Validator {
	return &Validator{minEntropy: minEntropy}
}

// Validate はルール表の検証を行い、登録時のみパスワードのエントロピーも検証する。
func (v *Validator) Validate(kind Kind, input Input) []string {
	violations := Validate(kind, input)
	if kind != KindRegister || v.minEntropy <= 0 {
		return violations
	}

	password, ok := input["password"]
	if !ok || !isPassword(password) || !isPasswordWithinLimit(password) {
		return violations
	}
	if err := passwordvalidator.Validate(password, v.minEntropy); err != nil {
		violations = append(violations, "Password is not strong enough: "+err.Error())
	}
	return violations
}

func isEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

func isUsername(s string) bool {
	trimmed := strings.TrimSpace(s)
	return trimmed != "" && len(trimmed) <= MaxUsernameLength
}

func isPassword(s string) bool {
	return len([]rune(s)) >= MinPasswordLength
}

func isPasswordWithinLimit(s string) bool {
	return len(s) <= MaxPasswordBytes
}

func isUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}

func isShortCode(s string) bool {
	if s == "" || len(s) > MaxShortCodeLength {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

func isURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}
