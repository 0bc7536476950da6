// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/linkgate/internal/model"
)

// AccountRepository はアカウントデータの永続化インターフェース（Credential Store）。
// username・emailの一意性はユニークインデックスで保証され、違反時はErrDuplicateを返す。
type AccountRepository interface {
	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Account, error)

	// FindByEmail は正規化済みメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Account, error)

	// Create はアカウントを作成する。
	Create(ctx context.Context, account *model.Account) error

	// UpdateProfile はusernameとemailを更新する。
	UpdateProfile(ctx context.Context, account *model.Account) error

	// ConfirmEmail はトークンを使用済みにし、アカウントを検証済みにする。両者は同時に反映される。
	// トークンが既に使用済みの場合はfalseを返す。並行する検証のうち1件だけがtrueを受け取る。
	ConfirmEmail(ctx context.Context, accountID, tokenID string, at time.Time) (bool, error)

	// DeleteWithCascade はアカウントと所有する短縮URL・アクショントークンを同一トランザクションで削除する。
	// アカウントが存在しない場合はfalseを返す。
	DeleteWithCascade(ctx context.Context, id string) (bool, error)
}

// ActionTokenRepository はアクショントークンの永続化インターフェース（Action-Token Store）。
type ActionTokenRepository interface {
	// Create はトークンを作成する。
	Create(ctx context.Context, token *model.ActionToken) error

	// FindByID は指定IDのトークンを取得する。見つからない場合はnilを返す。
	// 期限切れでも回収前であれば返す。期限判定は呼び出し側で行う。
	FindByID(ctx context.Context, id string) (*model.ActionToken, error)

	// DeleteExpired はbefore時点で期限切れのトークンを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// LinkRepository は短縮URLの永続化インターフェース（Link Store）。
// short_codeは所有者に関係なく全体で一意であり、違反時はErrDuplicateを返す。
type LinkRepository interface {
	// Create は短縮URLを作成する。
	Create(ctx context.Context, link *model.ShortLink) error

	// FindByCode は短縮コードで短縮URLを取得する。見つからない場合はnilを返す。
	FindByCode(ctx context.Context, code string) (*model.ShortLink, error)

	// FindByID は指定IDの短縮URLを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ShortLink, error)

	// ListByOwner は所有者の短縮URL一覧を作成日時順で返す。該当なしの場合は空スライスを返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error)

	// UpdateCode は短縮コードを更新し、更新後の短縮URLを返す。見つからない場合はnilを返す。
	UpdateCode(ctx context.Context, id, code string, updatedAt time.Time) (*model.ShortLink, error)

	// DeleteByIDAndOwner はIDと所有者が一致する短縮URLを削除し、削除件数を返す。
	DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (int64, error)
}

// AuditRepository は監査ログの追記専用インターフェース。
type AuditRepository interface {
	// Append は監査ログを1件追記する。
	Append(ctx context.Context, entry *model.AuditEntry) error
}
