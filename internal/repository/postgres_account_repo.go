package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/linkgate/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

const accountColumns = `id, username, email, password_hash, email_verified_at, created_at, updated_at`

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}
	return account, nil
}

// FindByEmail は正規化済みメールアドレスでアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email = $1`, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}
	return account, nil
}

// FindByUsername はユーザー名でアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByUsername(ctx context.Context, username string) (*model.Account, error) {
	account, err := r.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
	if err != nil {
		return nil, fmt.Errorf("failed to find account by username: %w", err)
	}
	return account, nil
}

func (r *PostgresAccountRepo) findOne(ctx context.Context, query string, arg string) (*model.Account, error) {
	account := &model.Account{}
	var verifiedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&account.ID, &account.Username, &account.Email, &account.PasswordHash,
		&verifiedAt, &account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		account.EmailVerifiedAt = &t
	}
	return account, nil
}

// Create はアカウントを作成する。
// username・emailが既存と重複する場合はErrDuplicateを返す。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, username, email, password_hash, email_verified_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.Username, account.Email, account.PasswordHash,
		account.EmailVerifiedAt, account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", translateError(err))
	}
	return nil
}

// UpdateProfile はusernameとemailを更新する。
func (r *PostgresAccountRepo) UpdateProfile(ctx context.Context, account *model.Account) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET username = $1, email = $2, updated_at = $3 WHERE id = $4`,
		account.Username, account.Email, account.UpdatedAt, account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("account not found: %s", account.ID)
	}
	return nil
}

// ConfirmEmail はトークンの使用済み化とメールアドレス検証日時の設定を同一トランザクションで行う。
// トークンが既に使用済みの場合は何も変更せずfalseを返す。
func (r *PostgresAccountRepo) ConfirmEmail(ctx context.Context, accountID, tokenID string, at time.Time) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE action_tokens SET executed_at = $1 WHERE id = $2 AND executed_at IS NULL`,
		at, tokenID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark action token executed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET email_verified_at = $1, updated_at = $1 WHERE id = $2`,
		at, accountID,
	); err != nil {
		return false, fmt.Errorf("failed to mark account verified: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// DeleteWithCascade はアカウントと所有データを同一トランザクションで削除する。
// 外部キーによるCASCADEは使わず、短縮URL、アクショントークン、アカウントの順に明示的に削除する。
// 監査ログは履歴として残す。
func (r *PostgresAccountRepo) DeleteWithCascade(ctx context.Context, id string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM short_links WHERE owner_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete short links: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM action_tokens WHERE entity_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete action tokens: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete account: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

var _ AccountRepository = (*PostgresAccountRepo)(nil)
