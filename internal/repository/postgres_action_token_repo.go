package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/linkgate/internal/model"
)

// PostgresActionTokenRepo はPostgreSQLを使用したアクショントークンリポジトリ。
type PostgresActionTokenRepo struct {
	db *sql.DB
}

// NewPostgresActionTokenRepo はPostgresActionTokenRepoを生成する。
func NewPostgresActionTokenRepo(db *sql.DB) *PostgresActionTokenRepo {
	return &PostgresActionTokenRepo{db: db}
}

// Create はトークンを作成する。
func (r *PostgresActionTokenRepo) Create(ctx context.Context, token *model.ActionToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO action_tokens (id, entity_id, action_name, created_at, expires_at, executed_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		token.ID, token.EntityID, string(token.ActionName), token.CreatedAt, token.ExpiresAt, token.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create action token: %w", err)
	}
	return nil
}

// FindByID は指定IDのトークンを取得する。見つからない場合はnilを返す。
func (r *PostgresActionTokenRepo) FindByID(ctx context.Context, id string) (*model.ActionToken, error) {
	token := &model.ActionToken{}
	var actionName string
	var executedAt sql.NullTime
	err := r.db.QueryRowContext(ctx,
		`SELECT id, entity_id, action_name, created_at, expires_at, executed_at
		 FROM action_tokens WHERE id = $1`,
		id,
	).Scan(&token.ID, &token.EntityID, &actionName, &token.CreatedAt, &token.ExpiresAt, &executedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find action token: %w", err)
	}

	token.ActionName = model.ActionKind(actionName)
	if executedAt.Valid {
		t := executedAt.Time
		token.ExecutedAt = &t
	}
	return token, nil
}

// DeleteExpired はbefore時点で期限切れのトークンを削除し、削除件数を返す。
func (r *PostgresActionTokenRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM action_tokens WHERE expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired action tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

var _ ActionTokenRepository = (*PostgresActionTokenRepo)(nil)
