package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/linkgate/internal/model"
)

// PostgresAuditRepo はPostgreSQLを使用した監査ログリポジトリ。
type PostgresAuditRepo struct {
	db *sql.DB
}

// NewPostgresAuditRepo はPostgresAuditRepoを生成する。
func NewPostgresAuditRepo(db *sql.DB) *PostgresAuditRepo {
	return &PostgresAuditRepo{db: db}
}

// Append は監査ログを1件追記する。更新・削除の手段は提供しない。
func (r *PostgresAuditRepo) Append(ctx context.Context, entry *model.AuditEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, account_id, action, description, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.AccountID, string(entry.Action), entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

var _ AuditRepository = (*PostgresAuditRepo)(nil)
