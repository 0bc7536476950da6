package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/linkgate/internal/model"
)

// PostgresLinkRepo はPostgreSQLを使用した短縮URLリポジトリ。
type PostgresLinkRepo struct {
	db *sql.DB
}

// NewPostgresLinkRepo はPostgresLinkRepoを生成する。
func NewPostgresLinkRepo(db *sql.DB) *PostgresLinkRepo {
	return &PostgresLinkRepo{db: db}
}

const linkColumns = `id, long_url, short_code, owner_id, created_at, updated_at`

// Create は短縮URLを作成する。short_codeが重複する場合はErrDuplicateを返す。
func (r *PostgresLinkRepo) Create(ctx context.Context, link *model.ShortLink) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO short_links (id, long_url, short_code, owner_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		link.ID, link.LongURL, link.ShortCode, link.OwnerID, link.CreatedAt, link.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create short link: %w", translateError(err))
	}
	return nil
}

// FindByCode は短縮コードで短縮URLを取得する。見つからない場合はnilを返す。
func (r *PostgresLinkRepo) FindByCode(ctx context.Context, code string) (*model.ShortLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE short_code = $1`, code))
	if err != nil {
		return nil, fmt.Errorf("failed to find short link by code: %w", err)
	}
	return link, nil
}

// FindByID は指定IDの短縮URLを取得する。見つからない場合はnilを返す。
func (r *PostgresLinkRepo) FindByID(ctx context.Context, id string) (*model.ShortLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to find short link by ID: %w", err)
	}
	return link, nil
}

// ListByOwner は所有者の短縮URL一覧を作成日時順で返す。
func (r *PostgresLinkRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM short_links WHERE owner_id = $1 ORDER BY created_at, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list short links: %w", err)
	}
	defer rows.Close()

	links := make([]*model.ShortLink, 0)
	for rows.Next() {
		link := &model.ShortLink{}
		if err := rows.Scan(&link.ID, &link.LongURL, &link.ShortCode, &link.OwnerID, &link.CreatedAt, &link.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan short link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate short links: %w", err)
	}
	return links, nil
}

// UpdateCode は短縮コードを更新し、更新後の短縮URLを返す。見つからない場合はnilを返す。
func (r *PostgresLinkRepo) UpdateCode(ctx context.Context, id, code string, updatedAt time.Time) (*model.ShortLink, error) {
	link, err := scanLink(r.db.QueryRowContext(ctx,
		`UPDATE short_links SET short_code = $1, updated_at = $2 WHERE id = $3
		 RETURNING `+linkColumns,
		code, updatedAt, id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update short code: %w", translateError(err))
	}
	return link, nil
}

// DeleteByIDAndOwner はIDと所有者が一致する短縮URLを削除し、削除件数を返す。
func (r *PostgresLinkRepo) DeleteByIDAndOwner(ctx context.Context, id, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM short_links WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete short link: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func scanLink(row *sql.Row) (*model.ShortLink, error) {
	link := &model.ShortLink{}
	err := row.Scan(&link.ID, &link.LongURL, &link.ShortCode, &link.OwnerID, &link.CreatedAt, &link.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

var _ LinkRepository = (*PostgresLinkRepo)(nil)
