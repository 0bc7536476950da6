// Package link は短縮URLの割り当て、解決、所有者による更新・削除を提供する。
// 短縮コードは所有者に関係なく全体で一意。
package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/linkgate/internal/audit"
	"github.com/hitoshi/linkgate/internal/metrics"
	"github.com/hitoshi/linkgate/internal/model"
	"github.com/hitoshi/linkgate/internal/repository"
)

// DefaultMaxGenerateAttempts はコード生成の衝突時の最大試行回数。
const DefaultMaxGenerateAttempts = 5

// OwnerFinder は短縮URL作成者の存在確認に使うインターフェース。
type OwnerFinder interface {
	FindByID(ctx context.Context, id string) (*model.Account, error)
}

// URLGuard は短縮対象URLの検証インターフェース。
type URLGuard interface {
	ValidateLongURL(rawURL string) error
	Probe(ctx context.Context, rawURL string) error
}

// ServiceConfig は短縮URLサービスの設定。
type ServiceConfig struct {
	CodeLength          int // 生成コードの長さ
	MaxGenerateAttempts int // 生成コードの衝突時の最大試行回数
}

// Service は短縮URLのビジネスロジックを提供する。
type Service struct {
	links    repository.LinkRepository
	owners   OwnerFinder
	guard    URLGuard
	audit    audit.Sink
	metrics  metrics.MetricsCollector
	config   ServiceConfig
	generate func(length int) (string, error)
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	links repository.LinkRepository,
	owners OwnerFinder,
	guard URLGuard,
	auditSink audit.Sink,
	mc metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if config.CodeLength <= 0 {
		config.CodeLength = DefaultCodeLength
	}
	if config.MaxGenerateAttempts <= 0 {
		config.MaxGenerateAttempts = DefaultMaxGenerateAttempts
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		links:    links,
		owners:   owners,
		guard:    guard,
		audit:    auditSink,
		metrics:  mc,
		config:   config,
		generate: GenerateCode,
		now:      time.Now,
	}
}

// Shorten は短縮URLを作成する。desiredCodeが空の場合はコードを生成する。
func (s *Service) Shorten(ctx context.Context, longURL, desiredCode, ownerID string) (link *model.ShortLink, err error) {
	defer func() { s.observe("shorten", err) }()

	owner, err := s.owners.FindByID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to find owner: %w", err)
	}
	if owner == nil {
		return nil, model.NewOwnerMissingError()
	}

	if err := s.guard.ValidateLongURL(longURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}
	if err := s.guard.Probe(ctx, longURL); err != nil {
		return nil, model.NewInvalidURLError(err.Error())
	}

	now := s.now()
	link = &model.ShortLink{
		ID:        uuid.New().String(),
		LongURL:   longURL,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if desiredCode != "" {
		err = s.insertWithCode(ctx, link, desiredCode)
	} else {
		err = s.insertWithGeneratedCode(ctx, link)
	}
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "短縮URLを作成しました",
		slog.String("link_id", link.ID),
		slog.String("short_code", link.ShortCode),
		slog.String("owner_id", ownerID),
	)

	s.audit.Record(ctx, ownerID, model.AuditCreate,
		fmt.Sprintf("Short URL %q created for %q", link.ShortCode, link.LongURL))

	return link, nil
}

// insertWithCode は指定コードで保存する。使用中であればCodeTakenを返す。
func (s *Service) insertWithCode(ctx context.Context, link *model.ShortLink, code string) error {
	existing, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to check short code: %w", err)
	}
	if existing != nil {
		return model.NewCodeTakenError(code)
	}

	link.ShortCode = code
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewCodeTakenError(code)
		}
		return err
	}
	return nil
}

// insertWithGeneratedCode はコードを生成して保存する。
// 衝突した場合は再生成し、MaxGenerateAttempts回失敗したら内部エラーを返す。
func (s *Service) insertWithGeneratedCode(ctx context.Context, link *model.ShortLink) error {
	for attempt := 1; attempt <= s.config.MaxGenerateAttempts; attempt++ {
		code, err := s.generate(s.config.CodeLength)
		if err != nil {
			return err
		}

		err = s.insertWithCode(ctx, link, code)
		if err == nil {
			return nil
		}
		if !model.IsCode(err, model.ErrCodeCodeTaken) {
			return err
		}

		slog.WarnContext(ctx, "生成した短縮コードが衝突しました",
			slog.Int("attempt", attempt),
		)
	}
	return fmt.Errorf("failed to allocate short code after %d attempts", s.config.MaxGenerateAttempts)
}

// Resolve は短縮コードに対応する元URLを返す。
func (s *Service) Resolve(ctx context.Context, code string) (longURL string, err error) {
	defer func() { s.observe("resolve", err) }()

	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to find short link: %w", err)
	}
	if link == nil {
		return "", model.NewLinkNotFoundError()
	}
	return link.LongURL, nil
}

// Redirect は認証済み利用者のリダイレクト用に元URLを解決し、参照を監査ログに記録する。
func (s *Service) Redirect(ctx context.Context, code, viewerID string) (string, error) {
	longURL, err := s.Resolve(ctx, code)
	if err != nil {
		return "", err
	}

	s.audit.Record(ctx, viewerID, model.AuditShow,
		fmt.Sprintf("Short URL %q redirected to %q", code, longURL))

	return longURL, nil
}

// ListForOwner は所有者の短縮URL一覧を返す。該当なしは空スライス。
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error) {
	links, err := s.links.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []*model.ShortLink{}
	}
	return links, nil
}

// UpdateCode は短縮URLのコードを変更する。
// 判定順: コード使用中 → 所有者不一致 → 短縮URL不在。
func (s *Service) UpdateCode(ctx context.Context, linkID, newCode, requesterID string) (updated *model.ShortLink, err error) {
	defer func() { s.observe("update_code", err) }()

	holder, err := s.links.FindByCode(ctx, newCode)
	if err != nil {
		return nil, fmt.Errorf("failed to check short code: %w", err)
	}
	if holder != nil {
		return nil, model.NewCodeTakenError(newCode)
	}

	link, err := s.links.FindByID(ctx, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to find short link: %w", err)
	}
	if link != nil && link.OwnerID != requesterID {
		return nil, model.NewNotOwnerError()
	}
	if link == nil {
		return nil, model.NewLinkNotFoundError()
	}

	updated, err = s.links.UpdateCode(ctx, linkID, newCode, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewCodeTakenError(newCode)
		}
		return nil, err
	}
	if updated == nil {
		// 検索後に削除された
		return nil, model.NewLinkNotFoundError()
	}

	s.audit.Record(ctx, requesterID, model.AuditUpdate,
		fmt.Sprintf("Short URL code changed from %q to %q", link.ShortCode, newCode))

	return updated, nil
}

// Delete は所有者が一致する短縮URLを削除する。
// 不在と所有者不一致は区別せずLinkNotFoundを返す。
func (s *Service) Delete(ctx context.Context, linkID, requesterID string) (err error) {
	defer func() { s.observe("delete", err) }()

	deleted, err := s.links.DeleteByIDAndOwner(ctx, linkID, requesterID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return model.NewLinkNotFoundError()
	}

	s.audit.Record(ctx, requesterID, model.AuditDelete,
		fmt.Sprintf("Short URL %s deleted", linkID))

	return nil
}

func (s *Service) observe(event string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "internal"
		var apiErr *model.APIError
		if errors.As(err, &apiErr) {
			outcome = apiErr.Code
		}
	}
	s.metrics.RecordLinkEvent(event, outcome)
}
