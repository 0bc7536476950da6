// Package audit はアカウント単位の追記専用監査ログを記録する。
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/linkgate/internal/metrics"
	"github.com/hitoshi/linkgate/internal/model"
	"github.com/hitoshi/linkgate/internal/repository"
)

// Sink はサービス層から見た監査ログの書き込み口。
type Sink interface {
	Record(ctx context.Context, accountID string, action model.AuditAction, description string)
}

// Recorder はAuditRepositoryへ監査ログを書き込むSink。
// 書き込みは操作の成功後に行われるため、失敗しても元の操作は取り消さない。
// 失敗はエラーログとメトリクスで検知する。
type Recorder struct {
	repo    repository.AuditRepository
	metrics metrics.MetricsCollector
	now     func() time.Time
}

// NewRecorder はRecorderを生成する。mcがnilの場合はメトリクスを記録しない。
func NewRecorder(repo repository.AuditRepository, mc metrics.MetricsCollector) *Recorder {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Recorder{
		repo:    repo,
		metrics: mc,
		now:     time.Now,
	}
}

// Record は監査ログを1件追記する。
func (r *Recorder) Record(ctx context.Context, accountID string, action model.AuditAction, description string) {
	if !action.Valid() {
		slog.ErrorContext(ctx, "未知の監査アクションです",
			slog.String("action", string(action)),
			slog.String("account_id", accountID),
		)
		r.metrics.RecordAuditWrite(string(action), false)
		return
	}

	entry := &model.AuditEntry{
		ID:          uuid.New().String(),
		AccountID:   accountID,
		Action:      action,
		Description: description,
		CreatedAt:   r.now(),
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		slog.ErrorContext(ctx, "監査ログの書き込みに失敗しました",
			slog.String("action", string(action)),
			slog.String("account_id", accountID),
			slog.String("error", err.Error()),
		)
		r.metrics.RecordAuditWrite(string(action), false)
		return
	}
	r.metrics.RecordAuditWrite(string(action), true)
}

var _ Sink = (*Recorder)(nil)
