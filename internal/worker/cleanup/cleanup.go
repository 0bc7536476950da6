// Package cleanup は期限切れアクショントークンの回収ジョブを提供する。
// 利用時の期限判定はサービス層で独立して行うため、回収の遅延は正しさに影響しない。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/linkgate/internal/metrics"
)

// ExpiredTokenDeleter は期限切れトークンの一括削除を抽象化するインターフェース。
// repository.ActionTokenRepositoryが満たす。
type ExpiredTokenDeleter interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// TokenCleanupJob は期限切れアクショントークンを削除するジョブ。
// 定期実行を前提とし、何度実行しても結果が変わらない。
type TokenCleanupJob struct {
	tokens  ExpiredTokenDeleter
	logger  *slog.Logger
	metrics metrics.MetricsCollector
	now     func() time.Time
	// Grace は期限切れ後も保持する猶予期間（デフォルト: 0）。
	Grace time.Duration
}

// NewTokenCleanupJob は新しいTokenCleanupJobを生成する。
// mcがnilの場合はメトリクスを記録しない。
func NewTokenCleanupJob(tokens ExpiredTokenDeleter, logger *slog.Logger, mc metrics.MetricsCollector) *TokenCleanupJob {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &TokenCleanupJob{
		tokens:  tokens,
		logger:  logger,
		metrics: mc,
		now:     time.Now,
	}
}

// Run は期限切れトークンを削除する。削除対象がない場合もエラーにならない。
func (j *TokenCleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.Add(-j.Grace)

	deleted, err := j.tokens.DeleteExpired(ctx, cutoff)
	if err != nil {
		j.logger.Error("期限切れトークンの回収に失敗しました",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff),
		)
		return fmt.Errorf("期限切れトークンの回収に失敗: %w", err)
	}

	j.metrics.RecordTokensReaped(deleted)

	duration := j.now().Sub(start)
	j.logger.Info("期限切れトークンの回収が完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
	return nil
}

// DefaultInterval はintervalに0以下が渡された場合の実行間隔。
const DefaultInterval = 10 * time.Minute

// Loop はintervalごとにRunを実行し、ctxがキャンセルされるまでブロックする。
// 起動直後に1回実行する。個々の失敗はログに記録して継続する。
func (j *TokenCleanupJob) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	_ = j.Run(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
