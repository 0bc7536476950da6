// Package notify は検証メールなどの利用者向け通知を送信する。
package notify

import (
	"context"
	"log/slog"
	"time"
)

// VerificationMessage はメールアドレス検証通知の内容。
type VerificationMessage struct {
	To        string
	Username  string
	Link      string
	ExpiresAt time.Time
}

// Notifier は通知送信のインターフェース。
// 送信失敗は呼び出し側でログに記録され、処理はロールバックされない。
type Notifier interface {
	SendVerification(ctx context.Context, msg VerificationMessage) error
}

// LogNotifier はSMTPが未設定の環境で使用する通知実装。
// 送信は行わず、宛先のみをログに記録する。
type LogNotifier struct{}

// NewLogNotifier はLogNotifierを生成する。
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// SendVerification は通知をログに記録する。リンク（トークン）は記録しない。
func (n *LogNotifier) SendVerification(ctx context.Context, msg VerificationMessage) error {
	slog.InfoContext(ctx, "verification mail delivery skipped (smtp not configured)",
		slog.String("to", msg.To),
		slog.Time("expires_at", msg.ExpiresAt),
	)
	return nil
}

var _ Notifier = (*LogNotifier)(nil)
