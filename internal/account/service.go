// Package account はアカウントのライフサイクル（登録、メール検証、ログイン、
// ログアウト、プロフィール更新、削除）を管理する。
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/linkgate/internal/audit"
	"github.com/hitoshi/linkgate/internal/metrics"
	"github.com/hitoshi/linkgate/internal/model"
	"github.com/hitoshi/linkgate/internal/notify"
	"github.com/hitoshi/linkgate/internal/repository"
	"github.com/hitoshi/linkgate/internal/security"
)

// DefaultVerificationTokenTTL は検証トークンの既定有効期間。
const DefaultVerificationTokenTTL = 15 * time.Minute

// PasswordHasher はパスワードハッシュのインターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare は不一致の場合にsecurity.ErrPasswordMismatchを返す。
	Compare(hash, password string) error
}

// SessionIssuer はセッショントークンの発行・検証インターフェース。
type SessionIssuer interface {
	Issue(accountID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// ServiceConfig はアカウントサービスの設定。
type ServiceConfig struct {
	BaseURL              string        // 検証リンクのベースURL
	VerificationTokenTTL time.Duration // 検証トークンの有効期間
}

// RegistrationResult は登録・検証トークン再送の結果。
// AlreadyVerifiedがtrueの場合、TokenとVerificationURLは空。
type RegistrationResult struct {
	Account         *model.Account
	Token           *model.ActionToken
	VerificationURL string
	AlreadyVerified bool
}

// VerifyOutcome はメール検証の成功時の結果。
type VerifyOutcome int

const (
	// VerifyOutcomeVerified は今回の操作で検証済みになったことを表す。
	VerifyOutcomeVerified VerifyOutcome = iota + 1
	// VerifyOutcomeAlreadyVerified は既に検証済みだったことを表す。
	VerifyOutcomeAlreadyVerified
)

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	Account   *model.Account
	Token     string
	ExpiresAt time.Time
}

// Service はアカウントライフサイクルのビジネスロジックを提供する。
type Service struct {
	accounts repository.AccountRepository
	tokens   repository.ActionTokenRepository
	hasher   PasswordHasher
	sessions SessionIssuer
	notifier notify.Notifier
	audit    audit.Sink
	metrics  metrics.MetricsCollector
	config   ServiceConfig
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	accounts repository.AccountRepository,
	tokens repository.ActionTokenRepository,
	hasher PasswordHasher,
	sessions SessionIssuer,
	notifier notify.Notifier,
	auditSink audit.Sink,
	mc metrics.MetricsCollector,
	config ServiceConfig,
) *Service {
	if config.VerificationTokenTTL <= 0 {
		config.VerificationTokenTTL = DefaultVerificationTokenTTL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		audit:    auditSink,
		metrics:  mc,
		config:   config,
		now:      time.Now,
	}
}

// Register はアカウントを作成し、メール検証トークンを発行して通知する。
// 通知の失敗はログに記録するのみで、アカウント作成は取り消さない（再送で回復する）。
func (s *Service) Register(ctx context.Context, username, email, password string) (result *RegistrationResult, err error) {
	defer func() { s.observe("register", err) }()

	username = strings.TrimSpace(username)
	email = model.NormalizeEmail(email)

	// 事前チェック。最終的な一意性はユニークインデックスで保証する。
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, model.NewAccountConflictError()
	}
	existing, err = s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, model.NewAccountConflictError()
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	account := &model.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, model.NewAccountConflictError()
		}
		return nil, err
	}

	slog.InfoContext(ctx, "アカウントを登録しました", slog.String("account_id", account.ID))

	token, link, err := s.issueVerification(ctx, account)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, account.ID, model.AuditReceiveToken,
		fmt.Sprintf("User %q registration email confirmation in progress - Received Email Verification Token",
			account.Username+" - "+account.Email))

	return &RegistrationResult{Account: account, Token: token, VerificationURL: link}, nil
}

// ResendVerificationToken は未検証アカウントに新しい検証トークンを発行する。
// 既に検証済みの場合はAlreadyVerifiedを立てた結果を返す。
func (s *Service) ResendVerificationToken(ctx context.Context, email, password string) (result *RegistrationResult, err error) {
	defer func() { s.observe("resend_token", err) }()

	account, err := s.accounts.FindByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	if account.IsVerified() {
		return &RegistrationResult{Account: account, AlreadyVerified: true}, nil
	}

	if err := s.checkPassword(account, password); err != nil {
		return nil, err
	}

	token, link, err := s.issueVerification(ctx, account)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, account.ID, model.AuditReceiveToken,
		fmt.Sprintf("User %q requested resend of email token - Received Email Verification Token",
			account.Username+" - "+account.Email))

	return &RegistrationResult{Account: account, Token: token, VerificationURL: link}, nil
}

// issueVerification は検証トークンを保存し、検証リンクを通知する。
func (s *Service) issueVerification(ctx context.Context, account *model.Account) (*model.ActionToken, string, error) {
	now := s.now()
	token := &model.ActionToken{
		ID:         uuid.New().String(),
		EntityID:   account.ID,
		ActionName: model.ActionRegistrationVerification,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.config.VerificationTokenTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, "", err
	}

	link := s.config.BaseURL + "/auth/verify-email/" + token.ID

	err := s.notifier.SendVerification(ctx, notify.VerificationMessage{
		To:        account.Email,
		Username:  account.Username,
		Link:      link,
		ExpiresAt: token.ExpiresAt,
	})
	if err != nil {
		slog.WarnContext(ctx, "検証メールの送信に失敗しました",
			slog.String("account_id", account.ID),
			slog.String("error", err.Error()),
		)
	}

	return token, link, nil
}

// VerifyEmail は検証トークンを消費してメールアドレスを検証済みにする。
// 判定順: トークン不在 → 種別不一致 → アカウント不在 → 期限切れ → 検証済み → 使用済み。
func (s *Service) VerifyEmail(ctx context.Context, tokenID string) (outcome VerifyOutcome, err error) {
	defer func() { s.observe("verify_email", err) }()

	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		return 0, fmt.Errorf("failed to find action token: %w", err)
	}
	if token == nil {
		return 0, model.NewInvalidTokenError()
	}
	if token.ActionName != model.ActionRegistrationVerification {
		return 0, model.NewWrongActionError()
	}

	account, err := s.accounts.FindByID(ctx, token.EntityID)
	if err != nil {
		return 0, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return 0, model.NewAccountMissingError()
	}

	now := s.now()
	if token.IsExpired(now) {
		return 0, model.NewTokenExpiredError()
	}
	if account.IsVerified() {
		return VerifyOutcomeAlreadyVerified, nil
	}
	if token.IsExecuted() {
		return 0, model.NewInvalidTokenError()
	}

	// 並行する検証のうち、トークンを遷移させた1件だけが先へ進む。
	// トークンの使用済み化とアカウントの検証済み化は同一トランザクションで反映される。
	confirmed, err := s.accounts.ConfirmEmail(ctx, account.ID, token.ID, now)
	if err != nil {
		return 0, err
	}
	if !confirmed {
		return 0, model.NewInvalidTokenError()
	}

	slog.InfoContext(ctx, "メールアドレスを検証しました", slog.String("account_id", account.ID))

	s.audit.Record(ctx, account.ID, model.AuditVerifyEmail,
		fmt.Sprintf("User %q verified their email at %s",
			account.Username+" - "+account.Email, now.UTC().Format(time.RFC3339)))

	return VerifyOutcomeVerified, nil
}

// Login は資格情報を検証してセッションを発行する。
// presentedTokenが有効なセッションであれば、ストアに触れずにAlreadyLoggedInを返す。
func (s *Service) Login(ctx context.Context, email, password, presentedToken string) (result *LoginResult, err error) {
	defer func() { s.observe("login", err) }()

	if presentedToken != "" {
		if _, verr := s.sessions.Verify(presentedToken); verr == nil {
			return nil, model.NewAlreadyLoggedInError()
		}
	}

	account, err := s.accounts.FindByEmail(ctx, model.NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	if !account.IsVerified() {
		return nil, model.NewNotVerifiedError()
	}
	if err := s.checkPassword(account, password); err != nil {
		return nil, err
	}

	token, expiresAt, err := s.sessions.Issue(account.ID)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "ログインしました", slog.String("account_id", account.ID))

	s.audit.Record(ctx, account.ID, model.AuditLogin,
		fmt.Sprintf("User %q logged in", account.Username+" - "+account.Email))

	return &LoginResult{Account: account, Token: token, ExpiresAt: expiresAt}, nil
}

// Logout はログアウトを記録する。セッションはステートレスなため、
// 無効化はクライアント側のCookie削除で行う。
func (s *Service) Logout(ctx context.Context, accountID string) (err error) {
	defer func() { s.observe("logout", err) }()

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to find account: %w", err)
	}

	description := "User logged out"
	if account != nil {
		description = fmt.Sprintf("User %q logged out", account.Username+" - "+account.Email)
	}
	s.audit.Record(ctx, accountID, model.AuditLogout, description)

	slog.InfoContext(ctx, "ログアウトしました", slog.String("account_id", accountID))
	return nil
}

// GetAccount は指定IDのアカウントを返す。
func (s *Service) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	return account, nil
}

// UpdateProfile はusernameとemailを更新する。nilのフィールドは変更しない。
// 他のアカウントが使用中の値を指定した場合はProfileConflictを返す。
func (s *Service) UpdateProfile(ctx context.Context, id string, username, email *string) (updated *model.Account, err error) {
	defer func() { s.observe("update_profile", err) }()

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if username == nil && email == nil {
		return account, nil
	}

	old := *account
	var changes []string

	if email != nil {
		normalized := model.NormalizeEmail(*email)
		holder, err := s.accounts.FindByEmail(ctx, normalized)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if holder != nil && holder.ID != id {
			return nil, model.NewProfileConflictError("email")
		}
		account.Email = normalized
		changes = append(changes, fmt.Sprintf("%s to %s", old.Email, account.Email))
	}

	if username != nil {
		trimmed := strings.TrimSpace(*username)
		holder, err := s.accounts.FindByUsername(ctx, trimmed)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if holder != nil && holder.ID != id {
			return nil, model.NewProfileConflictError("username")
		}
		account.Username = trimmed
		changes = append([]string{fmt.Sprintf("%s to %s", old.Username, account.Username)}, changes...)
	}

	account.UpdatedAt = s.now()
	if err := s.accounts.UpdateProfile(ctx, account); err != nil {
		if constraint, ok := repository.DuplicateConstraint(err); ok {
			field := "username"
			if strings.Contains(constraint, "email") {
				field = "email"
			}
			return nil, model.NewProfileConflictError(field)
		}
		return nil, err
	}

	s.audit.Record(ctx, id, model.AuditUpdate,
		"User updated their data:\n"+strings.Join(changes, "\n"))

	return account, nil
}

// DeleteAccount はアカウントと所有する短縮URL・アクショントークンを削除する。
// 監査ログは削除せず残す。
func (s *Service) DeleteAccount(ctx context.Context, id string) (err error) {
	defer func() { s.observe("delete_account", err) }()

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "アカウント削除を開始します", slog.String("account_id", id))

	deleted, err := s.accounts.DeleteWithCascade(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.NewAccountNotFoundError()
	}

	s.audit.Record(ctx, id, model.AuditDelete,
		fmt.Sprintf("User %q deleted their account", account.Username+" - "+account.Email))

	slog.InfoContext(ctx, "アカウント削除が完了しました", slog.String("account_id", id))
	return nil
}

// checkPassword はパスワードを検証し、不一致ならWrongCredentialを返す。
func (s *Service) checkPassword(account *model.Account, password string) error {
	err := s.hasher.Compare(account.PasswordHash, password)
	if errors.Is(err, security.ErrPasswordMismatch) {
		return model.NewWrongCredentialError()
	}
	return err
}

// observe は操作結果をメトリクスに記録する。
func (s *Service) observe(event string, err error) {
	s.metrics.RecordAccountEvent(event, outcomeOf(err))
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return "internal"
}
