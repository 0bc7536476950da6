package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/linkgate/internal/middleware"
)

// HealthChecker はヘルスチェックに必要なインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	SessionVerifier    middleware.SessionVerifier
	HTTPObserver       middleware.HTTPObserver
	CORSAllowedOrigins []string
	HSTS               bool

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	Validator RequestValidator

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 短縮URL
	LinkService LinkServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → (Session)
//
// Sessionは認証が必要なルートのグループにのみ適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPObserver != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPObserver))
	}
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.HSTS))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	authHandler := NewAuthHandler(deps.AuthService, deps.Validator, deps.AuthConfig)
	linkHandler := NewLinkHandler(deps.LinkService, deps.Validator)
	userHandler := NewUserHandler(deps.UserService, deps.Validator)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Post("/auth/register", authHandler.Register)
	r.Get("/auth/resend-verify-token", authHandler.ResendVerifyToken)
	r.Get("/auth/verify-email/{token}", authHandler.VerifyEmail)
	r.Post("/auth/login", authHandler.Login)

	r.Get("/url/{code}/show-long-url", linkHandler.ShowLongURL)
	r.Get("/users/{id}", userHandler.Show)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionVerifier))

		r.Post("/auth/logout", authHandler.Logout)

		// 短縮URL管理
		r.Post("/url/shorten", linkHandler.Shorten)
		r.Get("/url/list/logged-user", linkHandler.ListOwned)
		r.Patch("/url/update/{id}", linkHandler.Update)
		r.Delete("/url/delete/{id}", linkHandler.Delete)
		r.Get("/url/{code}", linkHandler.Redirect)

		// ユーザー管理
		r.Patch("/users", userHandler.Update)
		r.Delete("/users/me", userHandler.Withdraw)
	})

	return r
}

// healthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Warn("health check failed", slog.String("error", err.Error()))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
