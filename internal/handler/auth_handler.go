package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/linkgate/internal/account"
	"github.com/hitoshi/linkgate/internal/middleware"
	"github.com/hitoshi/linkgate/internal/validation"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, username, email, password string) (*account.RegistrationResult, error)
	ResendVerificationToken(ctx context.Context, email, password string) (*account.RegistrationResult, error)
	VerifyEmail(ctx context.Context, tokenID string) (account.VerifyOutcome, error)
	Login(ctx context.Context, email, password, presentedToken string) (*account.LoginResult, error)
	Logout(ctx context.Context, accountID string) error
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler はアカウント登録・メール検証・ログインのHTTPハンドラー。
type AuthHandler struct {
	service   AuthServiceInterface
	validator RequestValidator
	config    AuthHandlerConfig
	now       func() time.Time
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, validator RequestValidator, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:   service,
		validator: validator,
		config:    config,
		now:       time.Now,
	}
}

// credentialsRequest は登録・ログイン・検証トークン再送リクエストのボディ。
type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	User              accountResponse `json:"user"`
	VerificationToken string          `json:"verificationToken"`
	VerificationURL   string          `json:"verificationURL"`
}

type resendResponse struct {
	VerificationToken string `json:"verificationToken"`
	VerificationURL   string `json:"verificationURL"`
}

type loginResponse struct {
	User     accountResponse `json:"user"`
	JwtToken string          `json:"JwtToken"`
}

// Register はアカウント登録を処理する。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	if writeViolations(w, h.validator.Validate(validation.KindRegister, validation.Input{
		"email":    req.Email,
		"username": req.Username,
		"password": req.Password,
	})) {
		return
	}

	result, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		User:              toAccountResponse(result.Account),
		VerificationToken: result.Token.ID,
		VerificationURL:   result.VerificationURL,
	})
}

// ResendVerifyToken は検証トークンを再発行する。
// 資格情報はJSONボディ、なければクエリパラメータから読み取る。
// GET /auth/resend-verify-token
func (h *AuthHandler) ResendVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}
	q := r.URL.Query()
	if req.Email == "" {
		req.Email = q.Get("email")
	}
	if req.Password == "" {
		req.Password = q.Get("password")
	}

	if writeViolations(w, h.validator.Validate(validation.KindResendToken, validation.Input{
		"email":    req.Email,
		"password": req.Password,
	})) {
		return
	}

	result, err := h.service.ResendVerificationToken(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if result.AlreadyVerified {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Email already verified"})
		return
	}

	writeJSON(w, http.StatusOK, resendResponse{
		VerificationToken: result.Token.ID,
		VerificationURL:   result.VerificationURL,
	})
}

// VerifyEmail はメール検証トークンを消費する。
// GET /auth/verify-email/{token}
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if writeViolations(w, h.validator.Validate(validation.KindVerifyEmail, validation.Input{
		"token": token,
	})) {
		return
	}

	outcome, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if outcome == account.VerifyOutcomeAlreadyVerified {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Email already verified"})
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Email verified successfully"})
}

// Login は資格情報を検証し、セッショントークンをCookieとボディで返す。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	if writeViolations(w, h.validator.Validate(validation.KindLogin, validation.Input{
		"email":    req.Email,
		"password": req.Password,
	})) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, middleware.TokenFromRequest(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	maxAge := int(result.ExpiresAt.Sub(h.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}

	// セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    result.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, loginResponse{
		User:     toAccountResponse(result.Account),
		JwtToken: result.Token,
	})
}

// Logout はログアウトを記録し、セッションCookieをクリアする。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	h.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
