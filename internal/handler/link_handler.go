package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/linkgate/internal/model"
	"github.com/hitoshi/linkgate/internal/validation"
)

// LinkServiceInterface は短縮URLハンドラーが必要とするサービスインターフェース。
type LinkServiceInterface interface {
	Shorten(ctx context.Context, longURL, desiredCode, ownerID string) (*model.ShortLink, error)
	Resolve(ctx context.Context, code string) (string, error)
	Redirect(ctx context.Context, code, viewerID string) (string, error)
	ListForOwner(ctx context.Context, ownerID string) ([]*model.ShortLink, error)
	UpdateCode(ctx context.Context, linkID, newCode, requesterID string) (*model.ShortLink, error)
	Delete(ctx context.Context, linkID, requesterID string) error
}

// LinkHandler は短縮URL管理のHTTPハンドラー。
type LinkHandler struct {
	service   LinkServiceInterface
	validator RequestValidator
}

// NewLinkHandler はLinkHandlerを生成する。
func NewLinkHandler(service LinkServiceInterface, validator RequestValidator) *LinkHandler {
	return &LinkHandler{
		service:   service,
		validator: validator,
	}
}

// shortenRequest は短縮URL作成リクエストのボディ。
type shortenRequest struct {
	LongURL         string `json:"longURL"`
	CustomShortCode string `json:"customShortCode"`
}

// updateLinkRequest は短縮コード変更リクエストのボディ。
type updateLinkRequest struct {
	CustomShortCode string `json:"customShortCode"`
}

type longURLResponse struct {
	LongURL string `json:"longURL"`
}

// Shorten は短縮URLを作成する。
// POST /url/shorten
func (h *LinkHandler) Shorten(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req shortenRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	input := validation.Input{"longURL": req.LongURL}
	if req.CustomShortCode != "" {
		input["customShortCode"] = req.CustomShortCode
	}
	if writeViolations(w, h.validator.Validate(validation.KindShorten, input)) {
		return
	}

	link, err := h.service.Shorten(r.Context(), req.LongURL, req.CustomShortCode, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toLinkResponse(link))
}

// Redirect は短縮コードの元URLへ302でリダイレクトする。
// GET /url/{code}
func (h *LinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	code := chi.URLParam(r, "code")
	if writeViolations(w, h.validator.Validate(validation.KindRedirect, validation.Input{"shortCode": code})) {
		return
	}

	longURL, err := h.service.Redirect(r.Context(), code, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, longURL, http.StatusFound)
}

// ShowLongURL は短縮コードの元URLを返す。認証不要。
// GET /url/{code}/show-long-url
func (h *LinkHandler) ShowLongURL(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if writeViolations(w, h.validator.Validate(validation.KindShowLongURL, validation.Input{"shortCode": code})) {
		return
	}

	longURL, err := h.service.Resolve(r.Context(), code)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, longURLResponse{LongURL: longURL})
}

// ListOwned はログインユーザーの短縮URL一覧を返す。該当なしは空配列。
// GET /url/list/logged-user
func (h *LinkHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	links, err := h.service.ListForOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	resp := make([]linkResponse, 0, len(links))
	for _, l := range links {
		resp = append(resp, toLinkResponse(l))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Update は短縮コードを変更する。
// PATCH /url/update/{id}
func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateLinkRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeInvalidBody(w)
		return
	}

	linkID := chi.URLParam(r, "id")
	if writeViolations(w, h.validator.Validate(validation.KindUpdateLink, validation.Input{
		"shortURLId":      linkID,
		"customShortCode": req.CustomShortCode,
	})) {
		return
	}

	link, err := h.service.UpdateCode(r.Context(), linkID, req.CustomShortCode, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toLinkResponse(link))
}

// Delete は短縮URLを削除する。
// DELETE /url/delete/{id}
func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	linkID := chi.URLParam(r, "id")
	if writeViolations(w, h.validator.Validate(validation.KindDeleteLink, validation.Input{"shortURLId": linkID})) {
		return
	}

	if err := h.service.Delete(r.Context(), linkID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Short URL deleted successfully"})
}
