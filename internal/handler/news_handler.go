// Package handler はHTTP APIハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newsaura/newsaura/internal/feed"
	"github.com/newsaura/newsaura/internal/model"
	"github.com/newsaura/newsaura/internal/upstream"
)

// NewsServiceInterface はニュースハンドラーが必要とするサービスインターフェース。
type NewsServiceInterface interface {
	// GetTopicFeed はトピック別のフィードを取得する。
	GetTopicFeed(ctx context.Context, topic string) (*feed.FeedPage, error)
	// GetSuggestions はキーワード検索の候補記事を取得する。
	GetSuggestions(ctx context.Context, query string) (*feed.FeedPage, error)
	// Refresh は指定トピックのキャッシュを破棄して再取得する。
	Refresh(ctx context.Context, topic string) (*feed.RefreshResult, error)
	// RefreshAll は全トピックを順にリフレッシュする。
	RefreshAll(ctx context.Context) *feed.RefreshAllResult
}

// QuotaReporter は上流APIクォータの使用状況を報告するインターフェース。
type QuotaReporter interface {
	Status() upstream.QuotaStatus
}

// NewsHandler はニュースフィードのHTTPハンドラー。
type NewsHandler struct {
	service NewsServiceInterface
	quota   QuotaReporter
}

// NewNewsHandler はNewsHandlerを生成する。
func NewNewsHandler(service NewsServiceInterface, quota QuotaReporter) *NewsHandler {
	return &NewsHandler{
		service: service,
		quota:   quota,
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// GetTopicFeed はトピック別のフィードを返す。
// GET /api/news/topic/:topic
func (h *NewsHandler) GetTopicFeed(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	page, err := h.service.GetTopicFeed(r.Context(), topic)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Suggest はキーワード検索の候補記事を返す。
// GET /api/news/suggest?q=keyword
func (h *NewsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	page, err := h.service.GetSuggestions(r.Context(), query)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Refresh は指定トピックのキャッシュを破棄して上流から再取得する。
// POST /api/news/refresh/:topic
func (h *NewsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")

	result, err := h.service.Refresh(r.Context(), topic)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RefreshAll は全トピックを順にリフレッシュする。
// POST /api/news/refresh-all
func (h *NewsHandler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	result := h.service.RefreshAll(r.Context())
	writeJSON(w, http.StatusOK, result)
}

// Quota は上流APIクォータの使用状況を返す。
// GET /api/news/quota
func (h *NewsHandler) Quota(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.quota.Status())
}

// --- ヘルパー関数 ---

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorizedResponse はユーザーID未設定時の401レスポンスを書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidRequestResponse はリクエストボディ解析失敗時の400レスポンスを書き込む。
func writeInvalidRequestResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidTopic,
		model.ErrCodeQueryTooShort,
		model.ErrCodeTextTooShort,
		model.ErrCodeURLRequired,
		model.ErrCodeInvalidSavedKind:
		return http.StatusBadRequest
	case model.ErrCodeUpstreamQuota:
		return http.StatusTooManyRequests
	case model.ErrCodeUpstreamTransient,
		model.ErrCodeUpstreamInvalidResponse,
		model.ErrCodeSummarizationFailed:
		return http.StatusBadGateway
	case model.ErrCodeAlreadySaved:
		return http.StatusConflict
	case model.ErrCodeSavedItemNotFound, model.ErrCodeCommentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
