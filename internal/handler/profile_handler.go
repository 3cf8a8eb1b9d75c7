package handler

import (
	"context"
	"net/http"

	"github.com/newsaura/newsaura/internal/middleware"
	"github.com/newsaura/newsaura/internal/model"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// Stats は単純カウントの統計を返す。
	Stats(ctx context.Context, userID string) (*model.AnalyticsTier1, error)
	// Analytics は3ティアの分析ビューを返す。一部ティアの失敗は部分結果になる。
	Analytics(ctx context.Context, userID string) *model.ProfileAnalytics
}

// ProfileHandler はユーザープロフィール分析のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Stats はユーザーの統計カウントを返す。
// GET /api/profile/stats
func (h *ProfileHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Analytics はユーザーの分析ビューを返す。
// GET /api/profile/analytics
func (h *ProfileHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	analytics := h.service.Analytics(r.Context(), userID)
	writeJSON(w, http.StatusOK, analytics)
}
