package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/newsaura/newsaura/internal/feed"
	"github.com/newsaura/newsaura/internal/middleware"
	"github.com/newsaura/newsaura/internal/model"
)

// ScoringServiceInterface はスコアリングハンドラーが必要とするサービスインターフェース。
type ScoringServiceInterface interface {
	// ScoreText は任意テキストのセンチメントを分析する。
	ScoreText(ctx context.Context, text string) (*model.SentimentResult, error)
	// GetSummary は記事の要約をフォールバック連鎖で取得する。
	GetSummary(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error)
}

// ScoringHandler はセンチメント分析と要約のHTTPハンドラー。
type ScoringHandler struct {
	service ScoringServiceInterface
}

// NewScoringHandler はScoringHandlerを生成する。
func NewScoringHandler(service ScoringServiceInterface) *ScoringHandler {
	return &ScoringHandler{service: service}
}

// sentimentRequest はセンチメント分析リクエストのボディ。
type sentimentRequest struct {
	Text string `json:"text"`
}

// summaryRequest は要約取得リクエストのボディ。
// ContentとDescriptionはクライアントが既に持っている上流記事のフィールドで、
// 本文スクレイプ失敗時のフォールバックに使われる。
type summaryRequest struct {
	URL         string `json:"url"`
	Content     string `json:"content,omitempty"`
	Description string `json:"description,omitempty"`
}

// summaryResponse は要約取得のAPIレスポンス。
type summaryResponse struct {
	Summary    string `json:"summary"`
	Source     string `json:"source"`
	IsFallback bool   `json:"is_fallback"`
}

// ScoreSentiment は任意テキストのセンチメントを返す。
// POST /api/sentiment
func (h *ScoringHandler) ScoreSentiment(w http.ResponseWriter, r *http.Request) {
	var req sentimentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	result, err := h.service.ScoreText(r.Context(), req.Text)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetSummary は記事の要約を返す。
// POST /api/summary
func (h *ScoringHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req summaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	result, err := h.service.GetSummary(r.Context(), feed.SummaryRequest{
		UserID:      userID,
		URL:         req.URL,
		Content:     req.Content,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Summary:    result.Summary,
		Source:     string(result.Provenance),
		IsFallback: result.IsFallback(),
	})
}
