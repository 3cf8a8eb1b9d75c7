package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/newsaura/newsaura/internal/middleware"
	"github.com/newsaura/newsaura/internal/model"
	"github.com/newsaura/newsaura/internal/saved"
)

// SavedServiceInterface は保存アイテムハンドラーが必要とするサービスインターフェース。
type SavedServiceInterface interface {
	// Add は記事をブックマークまたは後で読むとして保存する。
	Add(ctx context.Context, req saved.AddRequest) (*model.SavedItem, error)
	// List はユーザーの保存アイテムを新しい順に返す。kindが空の場合は全件。
	List(ctx context.Context, userID, kind string) ([]*model.SavedItem, error)
	// Remove は保存アイテムを削除し、対になる削除レコードを行動ログに追記する。
	Remove(ctx context.Context, userID, itemID string) error
	// AddComment は記事にコメントを投稿する。
	AddComment(ctx context.Context, userID, articleID, body string) (*model.Comment, error)
	// ListComments は記事のコメントを古い順に返す。
	ListComments(ctx context.Context, articleID string) ([]*model.Comment, error)
	// DeleteComment は自分のコメントを削除する。
	DeleteComment(ctx context.Context, userID, commentID string) error
}

// SavedHandler は保存アイテムとコメントのHTTPハンドラー。
type SavedHandler struct {
	service SavedServiceInterface
}

// NewSavedHandler はSavedHandlerを生成する。
func NewSavedHandler(service SavedServiceInterface) *SavedHandler {
	return &SavedHandler{service: service}
}

// articlePayload は保存リクエストに含まれる記事スナップショット。
type articlePayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Source    string `json:"source"`
	URL       string `json:"source_url"`
	ImageURL  string `json:"image_url"`
	Category  string `json:"category"`
	Sentiment *struct {
		Label string `json:"label"`
	} `json:"sentiment,omitempty"`
}

// addSavedRequest は記事保存リクエストのボディ。
type addSavedRequest struct {
	Kind    string         `json:"kind"`
	Article articlePayload `json:"article"`
}

// savedItemResponse は保存アイテムのAPIレスポンス。
type savedItemResponse struct {
	ID             string    `json:"id"`
	ArticleID      string    `json:"article_id"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Source         string    `json:"source"`
	URL            string    `json:"source_url"`
	ImageURL       string    `json:"image_url,omitempty"`
	Category       string    `json:"category"`
	SentimentLabel *string   `json:"sentiment_label,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// savedListResponse は保存アイテム一覧のAPIレスポンス。
type savedListResponse struct {
	Count int                 `json:"count"`
	Items []savedItemResponse `json:"items"`
}

// addCommentRequest はコメント投稿リクエストのボディ。
type addCommentRequest struct {
	ArticleID string `json:"article_id"`
	Body      string `json:"body"`
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// commentListResponse はコメント一覧のAPIレスポンス。
type commentListResponse struct {
	Count    int               `json:"count"`
	Comments []commentResponse `json:"comments"`
}

// Add は記事を保存する。
// POST /api/saved
func (h *SavedHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req addSavedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	addReq := saved.AddRequest{
		UserID:    userID,
		ArticleID: req.Article.ID,
		Kind:      req.Kind,
		Title:     req.Article.Title,
		Source:    req.Article.Source,
		URL:       req.Article.URL,
		ImageURL:  req.Article.ImageURL,
		Category:  req.Article.Category,
	}
	if req.Article.Sentiment != nil {
		label := model.SentimentLabel(req.Article.Sentiment.Label)
		addReq.SentimentLabel = &label
	}

	item, err := h.service.Add(r.Context(), addReq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toSavedItemResponse(item))
}

// List はユーザーの保存アイテム一覧を返す。
// GET /api/saved?kind=bookmark|read_later
func (h *SavedHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	kind := r.URL.Query().Get("kind")

	items, err := h.service.List(r.Context(), userID, kind)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := savedListResponse{
		Count: len(items),
		Items: make([]savedItemResponse, 0, len(items)),
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toSavedItemResponse(item))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Remove は保存アイテムを削除する。
// DELETE /api/saved/:id
func (h *SavedHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	itemID := chi.URLParam(r, "id")

	if err := h.service.Remove(r.Context(), userID, itemID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddComment は記事にコメントを投稿する。
// POST /api/comments
func (h *SavedHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestResponse(w)
		return
	}

	comment, err := h.service.AddComment(r.Context(), userID, req.ArticleID, req.Body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// ListComments は記事のコメント一覧を返す。
// GET /api/comments/:articleID
func (h *SavedHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	articleID := chi.URLParam(r, "articleID")

	comments, err := h.service.ListComments(r.Context(), articleID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := commentListResponse{
		Count:    len(comments),
		Comments: make([]commentResponse, 0, len(comments)),
	}
	for _, comment := range comments {
		resp.Comments = append(resp.Comments, toCommentResponse(comment))
	}

	writeJSON(w, http.StatusOK, resp)
}

// DeleteComment は自分のコメントを削除する。
// DELETE /api/comments/:id
func (h *SavedHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	commentID := chi.URLParam(r, "id")

	if err := h.service.DeleteComment(r.Context(), userID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toSavedItemResponse はmodel.SavedItemからAPIレスポンスに変換する。
func toSavedItemResponse(item *model.SavedItem) savedItemResponse {
	resp := savedItemResponse{
		ID:        item.ID,
		ArticleID: item.ArticleID,
		Kind:      string(item.Kind),
		Title:     item.Title,
		Source:    item.Source,
		URL:       item.URL,
		ImageURL:  item.ImageURL,
		Category:  string(item.Category),
		CreatedAt: item.CreatedAt,
	}
	if item.SentimentLabel != nil {
		label := string(*item.SentimentLabel)
		resp.SentimentLabel = &label
	}
	return resp
}

// toCommentResponse はmodel.CommentからAPIレスポンスに変換する。
func toCommentResponse(comment *model.Comment) commentResponse {
	return commentResponse{
		ID:        comment.ID,
		UserID:    comment.UserID,
		ArticleID: comment.ArticleID,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}
