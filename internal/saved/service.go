// Package saved はブックマーク/後で読むとコメントの管理サービスを提供する。
package saved

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/newsaura/newsaura/internal/model"
	"github.com/newsaura/newsaura/internal/repository"
)

// activityKindFor は保存操作に対応する行動種別を返す。
func activityKindFor(kind model.SavedKind, removed bool) model.ActivityKind {
	switch {
	case kind == model.SavedKindBookmark && removed:
		return model.ActivityBookmarkRemoved
	case kind == model.SavedKindBookmark:
		return model.ActivityBookmarkAdded
	case removed:
		return model.ActivityReadLaterRemoved
	default:
		return model.ActivityReadLaterAdded
	}
}

// Service は保存アイテムとコメントの管理サービス。
type Service struct {
	savedRepo    repository.SavedItemRepository
	activityRepo repository.ActivityRepository
	commentRepo  repository.CommentRepository
	logger       *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	savedRepo repository.SavedItemRepository,
	activityRepo repository.ActivityRepository,
	commentRepo repository.CommentRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		savedRepo:    savedRepo,
		activityRepo: activityRepo,
		commentRepo:  commentRepo,
		logger:       logger,
	}
}

// AddRequest は保存アイテム作成の入力。
type AddRequest struct {
	UserID         string
	ArticleID      string
	Kind           string
	Title          string
	Source         string
	URL            string
	ImageURL       string
	Category       string
	SentimentLabel *model.SentimentLabel
}

// Add は記事をブックマークまたは後で読むに保存する。
// 同一 (user, article, kind) の再保存はALREADY_SAVEDエラーになる。
// ArticleIDが空の場合はURLから導出する。
func (s *Service) Add(ctx context.Context, req AddRequest) (*model.SavedItem, error) {
	if !model.IsValidSavedKind(req.Kind) {
		return nil, model.NewInvalidSavedKindError(req.Kind)
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, model.NewURLRequiredError()
	}
	kind := model.SavedKind(req.Kind)

	articleID := req.ArticleID
	if articleID == "" {
		articleID = model.ArticleIDFromURL(req.URL)
	}

	category := model.TopicGeneral
	if model.IsValidTopic(req.Category) {
		category = model.Topic(req.Category)
	}

	// 再保存は挿入前に検出する。同時リクエストの競合はユニーク制約が防ぐ。
	existing, err := s.savedRepo.FindByUserArticleKind(ctx, req.UserID, articleID, kind)
	if err != nil {
		return nil, fmt.Errorf("保存アイテムの重複確認に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewAlreadySavedError(kind)
	}

	item := &model.SavedItem{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		ArticleID:      articleID,
		Kind:           kind,
		Title:          req.Title,
		Source:         req.Source,
		URL:            req.URL,
		ImageURL:       req.ImageURL,
		Category:       category,
		SentimentLabel: req.SentimentLabel,
		CreatedAt:      time.Now(),
	}

	if err := s.savedRepo.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrDuplicateSavedItem) {
			return nil, model.NewAlreadySavedError(kind)
		}
		return nil, fmt.Errorf("保存アイテムの作成に失敗しました: %w", err)
	}

	s.appendActivity(ctx, req.UserID, activityKindFor(kind, false), articleID, category)

	s.logger.Info("記事を保存しました",
		slog.String("user_id", req.UserID),
		slog.String("article_id", articleID),
		slog.String("kind", string(kind)),
	)
	return item, nil
}

// List はユーザーの保存アイテム一覧を返す。
// kindが空文字列の場合は全種別、指定時は種別で絞り込む。
func (s *Service) List(ctx context.Context, userID, kind string) ([]*model.SavedItem, error) {
	var filter *model.SavedKind
	if kind != "" {
		if !model.IsValidSavedKind(kind) {
			return nil, model.NewInvalidSavedKindError(kind)
		}
		k := model.SavedKind(kind)
		filter = &k
	}

	items, err := s.savedRepo.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("保存アイテム一覧の取得に失敗しました: %w", err)
	}
	if items == nil {
		items = []*model.SavedItem{}
	}
	return items, nil
}

// Remove は保存アイテムを削除する。
// 対象が存在しない、または他ユーザーの所有物の場合はSAVED_ITEM_NOT_FOUND。
// 削除は行動ログ上では対になる削除レコードの追記として表現される。
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	// 行動ログ用に削除前の内容を取得する
	target, err := s.savedRepo.FindByIDAndUser(ctx, itemID, userID)
	if err != nil {
		return fmt.Errorf("保存アイテムの取得に失敗しました: %w", err)
	}
	if target == nil {
		return model.NewSavedItemNotFoundError(itemID)
	}

	deleted, err := s.savedRepo.DeleteByIDAndUser(ctx, itemID, userID)
	if err != nil {
		return fmt.Errorf("保存アイテムの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewSavedItemNotFoundError(itemID)
	}

	s.appendActivity(ctx, userID, activityKindFor(target.Kind, true), target.ArticleID, target.Category)
	return nil
}

// AddComment は記事へコメントを投稿する。
func (s *Service) AddComment(ctx context.Context, userID, articleID, body string) (*model.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" || strings.TrimSpace(articleID) == "" {
		return nil, model.NewTextTooShortError()
	}

	comment := &model.Comment{
		ID:        uuid.NewString(),
		UserID:    userID,
		ArticleID: articleID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	s.appendActivity(ctx, userID, model.ActivityCommentPosted, articleID, "")
	return comment, nil
}

// ListComments は記事のコメント一覧を返す。
func (s *Service) ListComments(ctx context.Context, articleID string) ([]*model.Comment, error) {
	comments, err := s.commentRepo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	if comments == nil {
		comments = []*model.Comment{}
	}
	return comments, nil
}

// DeleteComment はコメントを所有者確認付きで削除する。
func (s *Service) DeleteComment(ctx context.Context, userID, commentID string) error {
	deleted, err := s.commentRepo.DeleteByIDAndUser(ctx, commentID, userID)
	if err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewCommentNotFoundError(commentID)
	}
	return nil
}

// appendActivity は行動ログを追記する。操作本体は成功しているため失敗は警告に留める。
func (s *Service) appendActivity(ctx context.Context, userID string, kind model.ActivityKind, articleID string, category model.Topic) {
	record := &model.ActivityRecord{
		ID:        uuid.NewString(),
		UserID:    userID,
		Kind:      kind,
		ArticleID: articleID,
		Category:  category,
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Append(ctx, record); err != nil {
		s.logger.Warn("行動ログの追記に失敗しました",
			slog.String("user_id", userID),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
	}
}
