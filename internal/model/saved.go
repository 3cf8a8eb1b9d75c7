package model

import "time"

// SavedKind は保存アイテムの種別（ブックマーク/後で読む）を表す。
type SavedKind string

const (
	// SavedKindBookmark はブックマークを表す。
	SavedKindBookmark SavedKind = "bookmark"
	// SavedKindReadLater は「後で読む」を表す。
	SavedKindReadLater SavedKind = "read_later"
)

// IsValidSavedKind は保存種別が対応済みかを返す。
func IsValidSavedKind(kind string) bool {
	return kind == string(SavedKindBookmark) || kind == string(SavedKindReadLater)
}

// SavedItem はユーザーが保存した記事（ブックマークまたは後で読む）を表す。
// (user_id, article_id, kind) で一意。再保存は重複エラーになる。
type SavedItem struct {
	ID             string
	UserID         string
	ArticleID      string
	Kind           SavedKind
	Title          string
	Source         string
	URL            string
	ImageURL       string
	Category       Topic
	SentimentLabel *SentimentLabel // 保存時点の記事センチメント（未スコアならnil）
	CreatedAt      time.Time
}

// Comment は記事へのユーザーコメントを表す。
type Comment struct {
	ID        string
	UserID    string
	ArticleID string
	Body      string
	CreatedAt time.Time
}
