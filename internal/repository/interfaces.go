// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/newsaura/newsaura/internal/model"
)

// SavedItemRepository は保存アイテム（ブックマーク/後で読む）の永続化インターフェース。
type SavedItemRepository interface {
	// Create は保存アイテムを作成する。
	// 同一 (user_id, article_id, kind) が既に存在する場合はErrDuplicateSavedItemを返す。
	Create(ctx context.Context, item *model.SavedItem) error

	// FindByUserArticleKind はユーザー/記事/種別で保存アイテムを検索する。
	// 見つからない場合はnilを返す。
	FindByUserArticleKind(ctx context.Context, userID, articleID string, kind model.SavedKind) (*model.SavedItem, error)

	// FindByIDAndUser は指定IDの保存アイテムを所有者確認付きで取得する。
	// 見つからない場合はnilを返す。
	FindByIDAndUser(ctx context.Context, id, userID string) (*model.SavedItem, error)

	// ListByUser はユーザーの保存アイテム一覧を作成日時降順で返す。
	// kindがnilの場合は全種別を返す。
	ListByUser(ctx context.Context, userID string, kind *model.SavedKind) ([]*model.SavedItem, error)

	// DeleteByIDAndUser は指定IDの保存アイテムを所有者確認付きで削除する。
	// 削除された行が存在したかを返す。
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)

	// CountByUserAndKind はユーザーの種別ごとの保存数を返す。
	CountByUserAndKind(ctx context.Context, userID string, kind model.SavedKind) (int, error)

	// CategoryStats はユーザーの保存アイテムをカテゴリ別に集計する。
	// 各カテゴリの件数と最古の保存日時を返す。件数降順、同数なら最古保存日時の昇順。
	CategoryStats(ctx context.Context, userID string) ([]CategoryStat, error)

	// SentimentCounts はユーザーの保存アイテムのセンチメントラベル別件数を返す。
	// ラベル未設定（nil）の行はNeutralに計上する。
	SentimentCounts(ctx context.Context, userID string) (*model.SentimentBreakdown, error)
}

// ActivityRepository はユーザー行動ログの永続化インターフェース。
// レコードは追記専用であり更新APIを持たない。
type ActivityRepository interface {
	// Append は行動レコードを追記する。
	Append(ctx context.Context, record *model.ActivityRecord) error

	// CountByUserAndKind はユーザーの種別ごとの行動数を返す。
	CountByUserAndKind(ctx context.Context, userID string, kind model.ActivityKind) (int, error)

	// LastCreatedAt はユーザーの最新の行動日時を返す。行動がない場合はnilを返す。
	LastCreatedAt(ctx context.Context, userID string) (*time.Time, error)

	// CreatedAtsSince は指定日時以降のユーザー行動の発生日時一覧を返す。
	// 週次アクティビティの集計に使用する。
	CreatedAtsSince(ctx context.Context, userID string, since time.Time) ([]time.Time, error)

	// DeleteOlderThan は指定日時より古いレコードを全ユーザー分削除し、削除件数を返す。
	// 保持期間を超えたログの定期削除に使用する。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CommentRepository は記事コメントの永続化インターフェース。
type CommentRepository interface {
	// Create はコメントを作成する。
	Create(ctx context.Context, comment *model.Comment) error

	// ListByArticle は記事のコメント一覧を作成日時昇順で返す。
	ListByArticle(ctx context.Context, articleID string) ([]*model.Comment, error)

	// DeleteByIDAndUser は指定IDのコメントを所有者確認付きで削除する。
	// 削除された行が存在したかを返す。
	DeleteByIDAndUser(ctx context.Context, id, userID string) (bool, error)
}

// CategoryStat はカテゴリ別の保存集計。FirstSavedAtは同数カテゴリの順位決定に使う。
type CategoryStat struct {
	Category     model.Topic
	Count        int
	FirstSavedAt time.Time
}
