package model

import "time"

// ActivityKind はユーザー行動の種別を表す。
type ActivityKind string

const (
	ActivityBookmarkAdded    ActivityKind = "bookmark_added"
	ActivityBookmarkRemoved  ActivityKind = "bookmark_removed"
	ActivityReadLaterAdded   ActivityKind = "read_later_added"
	ActivityReadLaterRemoved ActivityKind = "read_later_removed"
	ActivitySummaryViewed    ActivityKind = "summary_viewed"
	ActivityCommentPosted    ActivityKind = "comment_posted"
)

// ActivityRecord はユーザー行動の追記専用ログレコードを表す。
// 生成したユーザーのみが所有し、変更されることはない。
// ブックマーク/後で読むの取り消しは対になる削除レコードの追記で表現される。
type ActivityRecord struct {
	ID        string
	UserID    string
	Kind      ActivityKind
	ArticleID string
	Category  Topic
	CreatedAt time.Time
}
