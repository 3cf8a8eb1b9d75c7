package model

import "time"

// ProfileAnalytics はユーザーアクティビティから導出される分析ビュー。
// 永続化されず、リクエストごとに再計算される。
// 下位ストアの一部が読めない場合、失敗したティアのみnilになる（部分結果）。
type ProfileAnalytics struct {
	Tier1 *AnalyticsTier1 `json:"tier1"`
	Tier2 *AnalyticsTier2 `json:"tier2"`
	Tier3 *AnalyticsTier3 `json:"tier3"`
}

// AnalyticsTier1 は単純カウントのティア。
type AnalyticsTier1 struct {
	ArticlesRead int        `json:"articles_read"`
	Bookmarks    int        `json:"bookmarks"`
	ReadLater    int        `json:"read_later"`
	TotalSaved   int        `json:"total_saved"`
	LastActiveAt *time.Time `json:"last_active_at"`
}

// CategoryCount はカテゴリ別の保存数。
type CategoryCount struct {
	Category Topic `json:"category"`
	Count    int   `json:"count"`
}

// DayActivity は日別のアクティビティ数。
type DayActivity struct {
	Day   string `json:"day"` // 曜日ラベル（Mon, Tue, ...）
	Count int    `json:"count"`
}

// AnalyticsTier2 はカテゴリ/時間の内訳ティア。
type AnalyticsTier2 struct {
	TopCategory       Topic           `json:"top_category"`
	CategoryBreakdown []CategoryCount `json:"category_breakdown"`
	WeeklyActivity    []DayActivity   `json:"weekly_activity"`
}

// SentimentBreakdown は保存記事のセンチメント集計。
type SentimentBreakdown struct {
	Positive int `json:"Positive"`
	Neutral  int `json:"Neutral"`
	Negative int `json:"Negative"`
}

// AnalyticsTier3 は導出スコアのティア。
type AnalyticsTier3 struct {
	SentimentBreakdown *SentimentBreakdown `json:"sentiment_breakdown"`
	EngagementScore    int                 `json:"engagement_score"`
	EngagementLabel    string              `json:"engagement_label"`
}
