// Package model はドメインモデルを定義する。
package model

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// Article は外部ニュースプロバイダから取得した正規化済みの記事を表す。
// 永続化されず、フェッチごとに生成される一時的なモデル。
// 保存操作（ブックマーク/後で読む）ではIDとURLのみが参照される。
type Article struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Content     string           `json:"content,omitempty"` // ペイウォールにより欠落しうる
	ImageURL    string           `json:"image_url,omitempty"`
	SourceName  string           `json:"source"`
	URL         string           `json:"source_url"`
	Category    Topic            `json:"category"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
	Sentiment   *SentimentResult `json:"sentiment,omitempty"` // スコアリング後に付与される
}

// Topic はニュースのトピック（カテゴリ）を表す。
type Topic string

const (
	TopicGeneral       Topic = "general"
	TopicNation        Topic = "nation"
	TopicBusiness      Topic = "business"
	TopicTechnology    Topic = "technology"
	TopicSports        Topic = "sports"
	TopicEntertainment Topic = "entertainment"
	TopicHealth        Topic = "health"
)

// AllTopics は対応する全トピックのリスト。refresh-allの走査順もこの順に従う。
var AllTopics = []Topic{
	TopicGeneral,
	TopicNation,
	TopicBusiness,
	TopicTechnology,
	TopicSports,
	TopicEntertainment,
	TopicHealth,
}

// IsValidTopic はトピックが対応済みの固定集合に含まれるかを返す。
func IsValidTopic(topic string) bool {
	for _, t := range AllTopics {
		if string(t) == topic {
			return true
		}
	}
	return false
}

// ArticleIDFromURL は記事URLから安定した記事IDを導出する。
// 同一ストーリーの再フェッチでもキャッシュキーと重複判定が一致するよう、
// URLのmd5ハッシュ（hex）を使用する。
func ArticleIDFromURL(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}
