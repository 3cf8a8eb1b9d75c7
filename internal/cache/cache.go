// Package cache はTTL付きキー値キャッシュを提供する。
// フィード・候補クエリの読み取りスルーキャッシュと、
// センチメント・要約など導出値のメモ化の両方で使用される。
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache はTTL付きキー値ストアのインターフェース。
// キャッシュは最適化であり正しさの依存ではないため、失敗を返さない。
// バックエンドが利用不能な場合、Getはミス、Set/Deleteは何もしない。
type Cache interface {
	// Get はキーに対応する値を返す。期限切れまたは未登録の場合はミス（false）。
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set は値をTTL付きで登録する。ttl <= 0 の場合は無期限。
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete はキーを削除する。未登録のキーに対しては何もしない。
	Delete(ctx context.Context, key string)
}

// キー名前空間。用途ごとにプレフィックスを分ける。
const (
	nsFeed      = "feed"
	nsSuggest   = "suggest"
	nsSentiment = "sentiment"
	nsSummary   = "summary"
)

// FeedKey はトピックフィードのキャッシュキーを返す。
func FeedKey(topic string) string {
	return fmt.Sprintf("%s:%s", nsFeed, topic)
}

// SuggestKey は検索候補クエリのキャッシュキーを返す。
func SuggestKey(query string) string {
	return fmt.Sprintf("%s:%s", nsSuggest, query)
}

// SentimentKey はセンチメント結果のキャッシュキーを返す。
// 同一テキストは常に同一キーになるよう、入力テキストのハッシュを使用する。
func SentimentKey(text string) string {
	sum := md5.Sum([]byte(text))
	return fmt.Sprintf("%s:%s", nsSentiment, hex.EncodeToString(sum[:]))
}

// SummaryKey は要約結果のキャッシュキーを返す。記事URLのハッシュを使用する。
func SummaryKey(url string) string {
	sum := md5.Sum([]byte(url))
	return fmt.Sprintf("%s:%s", nsSummary, hex.EncodeToString(sum[:]))
}

// Namespace はキーの名前空間プレフィックスを返す。メトリクスのラベルに使用する。
func Namespace(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
