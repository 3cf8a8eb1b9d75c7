// Package upstream は外部ニュースプロバイダへのクライアントアダプタを提供する。
// プロバイダの応答を統一されたArticle形へ正規化し、
// レート制限と一時的障害の分類をこの境界に閉じ込める。
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/newsaura/newsaura/internal/metrics"
	"github.com/newsaura/newsaura/internal/model"
)

// Provider は外部ニュースソースの統一インターフェース。
// 実装はネットワークI/O以外の副作用を持たずステートレスであること。
type Provider interface {
	// FetchTopic はトピック別のトップ記事を取得する。
	FetchTopic(ctx context.Context, topic model.Topic, maxItems int) ([]model.Article, error)
	// Search はキーワード検索で記事を取得する。検索候補フィードで使用する。
	Search(ctx context.Context, query string, maxItems int) ([]model.Article, error)
}

// FieldSanitizer は上流由来テキストのサニタイズインターフェース。
type FieldSanitizer interface {
	SanitizeText(raw string) string
}

// Client はGNews系JSON APIのクライアント。
// 応答は明示的な構造体として境界でパースし、未知の形は即座に拒否する。
// タイトルまたはURLを欠く不完全な記事はバッチ全体を失敗させず破棄する。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	sanitizer  FieldSanitizer
	quota      *QuotaCounter
	metrics    metrics.MetricsCollector
	pacer      *rate.Limiter

	apiKey  string
	baseURL string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// pacerは連続呼び出し（refresh-all等）がプロバイダへバーストしないよう呼び出しを平滑化する。
func NewClient(httpClient *http.Client, logger *slog.Logger, sanitizer FieldSanitizer, quota *QuotaCounter, collector metrics.MetricsCollector, apiKey, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		sanitizer:  sanitizer,
		quota:      quota,
		metrics:    collector,
		pacer:      rate.NewLimiter(rate.Limit(1), 2),
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// apiResponse はプロバイダのトップレベル応答形。
type apiResponse struct {
	TotalArticles int          `json:"totalArticles"`
	Articles      []apiArticle `json:"articles"`
}

// apiArticle はプロバイダの記事応答形。
type apiArticle struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Image       string    `json:"image"`
	PublishedAt string    `json:"publishedAt"`
	Source      apiSource `json:"source"`
}

type apiSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// FetchTopic はトピック別のトップ記事を取得する。
func (c *Client) FetchTopic(ctx context.Context, topic model.Topic, maxItems int) ([]model.Article, error) {
	params := url.Values{}
	params.Set("category", string(topic))
	return c.fetch(ctx, "/top-headlines", params, topic, maxItems)
}

// Search はキーワード検索で記事を取得する。
// カテゴリが不明なため記事はgeneral扱いで正規化される。
func (c *Client) Search(ctx context.Context, query string, maxItems int) ([]model.Article, error) {
	params := url.Values{}
	params.Set("q", query)
	return c.fetch(ctx, "/search", params, model.TopicGeneral, maxItems)
}

// fetch はAPI呼び出しの共通経路。
// クォータ確認 → ペーシング → HTTP GET → ステータス分類 → パース → 正規化。
func (c *Client) fetch(ctx context.Context, path string, params url.Values, topic model.Topic, maxItems int) ([]model.Article, error) {
	// クォータを先に確認し、枯渇時はHTTP呼び出しなしで失敗させる
	if !c.quota.Allow() {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamQuotaExceeded,
			Message: fmt.Sprintf("当日のAPIクォータ上限（%d件）に達しています", c.quota.MaxPerDay()),
		}
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "リクエストの待機がキャンセルされました",
			Err:     err,
		}
	}

	reqURL, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamInvalidResponse,
			Message: "エンドポイントURLのパースに失敗しました",
			Err:     err,
		}
	}

	params.Set("apikey", c.apiKey)
	params.Set("lang", "en")
	params.Set("max", strconv.Itoa(maxItems))
	reqURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "HTTPリクエストの作成に失敗しました",
			Err:     err,
		}
	}
	req.Header.Set("User-Agent", "NewsAura/1.0 News Aggregator")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.RecordUpstreamLatency(time.Since(start))
	if err != nil {
		c.metrics.RecordUpstreamRequest("network_error")
		c.logger.Error("ニュースAPIの呼び出しに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "ニュースAPIへの接続に失敗しました",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	c.quota.Increment()
	c.metrics.SetQuotaRemaining(c.quota.Status().Remaining)

	if resp.StatusCode != http.StatusOK {
		ue := c.classifyStatus(resp.StatusCode, path)
		c.metrics.RecordUpstreamRequest(string(ue.Kind))
		return nil, ue
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "レスポンスボディの読み取りに失敗しました",
			Err:     err,
		}
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("ニュースAPIの応答のパースに失敗しました",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamInvalidResponse,
			Message: "応答JSONのパースに失敗しました",
			Err:     err,
		}
	}
	if parsed.Articles == nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamInvalidResponse,
			Message: "応答にarticlesフィールドがありません",
		}
	}

	articles, dropped := c.normalize(parsed.Articles, topic)
	c.metrics.RecordUpstreamRequest("success")
	c.metrics.RecordArticlesNormalized(len(articles), dropped)
	if dropped > 0 {
		c.logger.Warn("不完全な記事を破棄しました",
			slog.String("path", path),
			slog.Int("dropped", dropped),
			slog.Int("kept", len(articles)),
		)
	}

	return articles, nil
}

// classifyStatus はHTTPステータスコードをUpstreamErrorに分類する。
// 429/403はクォータ超過（同一リクエスト内ではリトライ禁止）、
// 5xxは一時的障害（有限回リトライ可）、その他は不正応答として扱う。
func (c *Client) classifyStatus(statusCode int, path string) *model.UpstreamError {
	c.logger.Error("ニュースAPIがエラーステータスを返しました",
		slog.String("path", path),
		slog.Int("http_status", statusCode),
	)

	switch {
	case statusCode == http.StatusTooManyRequests || statusCode == http.StatusForbidden:
		return &model.UpstreamError{
			Kind:    model.UpstreamQuotaExceeded,
			Message: fmt.Sprintf("プロバイダがステータス %d を返しました", statusCode),
		}
	case statusCode >= 500:
		return &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: fmt.Sprintf("プロバイダがステータス %d を返しました", statusCode),
		}
	default:
		return &model.UpstreamError{
			Kind:    model.UpstreamInvalidResponse,
			Message: fmt.Sprintf("プロバイダが予期しないステータス %d を返しました", statusCode),
		}
	}
}

// normalize はプロバイダの記事を統一Article形へ変換する。
// タイトルまたはURLを欠く記事は破棄し、破棄数を返す。
// IDはURLのハッシュから導出され、同一ストーリーの再フェッチで安定する。
func (c *Client) normalize(raw []apiArticle, topic model.Topic) ([]model.Article, int) {
	articles := make([]model.Article, 0, len(raw))
	dropped := 0

	for _, a := range raw {
		if a.Title == "" || a.URL == "" {
			dropped++
			continue
		}

		article := model.Article{
			ID:          model.ArticleIDFromURL(a.URL),
			Title:       c.sanitizer.SanitizeText(a.Title),
			Description: c.sanitizer.SanitizeText(a.Description),
			Content:     c.sanitizer.SanitizeText(a.Content),
			ImageURL:    a.Image,
			SourceName:  a.Source.Name,
			URL:         a.URL,
			Category:    topic,
		}

		if a.PublishedAt != "" {
			if ts, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
				article.PublishedAt = &ts
			}
		}

		articles = append(articles, article)
	}

	return articles, dropped
}

// compile-time interface check
var _ Provider = (*Client)(nil)
