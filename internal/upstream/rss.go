package upstream

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"github.com/newsaura/newsaura/internal/model"
)

// OutboundValidator はRSSフェッチ前のURL検証インターフェース。
type OutboundValidator interface {
	ValidateURL(rawURL string) error
}

// RSSProvider はAPIキー未設定時のフォールバックプロバイダ。
// 公開RSSフィード（Google News形式）からトピック別の記事を取得する。
// APIクォータを消費しないが検索精度と記事メタデータはAPIに劣る。
type RSSProvider struct {
	httpClient *http.Client
	guard      OutboundValidator
	logger     *slog.Logger
	sanitizer  FieldSanitizer
	baseURL    string
	maxBody    int64
}

// NewRSSProvider はRSSProviderの新しいインスタンスを生成する。
func NewRSSProvider(httpClient *http.Client, guard OutboundValidator, logger *slog.Logger, sanitizer FieldSanitizer, baseURL string, maxBody int64) *RSSProvider {
	return &RSSProvider{
		httpClient: httpClient,
		guard:      guard,
		logger:     logger,
		sanitizer:  sanitizer,
		baseURL:    baseURL,
		maxBody:    maxBody,
	}
}

// FetchTopic はトピック別のRSSフィードを取得する。
func (p *RSSProvider) FetchTopic(ctx context.Context, topic model.Topic, maxItems int) ([]model.Article, error) {
	// Google News互換のトピックパス
	feedURL := fmt.Sprintf("%s/headlines/section/topic/%s?hl=en-US&gl=US&ceid=US:en", p.baseURL, rssTopicSegment(topic))
	return p.fetchFeed(ctx, feedURL, topic, maxItems)
}

// Search はキーワード検索RSSフィードを取得する。
func (p *RSSProvider) Search(ctx context.Context, query string, maxItems int) ([]model.Article, error) {
	feedURL := fmt.Sprintf("%s/search?q=%s&hl=en-US&gl=US&ceid=US:en", p.baseURL, url.QueryEscape(query))
	return p.fetchFeed(ctx, feedURL, model.TopicGeneral, maxItems)
}

// fetchFeed はRSSフィードの共通フェッチ経路。
// URL検証 → HTTP GET → gofeedパース → Article正規化。
func (p *RSSProvider) fetchFeed(ctx context.Context, feedURL string, topic model.Topic, maxItems int) ([]model.Article, error) {
	if err := p.guard.ValidateURL(feedURL); err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamInvalidResponse,
			Message: "フィードURLの検証に失敗しました",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "HTTPリクエストの作成に失敗しました",
			Err:     err,
		}
	}
	req.Header.Set("User-Agent", "NewsAura/1.0 News Aggregator")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Error("RSSフィードのフェッチに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "RSSフィードへの接続に失敗しました",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		kind := model.UpstreamInvalidResponse
		if resp.StatusCode >= 500 {
			kind = model.UpstreamTransient
		}
		return nil, &model.UpstreamError{
			Kind:    kind,
			Message: fmt.Sprintf("RSSフィードがステータス %d を返しました", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody))
	if err != nil {
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamTransient,
			Message: "レスポンスボディの読み取りに失敗しました",
			Err:     err,
		}
	}

	// gofeedでフィードをパース
	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		p.logger.Error("RSSフィードのパースに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		return nil, &model.UpstreamError{
			Kind:    model.UpstreamInvalidResponse,
			Message: "RSSフィードのパースに失敗しました",
			Err:     err,
		}
	}

	return p.convertItems(parsedFeed.Items, topic, maxItems), nil
}

// convertItems はgofeedの記事を統一Article形へ変換する。
// タイトルまたはリンクを欠く記事は破棄する。
func (p *RSSProvider) convertItems(items []*gofeed.Item, topic model.Topic, maxItems int) []model.Article {
	articles := make([]model.Article, 0, len(items))

	for _, item := range items {
		if item == nil || item.Title == "" || item.Link == "" {
			continue
		}
		if len(articles) >= maxItems {
			break
		}

		article := model.Article{
			ID:          model.ArticleIDFromURL(item.Link),
			Title:       p.sanitizer.SanitizeText(item.Title),
			Description: p.sanitizer.SanitizeText(item.Description),
			URL:         item.Link,
			Category:    topic,
			PublishedAt: item.PublishedParsed,
		}

		if item.Image != nil {
			article.ImageURL = item.Image.URL
		}
		if item.Custom != nil {
			if source, ok := item.Custom["source"]; ok {
				article.SourceName = source
			}
		}

		articles = append(articles, article)
	}

	return articles
}

// rssTopicSegment はトピックをGoogle News互換のセクション名へ変換する。
func rssTopicSegment(topic model.Topic) string {
	switch topic {
	case model.TopicNation:
		return "NATION"
	case model.TopicBusiness:
		return "BUSINESS"
	case model.TopicTechnology:
		return "TECHNOLOGY"
	case model.TopicSports:
		return "SPORTS"
	case model.TopicEntertainment:
		return "ENTERTAINMENT"
	case model.TopicHealth:
		return "HEALTH"
	default:
		return "WORLD"
	}
}

var _ Provider = (*RSSProvider)(nil)
