// Package feed はトピックフィードの組み立てと導出値の配信を提供する。
// キャッシュ優先の読み取り、単一フライトによる上流呼び出しの重複排除、
// センチメント付与、要約のフォールバック連鎖をこの層に集約する。
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/newsaura/newsaura/internal/cache"
	"github.com/newsaura/newsaura/internal/coordinator"
	"github.com/newsaura/newsaura/internal/metrics"
	"github.com/newsaura/newsaura/internal/model"
	"github.com/newsaura/newsaura/internal/upstream"
)

// minQueryLength は検索候補クエリの最小長。
const minQueryLength = 2

// minTextLength はセンチメント判定対象テキストの最小長（ルーン数）。
const minTextLength = 3

// minWordsForSummary は抽出型要約を実行する本文の最小語数。
// これより短い本文の「要約」は本文の劣化コピーにしかならない。
const minWordsForSummary = 200

// derivedTTL はセンチメント等の決定的導出値のキャッシュTTL。
// 同一テキストは常に同一結果になるためフィードより長く保持してよい。
const derivedTTL = 24 * time.Hour

// placeholderSummary は要約可能なテキストが一切なかった場合の定型文。
const placeholderSummary = "This article could not be summarized due to publisher restrictions. " +
	"Please open the full article to read more."

// TextExtractor は記事URLからの本文抽出インターフェース。
type TextExtractor interface {
	ExtractArticleText(ctx context.Context, articleURL string) (string, error)
}

// SentimentScorer はセンチメント判定と要約生成のインターフェース。
type SentimentScorer interface {
	ScoreSentiment(ctx context.Context, text string) model.SentimentResult
	ScoreArticle(ctx context.Context, article *model.Article) model.SentimentResult
	Summarize(ctx context.Context, text string, maxSentences int) (string, error)
}

// ActivityAppender は行動ログの追記インターフェース。
type ActivityAppender interface {
	Append(ctx context.Context, record *model.ActivityRecord) error
}

// Options はServiceの動作パラメータ。
type Options struct {
	FeedTTL             time.Duration
	SuggestTTL          time.Duration
	MaxItems            int
	MaxRetries          int
	RetryWait           time.Duration
	SummaryMaxSentences int
}

// Service はフィード組み立てサービス。
type Service struct {
	cache        cache.Cache
	coord        *coordinator.Coordinator
	provider     upstream.Provider
	scorer       SentimentScorer
	extractor    TextExtractor
	activityRepo ActivityAppender
	metrics      metrics.MetricsCollector
	logger       *slog.Logger
	opts         Options
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	c cache.Cache,
	coord *coordinator.Coordinator,
	provider upstream.Provider,
	s SentimentScorer,
	extractor TextExtractor,
	activityRepo ActivityAppender,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	opts Options,
) *Service {
	return &Service{
		cache:        c,
		coord:        coord,
		provider:     provider,
		scorer:       s,
		extractor:    extractor,
		activityRepo: activityRepo,
		metrics:      collector,
		logger:       logger,
		opts:         opts,
	}
}

// FeedPage はトピックフィードのレスポンス形。
type FeedPage struct {
	Source   string          `json:"source"` // "cache" または "api"
	Count    int             `json:"count"`
	Articles []model.Article `json:"articles"`
}

// GetTopicFeed はトピック別のフィードを返す。
// キャッシュヒット時は上流を呼ばない。ミス時は単一フライトで1回だけフェッチし、
// センチメント付与済みの記事列をTTL付きでキャッシュする。
// 上流が失敗した場合はキャッシュへ何も書かず、次のリクエストが再試行する。
func (s *Service) GetTopicFeed(ctx context.Context, topic string) (*FeedPage, error) {
	if !model.IsValidTopic(topic) {
		return nil, model.NewInvalidTopicError(topic)
	}

	key := cache.FeedKey(topic)
	if articles, ok := s.cachedArticles(ctx, key); ok {
		return &FeedPage{Source: "cache", Count: len(articles), Articles: articles}, nil
	}

	articles, err := s.loadArticles(ctx, key, func(fetchCtx context.Context) ([]model.Article, error) {
		return s.provider.FetchTopic(fetchCtx, model.Topic(topic), s.opts.MaxItems)
	}, s.opts.FeedTTL)
	if err != nil {
		return nil, err
	}

	return &FeedPage{Source: "api", Count: len(articles), Articles: articles}, nil
}

// GetSuggestions はキーワード検索の候補記事を返す。
// クエリは2文字以上。キャッシュと単一フライトの扱いはトピックフィードと同じ。
func (s *Service) GetSuggestions(ctx context.Context, query string) (*FeedPage, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLength {
		return nil, model.NewQueryTooShortError(minQueryLength)
	}

	key := cache.SuggestKey(strings.ToLower(query))
	if articles, ok := s.cachedArticles(ctx, key); ok {
		return &FeedPage{Source: "cache", Count: len(articles), Articles: articles}, nil
	}

	articles, err := s.loadArticles(ctx, key, func(fetchCtx context.Context) ([]model.Article, error) {
		return s.provider.Search(fetchCtx, query, s.opts.MaxItems)
	}, s.opts.SuggestTTL)
	if err != nil {
		return nil, err
	}

	return &FeedPage{Source: "api", Count: len(articles), Articles: articles}, nil
}

// decodeArticles はキャッシュエントリを記事列に復元する。
func decodeArticles(data []byte) ([]model.Article, bool) {
	var articles []model.Article
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, false
	}
	return articles, true
}

// cachedArticles はキャッシュから記事列を読み取り、ヒット/ミスを計上する。
func (s *Service) cachedArticles(ctx context.Context, key string) ([]model.Article, bool) {
	data, ok := s.cache.Get(ctx, key)
	if !ok {
		s.metrics.RecordCacheMiss(cache.Namespace(key))
		return nil, false
	}

	articles, ok := decodeArticles(data)
	if !ok {
		// 壊れたエントリは削除してミス扱いにする
		s.logger.Warn("キャッシュエントリのデコードに失敗しました", slog.String("key", key))
		s.cache.Delete(ctx, key)
		s.metrics.RecordCacheMiss(cache.Namespace(key))
		return nil, false
	}

	s.metrics.RecordCacheHit(cache.Namespace(key))
	return articles, true
}

// loadArticles は単一フライトで上流フェッチとセンチメント付与を行い、
// 成功時のみ結果をキャッシュへ書き込む。
// 同時に到着した同一キーのリクエストはリーダーの結果を共有する。
func (s *Service) loadArticles(ctx context.Context, key string, fetch func(context.Context) ([]model.Article, error), ttl time.Duration) ([]model.Article, error) {
	value, shared, err := s.coord.Do(key, func() (any, error) {
		// リーダー確定までの間に別のリーダーが書いた可能性がある。
		// この論理リクエストのミスは計上済みのためメトリクスには触れない。
		if data, ok := s.cache.Get(ctx, key); ok {
			if articles, ok := decodeArticles(data); ok {
				return articles, nil
			}
		}

		articles, err := doWithRetry(ctx, s.opts.MaxRetries, s.opts.RetryWait, func() ([]model.Article, error) {
			return fetch(ctx)
		})
		if err != nil {
			return nil, err
		}

		for i := range articles {
			articles[i].Sentiment = s.sentimentFor(ctx, &articles[i])
		}

		if data, err := json.Marshal(articles); err == nil {
			s.cache.Set(ctx, key, data, ttl)
		}
		return articles, nil
	})

	if shared {
		s.metrics.RecordSingleflightShared()
	}
	if err != nil {
		if ue, ok := model.AsUpstreamError(err); ok {
			return nil, model.NewFeedUnavailableError(ue)
		}
		return nil, err
	}

	articles, ok := value.([]model.Article)
	if !ok {
		return nil, fmt.Errorf("単一フライトの結果型が不正です: %T", value)
	}
	return articles, nil
}

// sentimentFor は記事のセンチメントを返す。同一テキストの再計算はキャッシュで回避する。
func (s *Service) sentimentFor(ctx context.Context, article *model.Article) *model.SentimentResult {
	combined := strings.TrimSpace(strings.Join([]string{article.Title, article.Description, article.Content}, " "))
	key := cache.SentimentKey(combined)

	if data, ok := s.cache.Get(ctx, key); ok {
		var result model.SentimentResult
		if err := json.Unmarshal(data, &result); err == nil {
			s.metrics.RecordSentimentScored(true)
			return &result
		}
		s.cache.Delete(ctx, key)
	}

	result := s.scorer.ScoreArticle(ctx, article)
	s.metrics.RecordSentimentScored(false)

	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data, derivedTTL)
	}
	return &result
}

// ScoreText は任意テキストのセンチメントを判定する。
// 3文字未満は入力エラー。結果はテキストハッシュをキーにキャッシュされる。
func (s *Service) ScoreText(ctx context.Context, text string) (*model.SentimentResult, error) {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minTextLength {
		return nil, model.NewTextTooShortError()
	}

	key := cache.SentimentKey(text)
	if data, ok := s.cache.Get(ctx, key); ok {
		var result model.SentimentResult
		if err := json.Unmarshal(data, &result); err == nil {
			s.metrics.RecordCacheHit(cache.Namespace(key))
			return &result, nil
		}
		s.cache.Delete(ctx, key)
	}
	s.metrics.RecordCacheMiss(cache.Namespace(key))

	result := s.scorer.ScoreSentiment(ctx, text)
	s.metrics.RecordSentimentScored(false)

	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data, derivedTTL)
	}
	return &result, nil
}

// SummaryRequest は要約取得の入力。ContentとDescriptionは上流記事の
// 既知フィールドで、スクレイプ失敗時のフォールバックに使う。
type SummaryRequest struct {
	UserID      string
	URL         string
	Content     string
	Description string
}

// GetSummary は記事の要約をフォールバック連鎖で取得する。
//  1. キャッシュ
//  2. 本文スクレイプ → 抽出型要約（語数が十分な場合のみ）
//  3. 上流記事のcontentで同様に要約
//  4. 記事説明文
//  5. 定型文
//
// 要約器自体が失敗し説明文のフォールバックもない場合はSUMMARIZATION_FAILEDを
// 返す。一時的な失敗を定型文として恒久キャッシュしないためにエラーで返す。
// 結果は由来（provenance）付きで返し、URLハッシュをキーにキャッシュする。
// 閲覧はsummary_viewedとして行動ログに追記される（失敗しても要約は返す）。
func (s *Service) GetSummary(ctx context.Context, req SummaryRequest) (*model.SummaryResult, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, model.NewURLRequiredError()
	}

	key := cache.SummaryKey(req.URL)
	if data, ok := s.cache.Get(ctx, key); ok {
		var result model.SummaryResult
		if err := json.Unmarshal(data, &result); err == nil {
			s.metrics.RecordCacheHit(cache.Namespace(key))
			s.metrics.RecordSummary(string(model.ProvenanceCache))
			s.appendSummaryViewed(ctx, req)
			result.Provenance = model.ProvenanceCache
			return &result, nil
		}
		s.cache.Delete(ctx, key)
	}
	s.metrics.RecordCacheMiss(cache.Namespace(key))

	result, err := s.buildSummary(ctx, req)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSummary(string(result.Provenance))

	if data, err := json.Marshal(result); err == nil {
		s.cache.Set(ctx, key, data, 0)
	}

	s.appendSummaryViewed(ctx, req)
	return result, nil
}

// buildSummary はフォールバック連鎖を順に試して要約を組み立てる。
// 定型文は「要約可能なテキストがなかった」場合に限り、要約器の失敗は
// 説明文でも救えなければエラーとして返す。
func (s *Service) buildSummary(ctx context.Context, req SummaryRequest) (*model.SummaryResult, error) {
	articleText := ""
	if text, err := s.extractor.ExtractArticleText(ctx, req.URL); err != nil {
		s.logger.Warn("記事本文の抽出に失敗しました",
			slog.String("url", req.URL),
			slog.String("error", err.Error()),
		)
	} else {
		articleText = text
	}

	if articleText == "" {
		articleText = req.Content
	}

	var summarizeErr error
	if len(strings.Fields(articleText)) >= minWordsForSummary {
		summary, err := s.scorer.Summarize(ctx, articleText, s.opts.SummaryMaxSentences)
		if err != nil {
			summarizeErr = err
			s.logger.Warn("要約の生成に失敗しました",
				slog.String("url", req.URL),
				slog.String("error", err.Error()),
			)
		} else if summary != "" {
			return &model.SummaryResult{Summary: summary, Provenance: model.ProvenanceGenerated}, nil
		}
	}

	if desc := strings.TrimSpace(req.Description); desc != "" {
		return &model.SummaryResult{Summary: desc, Provenance: model.ProvenanceDescription}, nil
	}

	if summarizeErr != nil {
		return nil, model.NewSummarizationFailedError(summarizeErr.Error())
	}

	return &model.SummaryResult{Summary: placeholderSummary, Provenance: model.ProvenancePlaceholder}, nil
}

// appendSummaryViewed は要約閲覧を行動ログへ追記する。失敗は警告ログに留める。
func (s *Service) appendSummaryViewed(ctx context.Context, req SummaryRequest) {
	if req.UserID == "" {
		return
	}

	record := &model.ActivityRecord{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Kind:      model.ActivitySummaryViewed,
		ArticleID: model.ArticleIDFromURL(req.URL),
		CreatedAt: time.Now(),
	}
	if err := s.activityRepo.Append(ctx, record); err != nil {
		s.logger.Warn("要約閲覧ログの追記に失敗しました",
			slog.String("user_id", req.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// RefreshResult は手動リフレッシュの結果。
type RefreshResult struct {
	Topic        string `json:"topic"`
	ArticleCount int    `json:"articles"`
}

// Refresh は指定トピックのキャッシュを破棄して上流から再取得する。
func (s *Service) Refresh(ctx context.Context, topic string) (*RefreshResult, error) {
	if !model.IsValidTopic(topic) {
		return nil, model.NewInvalidTopicError(topic)
	}

	key := cache.FeedKey(topic)
	s.cache.Delete(ctx, key)
	s.coord.Forget(key)

	s.logger.Warn("トピックフィードを手動リフレッシュします", slog.String("topic", topic))

	articles, err := s.loadArticles(ctx, key, func(fetchCtx context.Context) ([]model.Article, error) {
		return s.provider.FetchTopic(fetchCtx, model.Topic(topic), s.opts.MaxItems)
	}, s.opts.FeedTTL)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{Topic: topic, ArticleCount: len(articles)}, nil
}

// RefreshAllResult は全トピックリフレッシュの結果。
type RefreshAllResult struct {
	CategoriesRefreshed int      `json:"categories_refreshed"`
	TotalArticles       int      `json:"total_articles"`
	Errors              []string `json:"errors,omitempty"`
}

// RefreshAll は全トピックを順にリフレッシュする。
// 個別トピックの失敗は記録して続行し、1つの失敗で全体を中断しない。
func (s *Service) RefreshAll(ctx context.Context) *RefreshAllResult {
	result := &RefreshAllResult{}

	for _, topic := range model.AllTopics {
		refreshed, err := s.Refresh(ctx, string(topic))
		if err != nil {
			s.logger.Error("トピックのリフレッシュに失敗しました",
				slog.String("topic", string(topic)),
				slog.String("error", err.Error()),
			)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", topic, err.Error()))
			continue
		}
		result.CategoriesRefreshed++
		result.TotalArticles += refreshed.ArticleCount
	}

	s.logger.Warn("全トピックをリフレッシュしました",
		slog.Int("categories", result.CategoriesRefreshed),
		slog.Int("total_articles", result.TotalArticles),
		slog.Int("errors", len(result.Errors)),
	)
	return result
}
