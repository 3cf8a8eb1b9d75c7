package scorer

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/newsaura/newsaura/internal/model"
)

// Scorer はセンチメントスコアリングと要約生成のサービス。
// ステートレスであり、結果のキャッシュは呼び出し側の責務。
type Scorer struct {
	model      Model
	summarizer *Summarizer
	logger     *slog.Logger
}

// NewScorer はScorerの新しいインスタンスを生成する。
func NewScorer(m Model, summarizer *Summarizer, logger *slog.Logger) *Scorer {
	return &Scorer{
		model:      m,
		summarizer: summarizer,
		logger:     logger,
	}
}

// ScoreSentiment はテキストのセンチメントを判定する。
// 3文字未満のテキストはモデルを呼ばずNeutral（確信度1.0）を返す。
// モデルの失敗はNeutral（確信度0.0）に落とし、エラーを伝播させない。
// フィード組み立てがスコアリング失敗で止まることを防ぐため。
func (s *Scorer) ScoreSentiment(ctx context.Context, text string) model.SentimentResult {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 3 {
		return model.SentimentResult{
			Label:      model.SentimentNeutral,
			Confidence: 1.0,
			ModelID:    s.model.ID(),
		}
	}

	result, err := s.model.Score(text)
	if err != nil {
		s.logger.Error("センチメントスコアリングに失敗しました",
			slog.String("model_id", s.model.ID()),
			slog.String("error", err.Error()),
		)
		return model.SentimentResult{
			Label:      model.SentimentNeutral,
			Confidence: 0.0,
			ModelID:    s.model.ID(),
		}
	}

	return result
}

// ScoreArticle は記事のタイトル/説明/本文を結合してセンチメントを判定する。
// 空のフィールドは無視する。
func (s *Scorer) ScoreArticle(ctx context.Context, article *model.Article) model.SentimentResult {
	combined := joinNonEmpty(article.Title, article.Description, article.Content)
	return s.ScoreSentiment(ctx, combined)
}

// Summarize は記事本文から抽出型要約を生成する。
// 要約はユーザーに直接提示されるため、失敗はエラーとして呼び出し元へ返す。
func (s *Scorer) Summarize(ctx context.Context, text string, maxSentences int) (string, error) {
	return s.summarizer.Summarize(text, maxSentences)
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
