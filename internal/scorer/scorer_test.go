package scorer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/newsaura/newsaura/internal/model"
)

// failingModel は常にエラーを返すテスト用モデル。
type failingModel struct{}

func (failingModel) ID() string { return "failing-v1" }
func (failingModel) Score(text string) (model.SentimentResult, error) {
	return model.SentimentResult{}, errors.New("model unavailable")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScorer(m Model) *Scorer {
	return NewScorer(m, NewSummarizer(), testLogger())
}

func TestScorer_ScoreSentiment_ShortTextSkipsModel(t *testing.T) {
	// 3文字未満のテキストはモデルを呼ばないため、失敗モデルでもNeutral 1.0が返る
	s := newTestScorer(failingModel{})

	for _, text := range []string{"", "ab", "  a  "} {
		result := s.ScoreSentiment(context.Background(), text)
		if result.Label != model.SentimentNeutral {
			t.Errorf("短文はNeutralであるべき: got %s (text=%q)", result.Label, text)
		}
		if result.Confidence != 1.0 {
			t.Errorf("短文の確信度は1.0であるべき: got %f (text=%q)", result.Confidence, text)
		}
	}
}

func TestScorer_ScoreSentiment_ModelFailureFallsBackToNeutral(t *testing.T) {
	s := newTestScorer(failingModel{})

	result := s.ScoreSentiment(context.Background(), "a reasonably long text about markets")
	if result.Label != model.SentimentNeutral {
		t.Errorf("失敗時はNeutralであるべき: got %s", result.Label)
	}
	// 判定不能のNeutralは短文の確定Neutralと確信度で区別される
	if result.Confidence != 0.0 {
		t.Errorf("失敗時の確信度は0.0であるべき: got %f", result.Confidence)
	}
}

func TestScorer_ScoreSentiment_DelegatesToModel(t *testing.T) {
	s := newTestScorer(DefaultModel())

	result := s.ScoreSentiment(context.Background(), "Excellent growth and strong profit gains")
	if result.Label != model.SentimentPositive {
		t.Errorf("ラベルが違う: got %s", result.Label)
	}
	if result.ModelID != "lexicon-v1" {
		t.Errorf("モデルIDが違う: got %s", result.ModelID)
	}
}

func TestScorer_ScoreArticle_CombinesFields(t *testing.T) {
	s := newTestScorer(DefaultModel())

	article := &model.Article{
		Title:       "Strong growth reported",
		Description: "",
		Content:     "Profits gain as markets improve with excellent results",
	}
	result := s.ScoreArticle(context.Background(), article)
	if result.Label != model.SentimentPositive {
		t.Errorf("結合テキストのラベルが違う: got %s", result.Label)
	}
}
