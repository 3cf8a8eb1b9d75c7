package scorer

import (
	"testing"

	"github.com/newsaura/newsaura/internal/model"
)

func TestLexiconModel_Score_Labels(t *testing.T) {
	m := &LexiconModel{}

	tests := []struct {
		name      string
		text      string
		wantLabel model.SentimentLabel
	}{
		{"肯定語が多ければPositive", "Great success and strong growth bring excellent profit", model.SentimentPositive},
		{"否定語が多ければNegative", "Crisis deepens as weak economy faces decline and loss", model.SentimentNegative},
		{"感情語がなければNeutral", "The committee met on Tuesday to discuss the schedule", model.SentimentNeutral},
		{"否定語で極性が反転する", "This is not good and never positive for the market outlook today", model.SentimentNegative},
		{"反転した否定語はPositiveに寄与する", "The results were not bad at all, no problem and no crisis here", model.SentimentPositive},
		{"大文字小文字は区別しない", "GREAT WIN BRINGS STRONG PROFIT GAIN TODAY", model.SentimentPositive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := m.Score(tt.text)
			if err != nil {
				t.Fatalf("Scoreがエラーを返した: %v", err)
			}
			if result.Label != tt.wantLabel {
				t.Errorf("ラベルが違う: got %s, want %s", result.Label, tt.wantLabel)
			}
			if result.ModelID != "lexicon-v1" {
				t.Errorf("モデルIDが違う: got %s", result.ModelID)
			}
		})
	}
}

func TestLexiconModel_Score_ConfidenceBounds(t *testing.T) {
	m := &LexiconModel{}

	texts := []string{
		"",
		"great",
		"great great great great great great great great great great great great",
		"bad bad bad bad bad bad bad bad bad bad bad bad bad bad bad",
		"neutral report with plain statements",
	}

	for _, text := range texts {
		result, err := m.Score(text)
		if err != nil {
			t.Fatalf("Scoreがエラーを返した: %v", err)
		}
		if result.Confidence < 0 || result.Confidence > 1 {
			t.Errorf("確信度が範囲外: %f (text=%q)", result.Confidence, text)
		}
	}
}

func TestLexiconModel_Score_ClampsExtremes(t *testing.T) {
	m := &LexiconModel{}

	// 肯定語20個でも正規化スコアは1にクランプされ確信度は最大1
	text := ""
	for i := 0; i < 20; i++ {
		text += "excellent "
	}
	result, err := m.Score(text)
	if err != nil {
		t.Fatalf("Scoreがエラーを返した: %v", err)
	}
	if result.Label != model.SentimentPositive {
		t.Errorf("ラベルが違う: got %s", result.Label)
	}
	if result.Confidence != 1.0 {
		t.Errorf("クランプ後の確信度は1.0であるべき: got %f", result.Confidence)
	}
}

func TestDefaultModel_ReturnsSameInstance(t *testing.T) {
	a := DefaultModel()
	b := DefaultModel()
	if a != b {
		t.Error("DefaultModelはプロセス内で同一インスタンスを返すべき")
	}
	if a.ID() != "lexicon-v1" {
		t.Errorf("モデルIDが違う: got %s", a.ID())
	}
}
