// Package scorer は記事テキストからの派生値（センチメント/要約）の算出を提供する。
package scorer

import (
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/newsaura/newsaura/internal/model"
)

// Model はセンチメントスコアリングの実装インターフェース。
// 実装はステートレスかつ並行安全であること。
type Model interface {
	// ID はモデル識別子を返す。キャッシュキーとレスポンスに含まれる。
	ID() string
	// Score はテキストのセンチメントを判定する。
	Score(text string) (model.SentimentResult, error)
}

// lexiconModelID はレキシコン実装のモデル識別子。
// 語彙やしきい値を変更する場合はここを上げてキャッシュを無効化する。
const lexiconModelID = "lexicon-v1"

var (
	positiveWords = wordSet("good", "great", "positive", "success", "growth", "benefit",
		"improve", "strong", "profit", "gain", "happy", "win", "excellent")

	negativeWords = wordSet("bad", "poor", "negative", "loss", "decline", "fail",
		"weak", "drop", "crisis", "risk", "sad", "fall", "problem")

	negationWords = wordSet("not", "no", "never", "hardly")

	wordPattern = regexp.MustCompile(`[a-z]+`)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// LexiconModel はルールベースのセンチメントモデル。
// 肯定/否定語の出現を数え、直前の否定語で極性を反転する。
// 外部サービスやモデルファイルに依存しないため常に利用可能。
type LexiconModel struct{}

var (
	lexiconOnce     sync.Once
	lexiconInstance *LexiconModel
)

// DefaultModel はプロセス全体で共有されるレキシコンモデルを返す。
func DefaultModel() Model {
	lexiconOnce.Do(func() {
		lexiconInstance = &LexiconModel{}
	})
	return lexiconInstance
}

// ID はモデル識別子を返す。
func (m *LexiconModel) ID() string {
	return lexiconModelID
}

// Score はテキストのセンチメントを判定する。
// スコアは語数正規化後に [-1, 1] へクランプし、±0.1をしきい値にラベル化する。
func (m *LexiconModel) Score(text string) (model.SentimentResult, error) {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	score := 0
	negate := false

	for _, word := range words {
		if _, ok := negationWords[word]; ok {
			negate = true
			continue
		}

		if _, ok := positiveWords[word]; ok {
			if negate {
				score--
			} else {
				score++
			}
			negate = false
		} else if _, ok := negativeWords[word]; ok {
			if negate {
				score++
			} else {
				score--
			}
			negate = false
		}
	}

	normalized := math.Max(math.Min(float64(score)/10, 1), -1)

	result := model.SentimentResult{ModelID: lexiconModelID}
	switch {
	case normalized > 0.1:
		result.Label = model.SentimentPositive
		result.Confidence = round2(math.Abs(normalized))
	case normalized < -0.1:
		result.Label = model.SentimentNegative
		result.Confidence = round2(math.Abs(normalized))
	default:
		result.Label = model.SentimentNeutral
		result.Confidence = round2(1 - math.Abs(normalized))
	}

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ Model = (*LexiconModel)(nil)
