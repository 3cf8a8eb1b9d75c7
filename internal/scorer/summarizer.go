package scorer

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// ErrTextTooShort は要約対象のテキストから文を1つも抽出できなかった場合に返される。
var ErrTextTooShort = errors.New("要約可能な文がありません")

// minSentenceLength は要約候補とする文の最小長（バイト）。
// 見出しの断片やキャプションを候補から除外する。
const minSentenceLength = 40

var (
	whitespacePattern   = regexp.MustCompile(`\s+`)
	sentenceEndPattern  = regexp.MustCompile(`([.!?])\s+`)
	summaryTokenPattern = regexp.MustCompile(`[a-z]+`)
)

// stopwords は語頻度スコアリングから除外する英語の機能語。
var stopwords = wordSet(
	"a", "an", "the", "and", "or", "but", "if", "then", "than", "that", "this",
	"these", "those", "is", "are", "was", "were", "be", "been", "being", "am",
	"do", "does", "did", "have", "has", "had", "will", "would", "can", "could",
	"should", "shall", "may", "might", "must", "of", "in", "on", "at", "to",
	"for", "from", "by", "with", "about", "as", "into", "through", "over",
	"under", "again", "further", "once", "here", "there", "when", "where",
	"why", "how", "all", "any", "both", "each", "few", "more", "most", "other",
	"some", "such", "only", "own", "same", "so", "too", "very", "not", "no",
	"nor", "it", "its", "he", "she", "they", "them", "his", "her", "their",
	"we", "us", "our", "you", "your", "i", "me", "my", "what", "which", "who",
	"whom", "up", "down", "out", "off", "because", "while", "during", "before",
	"after", "above", "below", "between", "also", "just", "now", "said",
)

// Summarizer は古典的な抽出型要約器。
// 文を語頻度でスコアリングし、上位の文を元の出現順で結合する。
// 生成モデルを使用しないため外部依存がなく決定的に動作する。
type Summarizer struct{}

// NewSummarizer はSummarizerの新しいインスタンスを生成する。
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// Summarize は本文からmaxSentences文以内の要約を生成する。
// 文数がmaxSentences以下なら本文をそのまま返す。
func (s *Summarizer) Summarize(text string, maxSentences int) (string, error) {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", ErrTextTooShort
	}

	if len(sentences) <= maxSentences {
		return strings.TrimSpace(text), nil
	}

	scores := scoreSentences(sentences)
	top := selectTopIndices(scores, maxSentences)

	// 読みやすさのため元の出現順を維持する
	sort.Ints(top)

	parts := make([]string, 0, len(top))
	for _, i := range top {
		parts = append(parts, sentences[i])
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

// splitSentences は本文を文に分割する。短すぎる断片は候補から除く。
func splitSentences(text string) []string {
	normalized := whitespacePattern.ReplaceAllString(text, " ")
	raw := sentenceEndPattern.Split(normalized, -1)

	// Splitは区切り記号を落とすため、終端記号を付け直す
	marks := sentenceEndPattern.FindAllStringSubmatch(normalized, -1)

	var sentences []string
	for i, fragment := range raw {
		fragment = strings.TrimSpace(fragment)
		if len(fragment) <= minSentenceLength {
			continue
		}
		if i < len(marks) && !strings.HasSuffix(fragment, ".") && !strings.HasSuffix(fragment, "!") && !strings.HasSuffix(fragment, "?") {
			fragment += marks[i][1]
		}
		sentences = append(sentences, fragment)
	}
	return sentences
}

// scoreSentences は各文を語頻度の合計でスコアリングする。
// 文書内の語頻度を文長で正規化し、先頭の文ほど重みが強くなる位置バイアスを掛ける。
func scoreSentences(sentences []string) []float64 {
	// 文書全体の語頻度（ストップワード除外）
	freq := make(map[string]int)
	tokenized := make([][]string, len(sentences))
	for i, sentence := range sentences {
		tokens := summaryTokenPattern.FindAllString(strings.ToLower(sentence), -1)
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, skip := stopwords[tok]; skip {
				continue
			}
			kept = append(kept, tok)
			freq[tok]++
		}
		tokenized[i] = kept
	}

	scores := make([]float64, len(sentences))
	for i, tokens := range tokenized {
		if len(tokens) == 0 {
			continue
		}
		sum := 0.0
		for _, tok := range tokens {
			sum += float64(freq[tok])
		}
		scores[i] = sum / float64(len(tokens))
	}

	// 位置バイアス: 1.2（先頭）から0.8（末尾）へ線形に減衰
	n := len(scores)
	for i := range scores {
		weight := 1.2
		if n > 1 {
			weight = 1.2 - 0.4*float64(i)/float64(n-1)
		}
		scores[i] *= weight
	}

	return scores
}

// selectTopIndices はスコア上位maxSentences文のインデックスを返す。
func selectTopIndices(scores []float64, maxSentences int) []int {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	if len(indices) > maxSentences {
		indices = indices[:maxSentences]
	}
	return indices
}
