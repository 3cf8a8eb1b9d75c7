package scorer

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// longSentence は指定番号入りの要約候補になる長さの文を返す。
func longSentence(n int, topic string) string {
	return fmt.Sprintf("Sentence number %d discusses the %s situation in considerable detail today.", n, topic)
}

func TestSummarizer_Summarize_ShortTextReturnedAsIs(t *testing.T) {
	s := NewSummarizer()

	text := longSentence(1, "economy") + " " + longSentence(2, "economy")
	got, err := s.Summarize(text, 6)
	if err != nil {
		t.Fatalf("Summarizeがエラーを返した: %v", err)
	}
	if got != strings.TrimSpace(text) {
		t.Errorf("文数が上限以下なら本文をそのまま返すべき: got %q", got)
	}
}

func TestSummarizer_Summarize_SelectsSubsetInOriginalOrder(t *testing.T) {
	s := NewSummarizer()

	var parts []string
	for i := 1; i <= 10; i++ {
		parts = append(parts, longSentence(i, "market"))
	}
	text := strings.Join(parts, " ")

	got, err := s.Summarize(text, 3)
	if err != nil {
		t.Fatalf("Summarizeがエラーを返した: %v", err)
	}

	// 上限以内の文数に収まる
	count := strings.Count(got, "Sentence number")
	if count != 3 {
		t.Errorf("要約の文数が違う: got %d, want 3", count)
	}

	// 選ばれた文は元の出現順を保つ
	lastIndex := -1
	for i := 1; i <= 10; i++ {
		marker := fmt.Sprintf("Sentence number %d ", i)
		pos := strings.Index(got, marker)
		if pos == -1 {
			continue
		}
		if pos < lastIndex {
			t.Errorf("文の順序が入れ替わっている: %q", got)
		}
		lastIndex = pos
	}
}

func TestSummarizer_Summarize_PositionBiasPrefersEarlySentences(t *testing.T) {
	s := NewSummarizer()

	// 全文が同一語彙なら位置バイアスにより先頭の文が選ばれる
	var parts []string
	for i := 0; i < 8; i++ {
		parts = append(parts, "The quarterly report describes identical financial performance metrics carefully.")
	}
	text := strings.Join(parts, " ")

	got, err := s.Summarize(text, 2)
	if err != nil {
		t.Fatalf("Summarizeがエラーを返した: %v", err)
	}
	if strings.Count(got, "quarterly report") != 2 {
		t.Errorf("要約の文数が違う: %q", got)
	}
}

func TestSummarizer_Summarize_NoExtractableSentences(t *testing.T) {
	s := NewSummarizer()

	// 短い断片のみのテキストは候補文が残らない
	for _, text := range []string{"", "Short. Tiny. Small.", "    "} {
		_, err := s.Summarize(text, 6)
		if !errors.Is(err, ErrTextTooShort) {
			t.Errorf("ErrTextTooShortであるべき (text=%q): %v", text, err)
		}
	}
}

func TestSummarizer_Summarize_Deterministic(t *testing.T) {
	s := NewSummarizer()

	var parts []string
	for i := 1; i <= 12; i++ {
		parts = append(parts, longSentence(i, "technology"))
	}
	text := strings.Join(parts, " ")

	first, err := s.Summarize(text, 4)
	if err != nil {
		t.Fatalf("Summarizeがエラーを返した: %v", err)
	}
	second, err := s.Summarize(text, 4)
	if err != nil {
		t.Fatalf("Summarizeがエラーを返した: %v", err)
	}
	if first != second {
		t.Error("同一入力に対する要約は決定的であるべき")
	}
}
