// Package textextract は記事URLからの本文テキスト抽出を提供する。
package textextract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// OutboundValidator は外部フェッチ前のURL検証インターフェース。
type OutboundValidator interface {
	ValidateURL(rawURL string) error
}

// Extractor は記事ページから読みやすい本文テキストを抽出する。
// <p>要素ベースの単純な抽出であり、記事レイアウトの完全な復元は狙わない。
type Extractor struct {
	httpClient *http.Client
	guard      OutboundValidator
	logger     *slog.Logger
	maxBody    int64
}

// NewExtractor はExtractorの新しいインスタンスを生成する。
func NewExtractor(httpClient *http.Client, guard OutboundValidator, logger *slog.Logger, maxBody int64) *Extractor {
	return &Extractor{
		httpClient: httpClient,
		guard:      guard,
		logger:     logger,
		maxBody:    maxBody,
	}
}

var spacePattern = regexp.MustCompile(`\s+`)

// ExtractArticleText は記事URLをフェッチし本文テキストを抽出する。
// script/style/nav/footer/header/asideを除去した上で段落テキストを結合する。
// 本文が見つからないページでは空文字列を返す（エラーではない）。
func (e *Extractor) ExtractArticleText(ctx context.Context, articleURL string) (string, error) {
	if err := e.guard.ValidateURL(articleURL); err != nil {
		return "", fmt.Errorf("記事URLの検証に失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("User-Agent", "NewsAura/1.0 News Aggregator")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("記事ページのフェッチに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("記事ページがステータス %d を返しました", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return "", fmt.Errorf("記事ページのパースに失敗しました: %w", err)
	}

	// 本文以外の要素を除去
	doc.Find("script, style, nav, footer, header, aside").Remove()

	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	text := spacePattern.ReplaceAllString(strings.Join(parts, " "), " ")
	return strings.TrimSpace(text), nil
}
