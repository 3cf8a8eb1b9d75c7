// Package security はアプリケーションのセキュリティ機能を提供する。
//
// FieldSanitizerService は外部ニュースプロバイダから受け取った
// タイトル・説明文・本文のHTML断片をサニタイズする。
// プロバイダの応答はそのままJSONでフロントエンドへ返るため、
// タグやイベント属性を一切通さないプレーンテキスト化を行う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// FieldSanitizerService は上流由来テキストのサニタイズ機能のインターフェース。
type FieldSanitizerService interface {
	// SanitizeText はHTML断片からタグを全て除去し、実体参照を復号した
	// プレーンテキストを返す。空入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// fieldSanitizer はFieldSanitizerServiceの実装。
// bluemondayのStrictPolicy（許可タグなし）を保持し、スレッドセーフに動作する。
type fieldSanitizer struct {
	policy *bluemonday.Policy
}

// NewFieldSanitizer はFieldSanitizerServiceの新しいインスタンスを生成する。
func NewFieldSanitizer() *fieldSanitizer {
	return &fieldSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTML断片をプレーンテキストに変換する。
// StrictPolicyは除去したタグの内容をテキストとして残し、
// 実体参照はエスケープされた形で返すため、表示用に復号して空白を整える。
func (s *fieldSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
