// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, upstream, scoring, saved, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUpstreamTransient       = "UPSTREAM_TRANSIENT"
	ErrCodeUpstreamQuota           = "UPSTREAM_QUOTA"
	ErrCodeUpstreamInvalidResponse = "UPSTREAM_INVALID_RESPONSE"
	ErrCodeSummarizationFailed     = "SUMMARIZATION_FAILED"
	ErrCodeInvalidTopic            = "INVALID_TOPIC"
	ErrCodeQueryTooShort           = "QUERY_TOO_SHORT"
	ErrCodeTextTooShort            = "TEXT_TOO_SHORT"
	ErrCodeURLRequired             = "URL_REQUIRED"
	ErrCodeInvalidSavedKind        = "INVALID_SAVED_KIND"
	ErrCodeAlreadySaved            = "ALREADY_SAVED"
	ErrCodeSavedItemNotFound       = "SAVED_ITEM_NOT_FOUND"
	ErrCodeCommentNotFound         = "COMMENT_NOT_FOUND"
)

// UpstreamErrorKind は外部ニュースプロバイダ起因のエラー分類を表す。
type UpstreamErrorKind string

const (
	// UpstreamTransient はタイムアウト/5xx等の一時的な失敗。呼び出し元が有限回リトライする。
	UpstreamTransient UpstreamErrorKind = "transient"
	// UpstreamQuotaExceeded はAPIクォータ超過。同一リクエスト内では決してリトライしない。
	UpstreamQuotaExceeded UpstreamErrorKind = "quota_exceeded"
	// UpstreamInvalidResponse はプロバイダの応答形式が不正。リトライしない。
	UpstreamInvalidResponse UpstreamErrorKind = "invalid_response"
)

// UpstreamError は外部ニュースプロバイダ呼び出しの失敗を表す。
// アダプタ境界で分類され、フィード組み立てサービスがリトライ可否を判断する。
type UpstreamError struct {
	Kind    UpstreamErrorKind
	Message string
	Err     error
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("upstream %s: %s", e.Kind, e.Message)
}

// Unwrap はラップされた原因エラーを返す。
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AsUpstreamError はエラーチェーンからUpstreamErrorを取り出す。
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// NewInvalidTopicError は未対応トピックのバリデーションエラーを生成する。
func NewInvalidTopicError(topic string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidTopic,
		Message:  fmt.Sprintf("未対応のトピックです: %s", topic),
		Category: "validation",
		Action:   "対応トピック（general, nation, business, technology, sports, entertainment, health）のいずれかを指定してください。",
	}
}

// NewQueryTooShortError は検索クエリが短すぎる場合のエラーを生成する。
func NewQueryTooShortError(minLength int) *APIError {
	return &APIError{
		Code:     ErrCodeQueryTooShort,
		Message:  fmt.Sprintf("検索クエリが短すぎます（最低%d文字）。", minLength),
		Category: "validation",
		Action:   fmt.Sprintf("%d文字以上のキーワードを入力してください。", minLength),
	}
}

// NewTextTooShortError はセンチメント分析の入力が短すぎる場合のエラーを生成する。
func NewTextTooShortError() *APIError {
	return &APIError{
		Code:     ErrCodeTextTooShort,
		Message:  "テキストが短すぎます（最低3文字）。",
		Category: "validation",
		Action:   "3文字以上のテキストを入力してください。",
	}
}

// NewURLRequiredError は記事URLが未指定の場合のエラーを生成する。
func NewURLRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeURLRequired,
		Message:  "記事URLが指定されていません。",
		Category: "validation",
		Action:   "要約対象の記事URLを指定してください。",
	}
}

// NewInvalidSavedKindError は無効な保存種別のエラーを生成する。
func NewInvalidSavedKindError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSavedKind,
		Message:  fmt.Sprintf("無効な保存種別です: %s", kind),
		Category: "validation",
		Action:   "保存種別には bookmark または read_later を指定してください。",
	}
}

// NewAlreadySavedError は同一記事の再保存エラーを生成する。
func NewAlreadySavedError(kind SavedKind) *APIError {
	return &APIError{
		Code:     ErrCodeAlreadySaved,
		Message:  fmt.Sprintf("この記事は既に保存されています（%s）。", kind),
		Category: "saved",
		Action:   "保存一覧から該当記事を確認してください。",
	}
}

// NewSavedItemNotFoundError は保存アイテム未検出のエラーを生成する。
func NewSavedItemNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeSavedItemNotFound,
		Message:  fmt.Sprintf("指定された保存アイテムが見つかりません: %s", id),
		Category: "saved",
		Action:   "保存アイテムのIDを確認してください。",
	}
}

// NewCommentNotFoundError はコメント未検出のエラーを生成する。
func NewCommentNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCommentNotFound,
		Message:  fmt.Sprintf("指定されたコメントが見つかりません: %s", id),
		Category: "saved",
		Action:   "コメントIDを確認してください。",
	}
}

// NewFeedUnavailableError は上流エラーをユーザー向けの「フィード取得不可」エラーに変換する。
// リトライ可能な状態としてUIに表示される。
func NewFeedUnavailableError(ue *UpstreamError) *APIError {
	switch ue.Kind {
	case UpstreamQuotaExceeded:
		return &APIError{
			Code:     ErrCodeUpstreamQuota,
			Message:  "ニュースプロバイダのAPIクォータ上限に達しました。",
			Category: "upstream",
			Action:   "クォータはUTC深夜にリセットされます。しばらく待ってから再度お試しください。",
		}
	case UpstreamInvalidResponse:
		return &APIError{
			Code:     ErrCodeUpstreamInvalidResponse,
			Message:  "ニュースプロバイダの応答を解釈できませんでした。",
			Category: "upstream",
			Action:   "しばらく待ってから再度お試しください。",
		}
	default:
		return &APIError{
			Code:     ErrCodeUpstreamTransient,
			Message:  "ニュースフィードを取得できませんでした。",
			Category: "upstream",
			Action:   "再試行ボタンから再度お試しください。",
		}
	}
}

// NewSummarizationFailedError は要約失敗をユーザー向けエラーに変換する。
// 再試行アクション付きでUIに表示される。
func NewSummarizationFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeSummarizationFailed,
		Message:  fmt.Sprintf("要約の生成に失敗しました: %s", reason),
		Category: "scoring",
		Action:   "再試行ボタンから再度お試しください。",
	}
}
