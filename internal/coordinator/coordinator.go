// Package coordinator はキャッシュキー単位のシングルフライト調停を提供する。
// キャッシュミスした同一キーへの並行リクエストを1回の上流フェッチに束ね、
// 後続の待機者全員にリーダーの結果（値またはエラー）を配る。
package coordinator

import (
	"golang.org/x/sync/singleflight"
)

// Coordinator はキーごとの実行中計算を調停する。
// 調停キーはキャッシュキーと同一（例: feed:technology, sentiment:<hash>）。
// プロセス内調停のみを提供する。単一インスタンス構成で十分であり、
// 水平スケール時の分散ロックは対象外。
type Coordinator struct {
	group singleflight.Group
}

// New はCoordinatorの新しいインスタンスを生成する。
func New() *Coordinator {
	return &Coordinator{}
}

// Do はキーに対する計算を実行する。
// キーに対して実行中の計算がない場合、呼び出し元がリーダーとなりfnを実行する。
// 実行中の計算がある場合はフォロワーとして完了を待ち、リーダーの結果を受け取る。
// sharedは結果が複数の呼び出し元に配られたかを示す。
// 完了後はエントリが成功・失敗を問わずクリアされるため、
// 次のリクエストはキャッシュヒットするか、新しいリーダー計算を開始する。
func (c *Coordinator) Do(key string, fn func() (any, error)) (value any, shared bool, err error) {
	v, err, shared := c.group.Do(key, fn)
	return v, shared, err
}

// Forget はキーの実行中エントリを明示的に破棄する。
// 以降の呼び出しは完了待ちをせず新しいリーダー計算を開始する。
func (c *Coordinator) Forget(key string) {
	c.group.Forget(key)
}
