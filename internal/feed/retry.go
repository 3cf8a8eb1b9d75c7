package feed

import (
	"context"
	"errors"
	"time"

	"github.com/newsaura/newsaura/internal/model"
)

// doWithRetry はfnを実行し、一時的な上流エラーに限って有限回リトライする。
// クォータ超過と不正応答は即座に返す。リトライしても結果が変わらないため。
// 待機は固定間隔で、ctxのキャンセルにより中断される。
func doWithRetry[T any](ctx context.Context, maxRetries int, wait time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, lastErr
			case <-time.After(wait):
			}
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		var ue *model.UpstreamError
		if !errors.As(err, &ue) || ue.Kind != model.UpstreamTransient {
			return zero, err
		}
	}

	return zero, lastErr
}
