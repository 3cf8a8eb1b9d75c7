// Package cleanup は行動ログの自動削除ジョブを提供する。
// 保持期間（デフォルト90日）を超過したactivity_recordsを日次バッチで削除する。
// 行動ログは追記専用のため、削除はこのジョブに一本化されている。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ActivityPruner は保持期間超過レコードの削除を抽象化するインターフェース。
// repository.ActivityRepositoryの部分集合として定義する。
type ActivityPruner interface {
	// DeleteOlderThan は指定日時より古いレコードを全ユーザー分削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した行動ログの自動削除ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	pruner        ActivityPruner
	logger        *slog.Logger
	RetentionDays int // 行動ログの保持日数（デフォルト: 90）

	// テストで時刻を固定するために差し替え可能にする
	now func() time.Time
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は90日。
func NewCleanupJob(pruner ActivityPruner, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		pruner:        pruner,
		logger:        logger,
		RetentionDays: 90,
		now:           time.Now,
	}
}

// Run は保持期間を超過した行動ログを削除する。
// created_atがRetentionDays日前より古いレコードが対象。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.UTC().AddDate(0, 0, -j.RetentionDays)

	deletedCount, err := j.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("行動ログクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("行動ログクリーンアップの実行に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("行動ログクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Int("retention_days", j.RetentionDays),
		slog.String("cutoff", cutoff.Format(time.RFC3339)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// RunDaily は24時間間隔でRunを繰り返し実行する。
// 起動直後に1回実行し、以降はティッカーで周期実行する。
// コンテキストのキャンセルで停止する。
func (j *CleanupJob) RunDaily(ctx context.Context) {
	if err := j.Run(ctx); err != nil {
		j.logger.Error("初回クリーンアップの実行に失敗しました", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				j.logger.Error("定期クリーンアップの実行に失敗しました", slog.String("error", err.Error()))
			}
		case <-ctx.Done():
			j.logger.Info("クリーンアップジョブを停止します")
			return
		}
	}
}
