// Package analytics はユーザーアクティビティからの分析ビュー導出を提供する。
// すべての値は保存アイテムと行動ログからリクエストごとに再計算され、
// 分析用の状態を永続化することはない。
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/newsaura/newsaura/internal/model"
	"github.com/newsaura/newsaura/internal/repository"
)

// エンゲージメントラベル。スコアのしきい値で段階づけされる。
const (
	LabelCasualReader = "Casual Reader"
	LabelActiveReader = "Active Reader"
	LabelPowerReader  = "Power Reader"
)

// Aggregator は分析ビューの集計サービス。
type Aggregator struct {
	savedRepo    repository.SavedItemRepository
	activityRepo repository.ActivityRepository
	logger       *slog.Logger

	// エンゲージメントのしきい値。casualMax未満がCasual、activeMax以下がActive。
	casualMax int
	activeMax int

	// テストで時刻を固定するために差し替え可能にする
	now func() time.Time
}

// NewAggregator はAggregatorの新しいインスタンスを生成する。
func NewAggregator(
	savedRepo repository.SavedItemRepository,
	activityRepo repository.ActivityRepository,
	logger *slog.Logger,
	casualMax, activeMax int,
) *Aggregator {
	return &Aggregator{
		savedRepo:    savedRepo,
		activityRepo: activityRepo,
		logger:       logger,
		casualMax:    casualMax,
		activeMax:    activeMax,
		now:          time.Now,
	}
}

// Stats は単純カウントのプロフィール統計を返す。
// analyticsと違い部分結果は返さず、失敗はエラーとして伝播する。
func (a *Aggregator) Stats(ctx context.Context, userID string) (*model.AnalyticsTier1, error) {
	tier1, err := a.buildTier1(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィール統計の集計に失敗しました: %w", err)
	}
	return tier1, nil
}

// Analytics は3ティアの分析ビューを返す。
// ティアごとに独立して集計し、失敗したティアはnilのまま他を返す（部分結果）。
func (a *Aggregator) Analytics(ctx context.Context, userID string) *model.ProfileAnalytics {
	result := &model.ProfileAnalytics{}

	tier1, err := a.buildTier1(ctx, userID)
	if err != nil {
		a.logger.Warn("tier1の集計に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else {
		result.Tier1 = tier1
	}

	tier2, err := a.buildTier2(ctx, userID)
	if err != nil {
		a.logger.Warn("tier2の集計に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else {
		result.Tier2 = tier2
	}

	tier3, err := a.buildTier3(ctx, userID)
	if err != nil {
		a.logger.Warn("tier3の集計に失敗しました",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	} else {
		result.Tier3 = tier3
	}

	return result
}

// buildTier1 は単純カウントのティアを集計する。
// articles_readは要約閲覧数で近似する。閲覧ページ自体は追跡していない。
func (a *Aggregator) buildTier1(ctx context.Context, userID string) (*model.AnalyticsTier1, error) {
	articlesRead, err := a.activityRepo.CountByUserAndKind(ctx, userID, model.ActivitySummaryViewed)
	if err != nil {
		return nil, err
	}

	bookmarks, err := a.savedRepo.CountByUserAndKind(ctx, userID, model.SavedKindBookmark)
	if err != nil {
		return nil, err
	}

	readLater, err := a.savedRepo.CountByUserAndKind(ctx, userID, model.SavedKindReadLater)
	if err != nil {
		return nil, err
	}

	lastActive, err := a.activityRepo.LastCreatedAt(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.AnalyticsTier1{
		ArticlesRead: articlesRead,
		Bookmarks:    bookmarks,
		ReadLater:    readLater,
		TotalSaved:   bookmarks + readLater,
		LastActiveAt: lastActive,
	}, nil
}

// buildTier2 はカテゴリ/時間の内訳ティアを集計する。
func (a *Aggregator) buildTier2(ctx context.Context, userID string) (*model.AnalyticsTier2, error) {
	stats, err := a.savedRepo.CategoryStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	tier2 := &model.AnalyticsTier2{
		CategoryBreakdown: make([]model.CategoryCount, 0, len(stats)),
	}

	// リポジトリは件数降順・同数なら最初にそのカテゴリを保存した順に返す。
	// 先頭が常にトップカテゴリになり、同数時の結果が安定する。
	for i, s := range stats {
		if i == 0 {
			tier2.TopCategory = s.Category
		}
		tier2.CategoryBreakdown = append(tier2.CategoryBreakdown, model.CategoryCount{
			Category: s.Category,
			Count:    s.Count,
		})
	}

	weekly, err := a.buildWeeklyActivity(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier2.WeeklyActivity = weekly

	return tier2, nil
}

// buildWeeklyActivity は直近7日（UTC、当日含む）の行動数を日別に集計する。
// バケットは古い日から当日へ向かう順で、行動がない日も0件で含まれる。
func (a *Aggregator) buildWeeklyActivity(ctx context.Context, userID string) ([]model.DayActivity, error) {
	now := a.now().UTC()
	windowStart := now.Truncate(24 * time.Hour).AddDate(0, 0, -6)

	timestamps, err := a.activityRepo.CreatedAtsSince(ctx, userID, windowStart)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, ts := range timestamps {
		day := ts.UTC().Format("2006-01-02")
		counts[day]++
	}

	weekly := make([]model.DayActivity, 0, 7)
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i)
		weekly = append(weekly, model.DayActivity{
			Day:   day.Format("Mon"),
			Count: counts[day.Format("2006-01-02")],
		})
	}
	return weekly, nil
}

// buildTier3 は導出スコアのティアを集計する。
// センチメント内訳は保存アイテムが1件もない場合nilになる。
func (a *Aggregator) buildTier3(ctx context.Context, userID string) (*model.AnalyticsTier3, error) {
	articlesRead, err := a.activityRepo.CountByUserAndKind(ctx, userID, model.ActivitySummaryViewed)
	if err != nil {
		return nil, err
	}

	bookmarks, err := a.savedRepo.CountByUserAndKind(ctx, userID, model.SavedKindBookmark)
	if err != nil {
		return nil, err
	}

	readLater, err := a.savedRepo.CountByUserAndKind(ctx, userID, model.SavedKindReadLater)
	if err != nil {
		return nil, err
	}

	tier3 := &model.AnalyticsTier3{
		EngagementScore: EngagementScore(articlesRead, bookmarks, readLater),
	}
	tier3.EngagementLabel = a.engagementLabel(tier3.EngagementScore)

	if bookmarks+readLater > 0 {
		breakdown, err := a.savedRepo.SentimentCounts(ctx, userID)
		if err != nil {
			return nil, err
		}
		tier3.SentimentBreakdown = breakdown
	}

	return tier3, nil
}

// EngagementScore はエンゲージメントスコアを計算する。
// ブックマークは明示的な興味の表明として2倍の重みを持つ。
// 各入力に対して単調増加であり、行動が増えてスコアが下がることはない。
func EngagementScore(articlesRead, bookmarks, readLater int) int {
	return articlesRead + 2*bookmarks + readLater
}

// engagementLabel はスコアを読者層ラベルに変換する。
func (a *Aggregator) engagementLabel(score int) string {
	switch {
	case score < a.casualMax:
		return LabelCasualReader
	case score <= a.activeMax:
		return LabelActiveReader
	default:
		return LabelPowerReader
	}
}
