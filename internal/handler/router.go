package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/newsaura/newsaura/internal/metrics"
	"github.com/newsaura/newsaura/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// ニュースフィード
	NewsService NewsServiceInterface
	Quota       QuotaReporter

	// スコアリング（センチメント/要約）
	ScoringService ScoringServiceInterface

	// 保存アイテム/コメント
	SavedService SavedServiceInterface

	// プロフィール分析
	ProfileService ProfileServiceInterface

	// Prometheusメトリクス
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORSMiddleware → IdentityMiddleware → RateLimitMiddleware(GeneralMiddleware)
//
// ヘルスチェック（/health）とメトリクス（/metrics）はミドルウェアチェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// CORS ミドルウェアを最上位に適用（全ルートに効く）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	newsHandler := NewNewsHandler(deps.NewsService, deps.Quota)
	scoringHandler := NewScoringHandler(deps.ScoringService)
	savedHandler := NewSavedHandler(deps.SavedService)
	profileHandler := NewProfileHandler(deps.ProfileService)

	// --- 認証不要のルート ---

	r.Get("/health", HealthCheck)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Identity → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware())
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ニュースフィード
		r.Route("/api/news", func(r chi.Router) {
			r.Get("/topic/{topic}", newsHandler.GetTopicFeed)
			r.Get("/suggest", newsHandler.Suggest)
			r.Get("/quota", newsHandler.Quota)

			// 手動リフレッシュ（再取得専用レート制限を追加）
			r.With(deps.RateLimiter.RefreshMiddleware()).Post("/refresh/{topic}", newsHandler.Refresh)
			r.With(deps.RateLimiter.RefreshMiddleware()).Post("/refresh-all", newsHandler.RefreshAll)
		})

		// スコアリング
		r.Post("/api/sentiment", scoringHandler.ScoreSentiment)
		r.Post("/api/summary", scoringHandler.GetSummary)

		// 保存アイテム
		r.Route("/api/saved", func(r chi.Router) {
			r.Post("/", savedHandler.Add)
			r.Get("/", savedHandler.List)
			r.Delete("/{id}", savedHandler.Remove)
		})

		// コメント
		r.Route("/api/comments", func(r chi.Router) {
			r.Post("/", savedHandler.AddComment)
			r.Get("/{articleID}", savedHandler.ListComments)
			r.Delete("/{id}", savedHandler.DeleteComment)
		})

		// プロフィール分析
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/stats", profileHandler.Stats)
			r.Get("/analytics", profileHandler.Analytics)
		})
	})

	return r
}

// HealthCheck はヘルスチェックエンドポイント。
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
