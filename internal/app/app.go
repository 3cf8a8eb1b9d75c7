package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newsaura/newsaura/internal/analytics"
	"github.com/newsaura/newsaura/internal/cache"
	"github.com/newsaura/newsaura/internal/config"
	"github.com/newsaura/newsaura/internal/coordinator"
	"github.com/newsaura/newsaura/internal/database"
	"github.com/newsaura/newsaura/internal/feed"
	"github.com/newsaura/newsaura/internal/handler"
	"github.com/newsaura/newsaura/internal/logger"
	"github.com/newsaura/newsaura/internal/metrics"
	"github.com/newsaura/newsaura/internal/middleware"
	"github.com/newsaura/newsaura/internal/repository"
	"github.com/newsaura/newsaura/internal/saved"
	"github.com/newsaura/newsaura/internal/scorer"
	"github.com/newsaura/newsaura/internal/security"
	"github.com/newsaura/newsaura/internal/textextract"
	"github.com/newsaura/newsaura/internal/upstream"
	"github.com/newsaura/newsaura/internal/worker/cleanup"
	"github.com/prometheus/client_golang/prometheus"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// newProvider は設定に応じて上流プロバイダを選択する。
// APIキーが設定されていればGNews系JSON APIクライアント、
// 未設定の場合は公開RSSフィードへのフォールバックプロバイダを返す。
func newProvider(
	cfg *config.Config,
	guard security.OutboundGuardService,
	sanitizer upstream.FieldSanitizer,
	quota *upstream.QuotaCounter,
	collector metrics.MetricsCollector,
) upstream.Provider {
	httpClient := guard.NewSafeClient(cfg.UpstreamTimeout, cfg.FetchMaxSize)

	if cfg.NewsAPIKey != "" {
		slog.Info("using JSON API news provider", slog.String("base_url", cfg.NewsAPIBaseURL))
		return upstream.NewClient(httpClient, slog.Default(), sanitizer, quota, collector, cfg.NewsAPIKey, cfg.NewsAPIBaseURL)
	}

	slog.Info("NEWS_API_KEY is not set, falling back to the RSS provider",
		slog.String("base_url", cfg.RSSFeedBaseURL),
	)
	return upstream.NewRSSProvider(httpClient, guard, slog.Default(), sanitizer, cfg.RSSFeedBaseURL, cfg.FetchMaxSize)
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	savedRepo := repository.NewPostgresSavedItemRepo(db)
	activityRepo := repository.NewPostgresActivityRepo(db)
	commentRepo := repository.NewPostgresCommentRepo(db)

	// 3. セキュリティサービスとメトリクスの初期化
	guard := security.NewOutboundGuard()
	sanitizer := security.NewFieldSanitizer()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 上流プロバイダの初期化
	quota := upstream.NewQuotaCounter(cfg.QuotaMaxPerDay, cfg.QuotaWarnAt, slog.Default())
	provider := newProvider(cfg, guard, sanitizer, quota, collector)

	// 5. キャッシュと単一フライトの初期化
	memCache := cache.NewMemory()
	coord := coordinator.New()

	// 6. スコアリングサービスの初期化
	scoring := scorer.NewScorer(scorer.DefaultModel(), scorer.NewSummarizer(), slog.Default())
	extractor := textextract.NewExtractor(
		guard.NewSafeClient(cfg.SummaryTimeout, cfg.FetchMaxSize),
		guard, slog.Default(), cfg.FetchMaxSize,
	)

	// 7. ドメインサービスの初期化
	feedService := feed.NewService(
		memCache, coord, provider, scoring, extractor, activityRepo,
		collector, slog.Default(),
		feed.Options{
			FeedTTL:             cfg.FeedTTL,
			SuggestTTL:          cfg.SuggestTTL,
			MaxItems:            cfg.UpstreamMaxItems,
			MaxRetries:          cfg.UpstreamMaxRetries,
			RetryWait:           cfg.UpstreamRetryWait,
			SummaryMaxSentences: cfg.SummaryMaxSentences,
		},
	)
	savedService := saved.NewService(savedRepo, activityRepo, commentRepo, slog.Default())
	aggregator := analytics.NewAggregator(
		savedRepo, activityRepo, slog.Default(),
		cfg.EngagementCasualMax, cfg.EngagementActiveMax,
	)

	// 8. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigFromLimits(cfg.RateLimitGeneral, cfg.RateLimitRefresh),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		NewsService:    feedService,
		Quota:          quota,
		ScoringService: feedService,
		SavedService:   savedService,
		ProfileService: aggregator,

		Gatherer: registry,
	})

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、行動ログの保持期間クリーンアップジョブを日次で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	activityRepo := repository.NewPostgresActivityRepo(db)
	cleanupJob := cleanup.NewCleanupJob(activityRepo, slog.Default())
	cleanupJob.RetentionDays = cfg.LogRetentionDays

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Int("log_retention_days", cfg.LogRetentionDays),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	cleanupJob.RunDaily(ctx)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
