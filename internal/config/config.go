package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Upstream news provider
	NewsAPIKey     string // 未設定の場合はRSSフォールバックプロバイダを使用する
	NewsAPIBaseURL string
	RSSFeedBaseURL string

	// Upstream call policy
	UpstreamTimeout    time.Duration
	UpstreamMaxRetries int
	UpstreamRetryWait  time.Duration
	UpstreamMaxItems   int
	FetchMaxSize       int64

	// Daily quota (free tier)
	QuotaMaxPerDay int
	QuotaWarnAt    int

	// Cache TTL
	FeedTTL    time.Duration
	SuggestTTL time.Duration

	// Summarization
	SummaryTimeout      time.Duration
	SummaryMaxSentences int

	// Engagement score thresholds（設定値であり業務ロジックではない）
	EngagementCasualMax int // score < CasualMax → Casual Reader
	EngagementActiveMax int // score <= ActiveMax → Active Reader、超えたら Power Reader

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitRefresh int

	// Activity log retention
	LogRetentionDays int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	cfg.NewsAPIBaseURL = getEnvString("NEWS_API_BASE_URL", "https://gnews.io/api/v4")
	cfg.RSSFeedBaseURL = getEnvString("RSS_FEED_BASE_URL", "https://news.google.com/rss")

	cfg.UpstreamTimeout = getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second)
	cfg.UpstreamMaxRetries = getEnvInt("UPSTREAM_MAX_RETRIES", 2)
	cfg.UpstreamRetryWait = getEnvDuration("UPSTREAM_RETRY_WAIT", 500*time.Millisecond)
	cfg.UpstreamMaxItems = getEnvInt("UPSTREAM_MAX_ITEMS", 40)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)

	cfg.QuotaMaxPerDay = getEnvInt("QUOTA_MAX_PER_DAY", 100)
	cfg.QuotaWarnAt = getEnvInt("QUOTA_WARN_AT", 80)

	cfg.FeedTTL = getEnvDuration("CACHE_TTL_FEED", 10*time.Minute)
	cfg.SuggestTTL = getEnvDuration("CACHE_TTL_SUGGEST", 10*time.Minute)

	cfg.SummaryTimeout = getEnvDuration("SUMMARY_TIMEOUT", 90*time.Second)
	cfg.SummaryMaxSentences = getEnvInt("SUMMARY_MAX_SENTENCES", 6)

	cfg.EngagementCasualMax = getEnvInt("ENGAGEMENT_CASUAL_MAX", 10)
	cfg.EngagementActiveMax = getEnvInt("ENGAGEMENT_ACTIVE_MAX", 25)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitRefresh = getEnvInt("RATE_LIMIT_REFRESH", 10)

	cfg.LogRetentionDays = getEnvInt("LOG_RETENTION_DAYS", 90)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:5173")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
