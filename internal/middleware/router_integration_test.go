package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// TestRouterIntegration_ProtectedRoute_WithMiddlewareChain は
// Identity -> RateLimit のミドルウェアチェーンがchi.Routerで正しく動作することを検証する。
func TestRouterIntegration_ProtectedRoute_WithMiddlewareChain(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     100,
		GeneralBurst:    200,
		RefreshRate:     1,
		RefreshBurst:    1,
		CleanupInterval: 1 * time.Minute,
	})
	defer rl.Stop()

	r := chi.NewRouter()

	// ヘルスチェック（認証不要）
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// 認証が必要なルートグループ
	r.Group(func(r chi.Router) {
		r.Use(NewIdentityMiddleware())
		r.Use(rl.GeneralMiddleware())

		r.Get("/api/protected", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserIDFromContext(r.Context())
			json.NewEncoder(w).Encode(map[string]string{"user_id": userID})
		})

		r.With(rl.RefreshMiddleware()).Post("/api/news/refresh/{topic}", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"topic": chi.URLParam(r, "topic")})
		})
	})

	// テスト1: GET /api/protected は認証ありで通る
	t.Run("GET_protected_with_identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
		req.Header.Set("X-User-ID", "user-router-test")
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}

		var body map[string]string
		json.NewDecoder(w.Result().Body).Decode(&body)
		if body["user_id"] != "user-router-test" {
			t.Errorf("user_id = %q, want %q", body["user_id"], "user-router-test")
		}
	})

	// テスト2: GET /api/protected は認証なしで401
	t.Run("GET_protected_no_identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
		}
	})

	// テスト3: ヘルスチェックは認証不要
	t.Run("health_no_auth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		r.ServeHTTP(w, req)

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusOK)
		}
	})

	// テスト4: 再取得ルートは専用レート制限が適用される（バースト1、2回目は429）
	t.Run("POST_refresh_rate_limited", func(t *testing.T) {
		req1 := httptest.NewRequest(http.MethodPost, "/api/news/refresh/sports", nil)
		req1.Header.Set("X-User-ID", "user-refresh-chain")
		w1 := httptest.NewRecorder()
		r.ServeHTTP(w1, req1)

		if w1.Result().StatusCode != http.StatusOK {
			t.Fatalf("request 1: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
		}

		req2 := httptest.NewRequest(http.MethodPost, "/api/news/refresh/sports", nil)
		req2.Header.Set("X-User-ID", "user-refresh-chain")
		w2 := httptest.NewRecorder()
		r.ServeHTTP(w2, req2)

		if w2.Result().StatusCode != http.StatusTooManyRequests {
			t.Errorf("request 2: status = %d, want %d", w2.Result().StatusCode, http.StatusTooManyRequests)
		}
	})
}
