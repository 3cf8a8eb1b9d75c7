package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newsaura/newsaura/internal/feed"
	"github.com/newsaura/newsaura/internal/middleware"
	"github.com/newsaura/newsaura/internal/model"
)

// mockScoringService はScoringServiceInterfaceのモック実装。
type mockScoringService struct {
	scoreTextFn  func(ctx context.Context, text string) (*model.SentimentResult, error)
	getSummaryFn func(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error)
}

func (m *mockScoringService) ScoreText(ctx context.Context, text string) (*model.SentimentResult, error) {
	return m.scoreTextFn(ctx, text)
}

func (m *mockScoringService) GetSummary(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error) {
	return m.getSummaryFn(ctx, req)
}

func newAuthedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-test"))
}

func TestScoringHandler_ScoreSentiment_Success(t *testing.T) {
	service := &mockScoringService{
		scoreTextFn: func(ctx context.Context, text string) (*model.SentimentResult, error) {
			if text != "great wonderful news" {
				t.Errorf("text = %q, want %q", text, "great wonderful news")
			}
			return &model.SentimentResult{
				Label:      model.SentimentPositive,
				Confidence: 0.3,
				ModelID:    "lexicon-v1",
			}, nil
		},
	}

	h := NewScoringHandler(service)

	req := newAuthedRequest(http.MethodPost, "/api/sentiment", `{"text":"great wonderful news"}`)
	w := httptest.NewRecorder()

	h.ScoreSentiment(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body model.SentimentResult
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Label != model.SentimentPositive {
		t.Errorf("label = %q, want %q", body.Label, model.SentimentPositive)
	}
	if body.ModelID != "lexicon-v1" {
		t.Errorf("model_id = %q, want %q", body.ModelID, "lexicon-v1")
	}
}

func TestScoringHandler_ScoreSentiment_InvalidBody_Returns400(t *testing.T) {
	h := NewScoringHandler(&mockScoringService{})

	req := newAuthedRequest(http.MethodPost, "/api/sentiment", `{invalid json`)
	w := httptest.NewRecorder()

	h.ScoreSentiment(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusBadRequest)
	}
}

func TestScoringHandler_ScoreSentiment_TextTooShort_Returns400(t *testing.T) {
	service := &mockScoringService{
		scoreTextFn: func(ctx context.Context, text string) (*model.SentimentResult, error) {
			return nil, model.NewTextTooShortError()
		},
	}

	h := NewScoringHandler(service)

	req := newAuthedRequest(http.MethodPost, "/api/sentiment", `{"text":"ab"}`)
	w := httptest.NewRecorder()

	h.ScoreSentiment(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != model.ErrCodeTextTooShort {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeTextTooShort)
	}
}

func TestScoringHandler_GetSummary_Success(t *testing.T) {
	service := &mockScoringService{
		getSummaryFn: func(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error) {
			if req.UserID != "user-test" {
				t.Errorf("userID = %q, want %q", req.UserID, "user-test")
			}
			if req.URL != "https://example.com/article" {
				t.Errorf("url = %q, want %q", req.URL, "https://example.com/article")
			}
			return &model.SummaryResult{
				Summary:    "要約テキスト",
				Provenance: model.ProvenanceGenerated,
			}, nil
		},
	}

	h := NewScoringHandler(service)

	req := newAuthedRequest(http.MethodPost, "/api/summary", `{"url":"https://example.com/article"}`)
	w := httptest.NewRecorder()

	h.GetSummary(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Summary != "要約テキスト" {
		t.Errorf("summary = %q, want %q", body.Summary, "要約テキスト")
	}
	if body.Source != "generated" {
		t.Errorf("source = %q, want %q", body.Source, "generated")
	}
	if body.IsFallback {
		t.Error("is_fallback should be false for generated summary")
	}
}

func TestScoringHandler_GetSummary_DescriptionFallback_SetsIsFallback(t *testing.T) {
	service := &mockScoringService{
		getSummaryFn: func(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error) {
			return &model.SummaryResult{
				Summary:    "説明文へのフォールバック",
				Provenance: model.ProvenanceDescription,
			}, nil
		},
	}

	h := NewScoringHandler(service)

	req := newAuthedRequest(http.MethodPost, "/api/summary", `{"url":"https://example.com/a","description":"説明文"}`)
	w := httptest.NewRecorder()

	h.GetSummary(w, req)

	var body summaryResponse
	json.NewDecoder(w.Result().Body).Decode(&body)
	if !body.IsFallback {
		t.Error("is_fallback should be true for description fallback")
	}
	if body.Source != "description_fallback" {
		t.Errorf("source = %q, want %q", body.Source, "description_fallback")
	}
}

func TestScoringHandler_GetSummary_URLRequired_Returns400(t *testing.T) {
	service := &mockScoringService{
		getSummaryFn: func(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error) {
			return nil, model.NewURLRequiredError()
		},
	}

	h := NewScoringHandler(service)

	req := newAuthedRequest(http.MethodPost, "/api/summary", `{"content":"本文だけでURLなし"}`)
	w := httptest.NewRecorder()

	h.GetSummary(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != model.ErrCodeURLRequired {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeURLRequired)
	}
}

func TestScoringHandler_GetSummary_SummarizationFailed_Returns502(t *testing.T) {
	service := &mockScoringService{
		getSummaryFn: func(ctx context.Context, req feed.SummaryRequest) (*model.SummaryResult, error) {
			return nil, model.NewSummarizationFailedError("summarizer broken")
		},
	}

	h := NewScoringHandler(service)

	req := newAuthedRequest(http.MethodPost, "/api/summary", `{"url":"https://example.com/a"}`)
	w := httptest.NewRecorder()

	h.GetSummary(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}

	var body apiErrorResponse
	json.NewDecoder(resp.Body).Decode(&body)
	if body.Code != model.ErrCodeSummarizationFailed {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeSummarizationFailed)
	}
}

func TestScoringHandler_GetSummary_NoUserID_Returns401(t *testing.T) {
	h := NewScoringHandler(&mockScoringService{})

	req := httptest.NewRequest(http.MethodPost, "/api/summary", strings.NewReader(`{"url":"https://example.com/a"}`))
	w := httptest.NewRecorder()

	h.GetSummary(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Result().StatusCode, http.StatusUnauthorized)
	}
}
