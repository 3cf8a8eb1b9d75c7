package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/newsaura/newsaura/internal/model"
)

// allowAllValidator はテスト用のURL検証。常に許可する。
type allowAllValidator struct{}

func (allowAllValidator) ValidateURL(rawURL string) error { return nil }

// denyAllValidator は常に拒否する。
type denyAllValidator struct{}

func (denyAllValidator) ValidateURL(rawURL string) error {
	return errors.New("blocked")
}

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Headlines</title>
    <item>
      <title>First Story</title>
      <link>https://news.example.com/story1</link>
      <description>Something happened</description>
      <pubDate>Sun, 30 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Second Story</title>
      <link>https://news.example.com/story2</link>
    </item>
    <item>
      <title></title>
      <link>https://news.example.com/no-title</link>
    </item>
  </channel>
</rss>`

func newTestRSSProvider(t *testing.T, handler http.HandlerFunc, guard OutboundValidator) *RSSProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRSSProvider(server.Client(), guard, testLogger(), passthroughSanitizer{}, server.URL, 10*1024*1024)
}

func TestRSSProvider_FetchTopic_Success(t *testing.T) {
	var gotPath string
	p := newTestRSSProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(testRSS))
	}, allowAllValidator{})

	articles, err := p.FetchTopic(context.Background(), model.TopicSports, 40)
	if err != nil {
		t.Fatalf("FetchTopicがエラーを返した: %v", err)
	}
	if gotPath != "/headlines/section/topic/SPORTS" {
		t.Errorf("トピックパスが違う: got %s", gotPath)
	}

	// タイトルを欠く3件目は破棄される
	if len(articles) != 2 {
		t.Fatalf("記事数が違う: got %d, want 2", len(articles))
	}
	if articles[0].Title != "First Story" {
		t.Errorf("タイトルが違う: got %s", articles[0].Title)
	}
	if articles[0].ID != model.ArticleIDFromURL("https://news.example.com/story1") {
		t.Errorf("IDがURLハッシュから導出されていない: got %s", articles[0].ID)
	}
	if articles[0].Category != model.TopicSports {
		t.Errorf("カテゴリが違う: got %s", articles[0].Category)
	}
	if articles[0].PublishedAt == nil {
		t.Error("pubDateがパースされていない")
	}
}

func TestRSSProvider_FetchTopic_MaxItems(t *testing.T) {
	p := newTestRSSProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testRSS))
	}, allowAllValidator{})

	articles, err := p.FetchTopic(context.Background(), model.TopicGeneral, 1)
	if err != nil {
		t.Fatalf("FetchTopicがエラーを返した: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("maxItemsで切り詰められていない: got %d", len(articles))
	}
}

func TestRSSProvider_FetchTopic_BlockedURL(t *testing.T) {
	p := newTestRSSProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("検証失敗時にHTTP呼び出しが発生してはいけない")
	}, denyAllValidator{})

	_, err := p.FetchTopic(context.Background(), model.TopicGeneral, 40)
	var ue *model.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("UpstreamErrorであるべき: %v", err)
	}
	if ue.Kind != model.UpstreamInvalidResponse {
		t.Errorf("分類が違う: got %s", ue.Kind)
	}
}

func TestRSSProvider_FetchTopic_ParseFailure(t *testing.T) {
	p := newTestRSSProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not xml`))
	}, allowAllValidator{})

	_, err := p.FetchTopic(context.Background(), model.TopicGeneral, 40)
	var ue *model.UpstreamError
	if !errors.As(err, &ue) || ue.Kind != model.UpstreamInvalidResponse {
		t.Fatalf("パース失敗は不正応答に分類されるべき: %v", err)
	}
}

func TestRSSProvider_FetchTopic_ServerError(t *testing.T) {
	p := newTestRSSProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, allowAllValidator{})

	_, err := p.FetchTopic(context.Background(), model.TopicGeneral, 40)
	var ue *model.UpstreamError
	if !errors.As(err, &ue) || ue.Kind != model.UpstreamTransient {
		t.Fatalf("5xxは一時的障害に分類されるべき: %v", err)
	}
}

func TestRSSProvider_Search_EscapesQuery(t *testing.T) {
	var gotRawQuery string
	p := newTestRSSProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.Query().Get("q")
		w.Write([]byte(testRSS))
	}, allowAllValidator{})

	_, err := p.Search(context.Background(), "climate change", 10)
	if err != nil {
		t.Fatalf("Searchがエラーを返した: %v", err)
	}
	if gotRawQuery != "climate change" {
		t.Errorf("クエリのエスケープが不正: got %q", gotRawQuery)
	}
}
