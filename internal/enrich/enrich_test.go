package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iabetor/ainews/internal/feed"
)

type stubSummarizer struct {
	result string
	err    error
	calls  int
}

func (s *stubSummarizer) Summarize(ctx context.Context, title, body string) (string, error) {
	s.calls++
	return s.result, s.err
}

type stubTranslator struct {
	prefix string
	err    error
}

func (s *stubTranslator) Translate(ctx context.Context, text string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.prefix + text, nil
}

func testArticles() []feed.Article {
	return []feed.Article{
		{Title: "First AI article", Summary: "about machine learning", Link: "https://a.com/1"},
		{Title: "Second AI article", Summary: "about neural networks", Link: "https://a.com/2"},
	}
}

func TestEnrichWithSummarizer(t *testing.T) {
	e := New(&stubSummarizer{result: "中文摘要"}, nil)

	out := e.Enrich(context.Background(), testArticles())
	for _, a := range out {
		if a.LocalSummary != "中文摘要" {
			t.Errorf("LocalSummary 应被填充: %+v", a)
		}
	}
}

func TestEnrichFailureKeepsArticle(t *testing.T) {
	e := New(&stubSummarizer{err: errors.New("api down")}, nil)

	in := testArticles()
	out := e.Enrich(context.Background(), in)

	if len(out) != len(in) {
		t.Fatalf("失败不应移除文章: 期望 %d 条，实际 %d 条", len(in), len(out))
	}
	for i, a := range out {
		if a.LocalSummary != "" {
			t.Errorf("失败时应保持原文: %+v", a)
		}
		if a.Title != in[i].Title {
			t.Errorf("原文字段不应被改动")
		}
	}
}

func TestEnrichFallsBackToTranslator(t *testing.T) {
	e := New(nil, &stubTranslator{prefix: "译: "})

	out := e.Enrich(context.Background(), testArticles())
	if !strings.HasPrefix(out[0].LocalSummary, "译: First AI article") {
		t.Errorf("无摘要器时应走翻译: %q", out[0].LocalSummary)
	}
}

func TestEnrichNoProvidersReturnsInput(t *testing.T) {
	e := New(nil, nil)

	in := testArticles()
	out := e.Enrich(context.Background(), in)
	if len(out) != len(in) {
		t.Fatal("无处理器时应原样返回")
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	e := New(&stubSummarizer{result: "摘要"}, nil)

	in := testArticles()
	_ = e.Enrich(context.Background(), in)
	for _, a := range in {
		if a.LocalSummary != "" {
			t.Error("Enrich 不应修改输入切片")
		}
	}
}

func TestEnrichContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &stubSummarizer{result: "摘要"}
	e := New(s, nil)

	out := e.Enrich(ctx, testArticles())
	if s.calls != 0 {
		t.Errorf("已取消的上下文不应再调用摘要器，实际 %d 次", s.calls)
	}
	if len(out) != 2 {
		t.Errorf("取消时剩余文章也应保留，实际 %d 条", len(out))
	}
}

func TestOpenAISummarizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization 头不正确: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices":[{"message":{"content":"这是中文摘要"}}]}`)
	}))
	defer srv.Close()

	s := NewOpenAISummarizer(srv.URL, "test-key", "test-model", 150)
	got, err := s.Summarize(context.Background(),
		"A fairly long English news title about artificial intelligence",
		"and an equally descriptive body with enough characters to pass the length check")
	if err != nil {
		t.Fatalf("Summarize 失败: %v", err)
	}
	if got != "这是中文摘要" {
		t.Errorf("摘要内容不匹配: %q", got)
	}
}

func TestOpenAISummarizerAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewOpenAISummarizer(srv.URL, "test-key", "test-model", 150)
	_, err := s.Summarize(context.Background(),
		"A fairly long English news title about artificial intelligence",
		"and an equally descriptive body with enough characters to pass the length check")
	if err == nil {
		t.Fatal("API 错误时应返回错误")
	}
}

func TestOpenAISummarizerShortTextPassthrough(t *testing.T) {
	s := NewOpenAISummarizer("http://unused", "k", "m", 150)
	got, err := s.Summarize(context.Background(), "short", "")
	if err != nil {
		t.Fatalf("短文本不应出错: %v", err)
	}
	if got != "short" {
		t.Errorf("短文本应原样返回: %q", got)
	}
}
