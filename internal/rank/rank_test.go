package rank

import (
	"testing"
	"time"

	"github.com/iabetor/ainews/internal/feed"
)

var testNow = time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)

func newTestRanker(minScore float64) *Ranker {
	r := New(nil, nil, minScore)
	r.now = func() time.Time { return testNow }
	return r
}

func TestScoreKeywordRelevance(t *testing.T) {
	r := newTestRanker(0)

	relevant := feed.Article{
		Title:   "OpenAI releases new LLM with improved inference",
		Summary: "The model uses a new transformer architecture",
	}
	if got := r.Score(relevant); got <= 0 {
		t.Errorf("AI 相关文章得分应大于 0，实际 %f", got)
	}

	irrelevant := feed.Article{
		Title:   "Best banana bread recipes for the weekend brunch",
		Summary: "Flour, sugar and the perfect oven temperature",
	}
	if got := r.Score(irrelevant); got != 0 {
		t.Errorf("零关键词命中的文章应得 0 分，实际 %f", got)
	}
}

func TestScoreExcludeKeywords(t *testing.T) {
	r := newTestRanker(0)

	a := feed.Article{Title: "Sponsored: the best AI chatbot deals this machine learning week"}
	if got := r.Score(a); got != 0 {
		t.Errorf("命中排除词的文章应得 0 分，实际 %f", got)
	}
}

func TestScoreRecencyBonus(t *testing.T) {
	r := newTestRanker(0)

	fresh := feed.Article{
		Title:     "New machine learning framework announced today",
		Published: testNow.Add(-1 * time.Hour),
	}
	stale := feed.Article{
		Title:     "New machine learning framework announced today",
		Published: testNow.Add(-10 * 24 * time.Hour),
	}
	if r.Score(fresh) <= r.Score(stale) {
		t.Errorf("新文章得分应高于旧文章: %f vs %f", r.Score(fresh), r.Score(stale))
	}
}

func TestScoreTrustedSourceBonus(t *testing.T) {
	r := newTestRanker(0)

	a := feed.Article{Title: "Advances in machine learning optimization"}
	plain := a
	plain.Source = "Random Blog"
	trusted := a
	trusted.Source = "DeepMind Blog"

	if r.Score(trusted) <= r.Score(plain) {
		t.Errorf("权威信源应有加分: %f vs %f", r.Score(trusted), r.Score(plain))
	}
}

func TestRankDedupKeepsHigherScore(t *testing.T) {
	r := newTestRanker(0)

	articles := []feed.Article{
		{Source: "A", Title: "x", Link: "https://example.com/1", RawScore: 20},
		{Source: "B", Title: "x", Link: "https://example.com/1", RawScore: 35},
	}
	out := r.Rank(articles, 10)
	if len(out) != 1 {
		t.Fatalf("相同 link 应只保留一条，实际 %d 条", len(out))
	}
	if out[0].Source != "B" {
		t.Errorf("应保留得分更高的一条，实际来自 %s", out[0].Source)
	}
}

func TestRankDedupTieBreaksByEarlierPublished(t *testing.T) {
	r := newTestRanker(0)

	articles := []feed.Article{
		{Source: "A", Link: "https://example.com/1", RawScore: 20, Published: testNow.Add(-1 * time.Hour)},
		{Source: "B", Link: "https://example.com/1", RawScore: 20, Published: testNow.Add(-2 * time.Hour)},
	}
	out := r.Rank(articles, 10)
	if len(out) != 1 {
		t.Fatalf("期望 1 条，实际 %d 条", len(out))
	}
	if out[0].Source != "B" {
		t.Errorf("同分时应保留发布更早的一条，实际来自 %s", out[0].Source)
	}
}

func TestRankFiltersBelowThreshold(t *testing.T) {
	r := newTestRanker(15)

	articles := []feed.Article{
		{Link: "https://example.com/1", RawScore: 10},
		{Link: "https://example.com/2", RawScore: 20},
		{Link: "https://example.com/3", RawScore: 0},
	}
	out := r.Rank(articles, 10)
	if len(out) != 1 {
		t.Fatalf("仅 1 条超过阈值，实际保留 %d 条", len(out))
	}
	if out[0].Link != "https://example.com/2" {
		t.Errorf("保留了错误的条目: %s", out[0].Link)
	}
}

func TestRankDeterministicOrder(t *testing.T) {
	r := newTestRanker(0)

	articles := []feed.Article{
		{Source: "B", Link: "https://b.com/1", RawScore: 20, Published: testNow},
		{Source: "A", Link: "https://a.com/1", RawScore: 20, Published: testNow},
		{Source: "C", Link: "https://c.com/1", RawScore: 30, Published: testNow.Add(-time.Hour)},
		{Source: "D", Link: "https://d.com/1", RawScore: 20, Published: testNow.Add(time.Hour)},
	}

	// 输入顺序不同结果应完全一致
	for i := 0; i < 5; i++ {
		out := r.Rank(articles, 10)
		if out[0].Source != "C" || out[1].Source != "D" || out[2].Source != "A" || out[3].Source != "B" {
			t.Fatalf("排序不符合 得分→时间→源名: %v", sourcesOf(out))
		}
		// 轮转输入顺序
		articles = append(articles[1:], articles[0])
	}
}

func TestRankBounding(t *testing.T) {
	r := newTestRanker(0)

	var articles []feed.Article
	for i := 0; i < 20; i++ {
		articles = append(articles, feed.Article{
			Link:     "https://example.com/" + string(rune('a'+i)),
			RawScore: float64(i + 1),
		})
	}

	for _, k := range []int{0, 1, 5, 20, 100} {
		out := r.Rank(articles, k)
		if len(out) > k {
			t.Errorf("maxTotal=%d 时返回 %d 条", k, len(out))
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	r := newTestRanker(0)

	articles := []feed.Article{
		{Source: "A", Link: "https://a.com/1", RawScore: 10},
		{Source: "B", Link: "https://b.com/1", RawScore: 20},
	}
	_ = r.Rank(articles, 10)
	if articles[0].Source != "A" || articles[1].Source != "B" {
		t.Error("Rank 不应修改输入切片")
	}
}

func TestCustomVocabulary(t *testing.T) {
	r := New([]string{"quantum"}, nil, 0)
	r.now = func() time.Time { return testNow }

	a := feed.Article{Title: "Quantum computing breakthrough announced this week"}
	if r.Score(a) <= 0 {
		t.Error("自定义词表应命中 quantum")
	}

	b := feed.Article{Title: "OpenAI machine learning news roundup"}
	if r.Score(b) != 0 {
		t.Error("自定义词表后内置词不应再命中")
	}
}

func sourcesOf(articles []feed.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.Source
	}
	return out
}
