// Package rank 对合并后的文章做相关性打分、去重、过滤与确定性排序。
// 纯计算，无 I/O，不修改输入切片。
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/iabetor/ainews/internal/feed"
)

// defaultKeywords 内置 AI 关键词表，标题或摘要至少命中一个才算相关。
var defaultKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning",
	"neural network", "nlp", "natural language", "computer vision",
	"ml", "generative ai", "llm", "gpt", "chatgpt", "gemini", "claude",
	"stable diffusion", "dall-e", "midjourney", "anthropic", "openai",
	"ml ops", "mlops", "rag", "retrieval", "embedding", "transformer",
	"fine-tuning", "fine tune", "inference", "data science", "prompt",
}

// defaultExclude 内置排除词表，标题含这些词的条目（广告、推广）直接出局。
var defaultExclude = []string{
	"sponsor", "sponsored", "advertisement", "promoción",
	"webinar", "register now", "limited time", "discount",
}

// trustedSources 权威信源，命中时加分。
var trustedSources = []string{
	"google", "openai", "anthropic", "deepmind", "microsoft", "mit", "ieee", "arxiv",
}

// 打分权重：相关性最高 40 分，时效最高 30 分，信源最高 15 分。
const (
	relevanceWeight   = 40.0
	recencyFreshMax   = 30.0
	recencyRecentMax  = 15.0
	trustedBonus      = 15.0
	freshWindowHours  = 24.0
	recentWindowHours = 72.0
)

// Ranker 打分与排序器。
type Ranker struct {
	keywords []string
	exclude  []string
	minScore float64
	now      func() time.Time
}

// New 创建 Ranker。keywords/exclude 为空时使用内置词表。
func New(keywords, exclude []string, minScore float64) *Ranker {
	if len(keywords) == 0 {
		keywords = defaultKeywords
	}
	if len(exclude) == 0 {
		exclude = defaultExclude
	}
	return &Ranker{
		keywords: lowerAll(keywords),
		exclude:  lowerAll(exclude),
		minScore: minScore,
		now:      time.Now,
	}
}

// Score 计算文章的相关性得分。
// 零关键词命中或命中排除词的文章得 0 分，后续被过滤。
func (r *Ranker) Score(a feed.Article) float64 {
	title := strings.ToLower(a.Title)
	summary := strings.ToLower(a.Summary)

	for _, kw := range r.exclude {
		if strings.Contains(title, kw) {
			return 0
		}
	}

	titleHits := countHits(title, r.keywords)
	summaryHits := countHits(summary, r.keywords)
	if titleHits == 0 && summaryHits == 0 {
		return 0
	}

	// 相关性 0~1：标题命中最高 0.6，摘要命中最高 0.4
	relevance := minFloat(0.6, float64(titleHits)*0.2) + minFloat(0.4, float64(summaryHits)*0.1)
	score := relevance * relevanceWeight

	if !a.Published.IsZero() {
		ageHours := r.now().Sub(a.Published).Hours()
		switch {
		case ageHours < 0:
			// 未来时间戳按刚发布处理
			score += recencyFreshMax
		case ageHours < freshWindowHours:
			score += recencyFreshMax - ageHours/freshWindowHours*recencyFreshMax
		case ageHours < recentWindowHours:
			score += recencyRecentMax - (ageHours-freshWindowHours)/(recentWindowHours-freshWindowHours)*recencyRecentMax
		}
	}

	source := strings.ToLower(a.Source)
	for _, ts := range trustedSources {
		if strings.Contains(source, ts) {
			score += trustedBonus
			break
		}
	}

	return score
}

// Rank 去重、过滤并排序，截断到 maxTotal。
// 按 link 去重，保留得分更高的一条，同分保留发布更早的；
// 排序键为 得分降序 → 发布时间降序 → 源名升序，与任务完成顺序无关。
func (r *Ranker) Rank(articles []feed.Article, maxTotal int) []feed.Article {
	byLink := make(map[string]feed.Article, len(articles))
	for _, a := range articles {
		if a.RawScore < r.minScore || a.RawScore <= 0 {
			continue
		}
		prev, ok := byLink[a.Link]
		if !ok {
			byLink[a.Link] = a
			continue
		}
		if a.RawScore > prev.RawScore ||
			(a.RawScore == prev.RawScore && earlier(a.Published, prev.Published)) {
			byLink[a.Link] = a
		}
	}

	out := make([]feed.Article, 0, len(byLink))
	for _, a := range byLink {
		out = append(out, a)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore > out[j].RawScore
		}
		if !out[i].Published.Equal(out[j].Published) {
			return out[i].Published.After(out[j].Published)
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Link < out[j].Link
	})

	if maxTotal < 0 {
		maxTotal = 0
	}
	if len(out) > maxTotal {
		out = out[:maxTotal]
	}
	return out
}

// earlier 报告 a 是否早于 b；零值时间视为最晚。
func earlier(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}

func countHits(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
