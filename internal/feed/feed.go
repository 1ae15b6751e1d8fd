// Package feed 定义新闻源与文章模型，并提供带缓存和重试的单源抓取器。
package feed

import "time"

// Source 新闻源，启动时给定，进程内不变。
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Article 从订阅源解析出的一条文章。
// RawScore 由注入的打分函数在解析时赋值，排序定稿后不再修改。
type Article struct {
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Summary   string    `json:"summary"`
	Published time.Time `json:"published,omitempty"`
	RawScore  float64   `json:"raw_score"`
	// LocalSummary 翻译/摘要后的本地语言内容，由 enrich 填充；失败时保持为空。
	LocalSummary string `json:"local_summary,omitempty"`
}

// Outcome 单个源一轮采集的结果。要么 Articles（可为空）无错误，
// 要么 Err 非空且 Articles 为空，不存在半填充状态。
type Outcome struct {
	Source   Source
	Articles []Article
	Err      error
}

// OK 报告该源本轮是否采集成功。
func (o Outcome) OK() bool { return o.Err == nil }
