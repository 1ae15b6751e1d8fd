package enrich

import (
	"context"

	"github.com/iabetor/ainews/internal/feed"
	"github.com/iabetor/ainews/internal/logger"
)

// Enricher 逐条为文章填充 LocalSummary。
// 优先使用大模型摘要，未配置时退化为机器翻译；两者都没有则原样返回。
type Enricher struct {
	summarizer Summarizer
	translator Translator
}

// New 创建 Enricher。两个参数都可为 nil。
func New(summarizer Summarizer, translator Translator) *Enricher {
	return &Enricher{summarizer: summarizer, translator: translator}
}

// Enrich 返回填充了 LocalSummary 的文章副本。
// 单条失败只记录日志并保留原文，不中断后续条目，也不从结果中移除该条。
func (e *Enricher) Enrich(ctx context.Context, articles []feed.Article) []feed.Article {
	if e.summarizer == nil && e.translator == nil {
		return articles
	}

	out := make([]feed.Article, len(articles))
	copy(out, articles)

	for i := range out {
		if ctx.Err() != nil {
			logger.Warnf("[enrich] 上下文已取消，剩余 %d 条保持原文", len(out)-i)
			break
		}

		local, err := e.enrichOne(ctx, out[i])
		if err != nil {
			logger.Warnf("[enrich] %s 处理失败，保留原文: %v", out[i].Title, err)
			continue
		}
		out[i].LocalSummary = local
	}
	return out
}

func (e *Enricher) enrichOne(ctx context.Context, a feed.Article) (string, error) {
	if e.summarizer != nil {
		return e.summarizer.Summarize(ctx, a.Title, a.Summary)
	}

	text := a.Title
	if a.Summary != "" {
		text = a.Title + "\n" + a.Summary
	}
	return e.translator.Translate(ctx, text)
}
