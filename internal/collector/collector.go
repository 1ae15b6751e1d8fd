// Package collector 将单源抓取并发扇出到全部新闻源，并在统一汇合点合并结果。
// 单个源的失败或超时不影响其余源（失败隔离）。
package collector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iabetor/ainews/internal/feed"
	"github.com/iabetor/ainews/internal/logger"
	"github.com/iabetor/ainews/internal/rank"
)

// Config 采集配置。
type Config struct {
	// Concurrency 同时在途的抓取任务上限。
	Concurrency int
	// Deadline 整轮采集的总时限。
	Deadline time.Duration
	// MaxPerFeed 合并前每个源保留的最大条目数。
	MaxPerFeed int
	// MaxTotal 排序后最终保留的最大条目数。
	MaxTotal int
}

// Result 一轮采集的完整结果，每次调用新建，不做持久化。
type Result struct {
	// RunID 本轮采集的短标识，用于日志关联和归档。
	RunID string
	// Outcomes 与配置的源一一对应，含失败的源。
	Outcomes []feed.Outcome
	// Articles 过滤排序后的最终文章序列。
	Articles []feed.Article
	// Elapsed 本轮耗时。
	Elapsed time.Duration
}

// Collector 采集编排器。
type Collector struct {
	fetcher *feed.Fetcher
	ranker  *rank.Ranker
	cfg     Config
}

// New 创建采集编排器。
func New(fetcher *feed.Fetcher, ranker *rank.Ranker, cfg Config) *Collector {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Collector{fetcher: fetcher, ranker: ranker, cfg: cfg}
}

// Collect 并发抓取全部源并返回合并结果。
// 保证 len(Outcomes) == len(sources)：超时或失败的源以错误 Outcome 记录，
// 绝不静默丢弃。合并发生在所有任务结束后的单一汇合点。
func (c *Collector) Collect(ctx context.Context, sources []feed.Source) Result {
	start := time.Now()
	runID := uuid.NewString()[:8]
	logger.Infof("[collector] 开始采集 %d 个源 (run=%s, concurrency=%d, deadline=%v)",
		len(sources), runID, c.cfg.Concurrency, c.cfg.Deadline)

	if c.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Deadline)
		defer cancel()
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		sem      = make(chan struct{}, c.cfg.Concurrency)
		outcomes = make([]feed.Outcome, 0, len(sources))
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src feed.Source) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				// 还没轮到执行就已超时，也要记录一条超时 Outcome
				mu.Lock()
				outcomes = append(outcomes, feed.Outcome{
					Source: src,
					Err:    feed.NewError(feed.KindTimeout, ctx.Err()),
				})
				mu.Unlock()
				return
			}

			outcome := c.fetcher.Fetch(ctx, src)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
		}(src)
	}
	wg.Wait()

	succeeded := 0
	merged := make([]feed.Article, 0, len(sources)*c.cfg.MaxPerFeed)
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		succeeded++
		articles := o.Articles
		// 合并前按源内原始顺序截断到 MaxPerFeed
		if c.cfg.MaxPerFeed > 0 && len(articles) > c.cfg.MaxPerFeed {
			articles = articles[:c.cfg.MaxPerFeed]
		}
		merged = append(merged, articles...)
	}

	ranked := c.ranker.Rank(merged, c.cfg.MaxTotal)

	elapsed := time.Since(start)
	logger.Infof("[collector] 采集完成 (run=%s): %d/%d 个源成功，候选 %d 条，输出 %d 条，耗时 %v",
		runID, succeeded, len(sources), len(merged), len(ranked), elapsed)

	// Outcome 顺序与并发完成顺序相关，按源名排序便于阅读；
	// 文章顺序完全由排序键决定，与调度顺序无关。
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Source.Name < outcomes[j].Source.Name
	})

	return Result{RunID: runID, Outcomes: outcomes, Articles: ranked, Elapsed: elapsed}
}
