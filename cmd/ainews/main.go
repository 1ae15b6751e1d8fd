package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iabetor/ainews/internal/archive"
	"github.com/iabetor/ainews/internal/cache"
	"github.com/iabetor/ainews/internal/collector"
	"github.com/iabetor/ainews/internal/config"
	"github.com/iabetor/ainews/internal/enrich"
	"github.com/iabetor/ainews/internal/feed"
	"github.com/iabetor/ainews/internal/logger"
	"github.com/iabetor/ainews/internal/output"
	"github.com/iabetor/ainews/internal/rank"
	"github.com/iabetor/ainews/internal/retry"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（可选）")
	maxPerFeed := flag.Int("max-per-feed", 0, "每个源保留的最大条目数（覆盖配置）")
	maxTotal := flag.Int("max-total", 0, "输出的最大条目总数（覆盖配置）")
	outFormat := flag.String("output", "", "输出格式: console/json/markdown")
	outFile := flag.String("file", "", "输出文件路径（默认打印到标准输出）")
	logLevel := flag.String("log-level", "", "日志级别: debug/info/warn/error（覆盖配置）")
	cacheDir := flag.String("cache-dir", "", "缓存目录（覆盖配置）")
	feedsFile := flag.String("feeds-file", "", "附加 RSS 源的 JSON 文件（name→url 映射）")
	flag.Parse()

	if err := run(*configPath, *maxPerFeed, *maxTotal, *outFormat, *outFile, *logLevel, *cacheDir, *feedsFile); err != nil {
		fmt.Fprintf(os.Stderr, "ainews: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, maxPerFeed, maxTotal int, outFormat, outFile, logLevel, cacheDir, feedsFile string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	// 命令行参数优先于配置文件
	if maxPerFeed > 0 {
		cfg.Rank.MaxPerFeed = maxPerFeed
	}
	if maxTotal > 0 {
		cfg.Rank.MaxTotal = maxTotal
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if cacheDir != "" {
		cfg.Cache.Dir = cacheDir
	}

	format, err := output.ParseFormat(outFormat)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		return fmt.Errorf("初始化日志失败: %w", err)
	}
	defer logger.Sync()

	logger.Infof("[main] ainews 启动 (log_level=%s)", cfg.Log.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅退出
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在退出...", sig)
		cancel()
	}()

	// 组装订阅源：内置列表 + 配置覆盖 + 命令行附加文件
	sources := feed.MergeSources(feed.BuiltinSources(), cfg.Feeds)
	if feedsFile != "" {
		extra, err := feed.LoadSourcesFile(feedsFile)
		if err != nil {
			return err
		}
		sources = feed.MergeSources(sources, extra)
	}

	ranker := rank.New(cfg.Rank.Keywords, cfg.Rank.ExcludeKeywords, cfg.Rank.MinScore)
	exec := retry.New(retry.Config{
		MaxAttempts:    cfg.Fetch.MaxAttempts,
		BaseDelay:      time.Duration(cfg.Fetch.BaseDelayMs) * time.Millisecond,
		MaxDelay:       time.Duration(cfg.Fetch.MaxDelayMs) * time.Millisecond,
		AttemptTimeout: time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
	}, feed.Retryable)
	fetcher := feed.NewFetcher(
		cache.NewStore(cfg.Cache.Dir),
		exec,
		feed.NewRSSParser(),
		time.Duration(cfg.Cache.TTLMinutes)*time.Minute,
		ranker.Score,
	)

	c := collector.New(fetcher, ranker, collector.Config{
		Concurrency: cfg.Fetch.Concurrency,
		Deadline:    time.Duration(cfg.Fetch.DeadlineSeconds) * time.Second,
		MaxPerFeed:  cfg.Rank.MaxPerFeed,
		MaxTotal:    cfg.Rank.MaxTotal,
	})
	res := c.Collect(ctx, sources)

	articles := enrichArticles(ctx, cfg, res.Articles)

	if cfg.Archive.Enabled {
		if err := archiveResult(cfg.Archive.DBPath, res, articles); err != nil {
			// 归档失败不影响输出
			logger.Warnf("[main] 归档失败: %v", err)
		}
	}

	rendered, err := output.Render(articles, format, time.Now())
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := output.WriteFile(outFile, rendered); err != nil {
			return err
		}
	}
	if outFile == "" || format == output.FormatConsole {
		fmt.Println(rendered)
	}

	logger.Infof("[main] 完成：%d 条新闻，耗时 %v", len(articles), res.Elapsed)
	return nil
}

// enrichArticles 按配置构建摘要器/翻译器并执行增强；两者都未启用时原样返回。
func enrichArticles(ctx context.Context, cfg *config.Config, articles []feed.Article) []feed.Article {
	var summarizer enrich.Summarizer
	if cfg.Summary.Enabled && cfg.Summary.APIKey != "" {
		summarizer = enrich.NewOpenAISummarizer(
			cfg.Summary.APIURL, cfg.Summary.APIKey, cfg.Summary.Model, cfg.Summary.MaxTokens)
	}

	var translator enrich.Translator
	if cfg.Translate.Enabled && cfg.Translate.SecretID != "" {
		t, err := enrich.NewTencentTranslator(
			cfg.Translate.SecretID, cfg.Translate.SecretKey, cfg.Translate.Region, cfg.Translate.TargetLang)
		if err != nil {
			logger.Warnf("[main] 初始化翻译器失败，跳过翻译: %v", err)
		} else {
			translator = t
		}
	}

	if summarizer == nil && translator == nil {
		return articles
	}
	return enrich.New(summarizer, translator).Enrich(ctx, articles)
}

// archiveResult 把本轮结果写入 SQLite 归档。
func archiveResult(dbPath string, res collector.Result, articles []feed.Article) error {
	db, err := archive.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		return err
	}
	if _, err := db.SaveArticles(articles); err != nil {
		return err
	}

	failed := 0
	for _, o := range res.Outcomes {
		if !o.OK() {
			failed++
		}
	}
	return db.SaveRun(res.RunID, len(res.Outcomes), failed, len(articles), res.Elapsed)
}
