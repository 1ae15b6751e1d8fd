package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/iabetor/ainews/internal/cache"
	"github.com/iabetor/ainews/internal/logger"
	"github.com/iabetor/ainews/internal/retry"
)

const (
	userAgent = "ainews/1.0 RSS Aggregator"
	// maxBodyBytes 单个订阅源响应体上限，防止异常源拖垮内存。
	maxBodyBytes = 8 << 20
)

// ScoreFunc 为解析出的文章赋初始相关性得分。
type ScoreFunc func(Article) float64

// Fetcher 单源抓取器：缓存优先，未命中时经重试执行器走网络。
// 所有失败都折叠进 Outcome，不向调用方抛出。
type Fetcher struct {
	cache  *cache.Store
	exec   *retry.Executor
	parser Parser
	client *http.Client
	ttl    time.Duration
	score  ScoreFunc
}

// NewFetcher 创建抓取器。score 为 nil 时文章得分保持为零。
func NewFetcher(store *cache.Store, exec *retry.Executor, parser Parser, ttl time.Duration, score ScoreFunc) *Fetcher {
	return &Fetcher{
		cache:  store,
		exec:   exec,
		parser: parser,
		client: &http.Client{},
		ttl:    ttl,
		score:  score,
	}
}

// Fetch 抓取单个源并返回结果。耗时上界为缓存查询 + 有界重试 + 解析，
// 永不无限阻塞；任何错误都记录在 Outcome.Err 中。
func (f *Fetcher) Fetch(ctx context.Context, src Source) Outcome {
	key := cache.Key(src.URL)

	payload, hit := f.cache.Get(key)
	if hit {
		logger.Debugf("[feed] %s 缓存命中，跳过网络请求", src.Name)
	} else {
		var err error
		payload, err = f.fetchRemote(ctx, src)
		if err != nil {
			logger.Warnf("[feed] 抓取 %s 失败: %v", src.Name, err)
			return Outcome{Source: src, Err: err}
		}
		// 只有成功的抓取才写入缓存
		f.cache.Put(key, payload, f.ttl)
	}

	articles, err := f.parser.Parse(payload, src.Name)
	if err != nil {
		logger.Warnf("[feed] 解析 %s 失败: %v", src.Name, err)
		return Outcome{Source: src, Err: err}
	}

	if f.score != nil {
		for i := range articles {
			articles[i].RawScore = f.score(articles[i])
		}
	}

	logger.Infof("[feed] %s 获取 %d 条（缓存命中: %v）", src.Name, len(articles), hit)
	return Outcome{Source: src, Articles: articles}
}

// fetchRemote 经重试执行器执行 HTTP GET，返回原始响应体。
func (f *Fetcher) fetchRemote(ctx context.Context, src Source) ([]byte, error) {
	var payload []byte
	err := f.exec.Do(ctx, src.Name, func(ctx context.Context) error {
		data, err := f.download(ctx, src.URL)
		if err != nil {
			return err
		}
		payload = data
		return nil
	})
	if err != nil {
		// 全局时限触发的取消统一归类为超时
		if _, ok := KindOf(err); !ok && ctx.Err() != nil {
			return nil, NewError(KindTimeout, err)
		}
		return nil, err
	}
	return payload, nil
}

// download 执行单次 HTTP GET 并分类失败原因。
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewError(KindPermanent, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err) {
			return nil, NewError(KindTimeout, err)
		}
		return nil, NewError(KindTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// 正常，继续读取
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, NewError(KindTransient, fmt.Errorf("HTTP %d", resp.StatusCode))
	default:
		return nil, NewError(KindPermanent, fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isNetTimeout(err) {
			return nil, NewError(KindTimeout, err)
		}
		return nil, NewError(KindTransient, err)
	}
	return body, nil
}

func isNetTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
