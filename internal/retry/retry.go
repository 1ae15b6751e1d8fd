// Package retry 提供带指数退避和抖动的有界重试执行器。
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/iabetor/ainews/internal/logger"
)

// Config 重试配置。
type Config struct {
	// MaxAttempts 最大尝试次数（含首次），至少为 1。
	MaxAttempts int
	// BaseDelay 首次重试前的基础延迟，之后按 2 的幂递增。
	BaseDelay time.Duration
	// MaxDelay 退避延迟上限。
	MaxDelay time.Duration
	// JitterFactor 抖动系数（0~1），避免多个源同时重试。
	JitterFactor float64
	// AttemptTimeout 单次尝试的超时，为 0 则不限制。
	AttemptTimeout time.Duration
}

// Classifier 判断错误是否可重试。
type Classifier func(error) bool

// Executor 按配置执行带退避的重试。对操作语义一无所知。
type Executor struct {
	cfg       Config
	retryable Classifier
}

// New 创建重试执行器。classifier 为 nil 时所有错误都视为不可重试。
func New(cfg Config, classifier Classifier) *Executor {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Executor{cfg: cfg, retryable: classifier}
}

// Do 执行 op，失败且可重试时按指数退避重试，直到成功、耗尽次数或 ctx 取消。
// 返回的错误始终包装最后一次失败原因；永不 panic 透传。
func (e *Executor) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		attempts = attempt
		attemptCtx := ctx
		var cancel context.CancelFunc
		if e.cfg.AttemptTimeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		}
		lastErr = op(attemptCtx)
		if cancel != nil {
			cancel()
		}

		if lastErr == nil {
			if attempt > 1 {
				logger.Debugf("[retry] %s 第 %d 次尝试成功", name, attempt)
			}
			return nil
		}

		// 外层 ctx 已取消则立即终止，不再退避
		if ctx.Err() != nil {
			return fmt.Errorf("%s: 重试被取消: %w", name, ctx.Err())
		}

		retryable := e.retryable != nil && e.retryable(lastErr)
		if !retryable || attempt == e.cfg.MaxAttempts {
			break
		}

		delay := e.delay(attempt)
		logger.Debugf("[retry] %s 第 %d 次尝试失败，%v 后重试: %v", name, attempt, delay, lastErr)

		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: 重试被取消: %w", name, ctx.Err())
		case <-time.After(delay):
		}
	}

	return fmt.Errorf("%s: 尝试 %d 次后仍失败: %w", name, attempts, lastErr)
}

// delay 计算第 attempt 次失败后的退避延迟：base * 2^(attempt-1)，封顶后加抖动。
func (e *Executor) delay(attempt int) time.Duration {
	d := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt-1))
	if limit := float64(e.cfg.MaxDelay); e.cfg.MaxDelay > 0 && d > limit {
		d = limit
	}
	if e.cfg.JitterFactor > 0 {
		d *= 1 + (rand.Float64()-0.5)*e.cfg.JitterFactor
	}
	return time.Duration(d)
}
