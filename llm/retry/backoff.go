package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy 描述一次调用的重试方式
type RetryPolicy struct {
	MaxRetries      int                                               // 首次调用之后允许的重试次数
	InitialDelay    time.Duration                                     // 第一次退避等待
	MaxDelay        time.Duration                                     // 单次退避上限
	Multiplier      float64                                           // 指数退避倍数
	Jitter          bool                                              // 是否给等待时间加 ±25% 抖动
	RetryableErrors []error                                           // errors.Is 命中即重试；与 RetryIf 同时为空时重试所有错误
	RetryIf         func(err error) bool                              // 自定义判定，优先于 RetryableErrors
	OnRetry         func(attempt int, err error, delay time.Duration) // 每次退避前调用，attempt 为已失败次数
	OnGiveUp        func(attempts int, err error)                     // 重试次数耗尽时调用
}

// DefaultRetryPolicy 与上游模型调用的默认节奏一致：共 5 次尝试
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:   4,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// Retryer 重试器接口
type Retryer interface {
	// Do 执行 fn，失败时按策略重试
	Do(ctx context.Context, fn func() error) error

	// DoWithResult 执行 fn 并返回结果，失败时按策略重试
	DoWithResult(ctx context.Context, fn func() (any, error)) (any, error)
}

type backoffRetryer struct {
	policy *RetryPolicy
	logger *zap.Logger
}

// NewBackoffRetryer 创建指数退避重试器，非法参数会被修正为默认值
func NewBackoffRetryer(policy *RetryPolicy, logger *zap.Logger) Retryer {
	if policy == nil {
		policy = DefaultRetryPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := *policy
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = 1 * time.Second
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 60 * time.Second
	}
	if p.MaxDelay < p.InitialDelay {
		p.MaxDelay = p.InitialDelay
	}
	if p.Multiplier < 1.0 {
		p.Multiplier = 2.0
	}

	return &backoffRetryer{
		policy: &p,
		logger: logger.With(zap.String("component", "retry")),
	}
}

func (r *backoffRetryer) Do(ctx context.Context, fn func() error) error {
	_, err := r.DoWithResult(ctx, func() (any, error) {
		return nil, fn()
	})
	return err
}

func (r *backoffRetryer) DoWithResult(ctx context.Context, fn func() (any, error)) (any, error) {
	var (
		lastErr error
		result  any
	)

	attempts := 0
	for attempts <= r.policy.MaxRetries {
		if attempts > 0 {
			delay := r.calculateDelay(attempts)

			r.logger.Debug("等待后重试",
				zap.Int("tries", attempts),
				zap.Int("max_retries", r.policy.MaxRetries),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			if r.policy.OnRetry != nil {
				r.policy.OnRetry(attempts, lastErr, delay)
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("重试被取消: %w", ctx.Err())
			case <-timer.C:
			}
		}

		result, lastErr = fn()
		attempts++

		if lastErr == nil {
			if attempts > 1 {
				r.logger.Info("重试后成功", zap.Int("tries", attempts))
			}
			return result, nil
		}

		// 不可重试的错误原样返回
		if !r.isRetryable(lastErr) {
			r.logger.Debug("错误不可重试", zap.Error(lastErr))
			return nil, lastErr
		}
	}

	r.logger.Warn("放弃重试",
		zap.Int("tries", attempts),
		zap.Error(lastErr),
	)
	if r.policy.OnGiveUp != nil {
		r.policy.OnGiveUp(attempts, lastErr)
	}

	return nil, fmt.Errorf("尝试 %d 次后仍失败: %w", attempts, lastErr)
}

// calculateDelay 计算第 attempt 次失败后的等待：initial * multiplier^(attempt-1)，封顶 MaxDelay
func (r *backoffRetryer) calculateDelay(attempt int) time.Duration {
	delay := float64(r.policy.InitialDelay) * math.Pow(r.policy.Multiplier, float64(attempt-1))
	if delay > float64(r.policy.MaxDelay) {
		delay = float64(r.policy.MaxDelay)
	}

	if r.policy.Jitter {
		spread := delay * 0.25
		delay += (rand.Float64()*2 - 1) * spread
	}

	if delay < float64(r.policy.InitialDelay) {
		delay = float64(r.policy.InitialDelay)
	}
	return time.Duration(delay)
}

func (r *backoffRetryer) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r.policy.RetryIf != nil {
		return r.policy.RetryIf(err)
	}
	if len(r.policy.RetryableErrors) == 0 {
		return true
	}
	for _, target := range r.policy.RetryableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RetryableError 显式标记一个错误应当重试
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryableError 判断错误链中是否有 *RetryableError。
// IsTransient 对这类错误同样返回 true。
func IsRetryableError(err error) bool {
	var retryableErr *RetryableError
	return errors.As(err, &retryableErr)
}

// WrapRetryable 将错误包装为可重试错误
func WrapRetryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}
