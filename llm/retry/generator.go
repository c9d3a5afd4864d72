package retry

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/agentsandbox/types"
)

// DefaultMaxAttempts 单次回复生成的最大尝试次数（含首次）
const DefaultMaxAttempts = 5

// Reply 模型生成的一条回复
type Reply struct {
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ReplyGenerator 根据会话历史生成回复
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, messages []types.Message) (*Reply, error)
}

// ReplyGeneratorFunc 将普通函数适配为 ReplyGenerator
type ReplyGeneratorFunc func(ctx context.Context, messages []types.Message) (*Reply, error)

func (f ReplyGeneratorFunc) GenerateReply(ctx context.Context, messages []types.Message) (*Reply, error) {
	return f(ctx, messages)
}

// AttemptRecorder 记录每次失败尝试的分类
type AttemptRecorder interface {
	RecordRetryAttempt(kind string)
}

type nopAttemptRecorder struct{}

func (nopAttemptRecorder) RecordRetryAttempt(string) {}

// RetryOptions 重试生成器配置
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Limiter      *rate.Limiter // 可选，每次尝试前等待令牌
	Metrics      AttemptRecorder
	Logger       *zap.Logger
}

// DefaultRetryOptions 返回默认配置
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: 1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// RetryingGenerator 在瞬时故障时重新调用内部生成器
type RetryingGenerator struct {
	inner   ReplyGenerator
	retryer Retryer
	limiter *rate.Limiter
	metrics AttemptRecorder
	logger  *zap.Logger
}

// NewRetryingGenerator 包装 inner。只有 IsTransient 为真的错误会触发退避重试，
// 其余错误在第一次失败后原样返回。
func NewRetryingGenerator(inner ReplyGenerator, opts RetryOptions) *RetryingGenerator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = nopAttemptRecorder{}
	}
	logger := opts.Logger.With(zap.String("component", "retrying_generator"))

	policy := &RetryPolicy{
		MaxRetries:   opts.MaxAttempts - 1,
		InitialDelay: opts.InitialDelay,
		MaxDelay:     opts.MaxDelay,
		Multiplier:   opts.Multiplier,
		Jitter:       opts.Jitter,
		RetryIf:      IsTransient,
		OnRetry: func(tries int, err error, delay time.Duration) {
			logger.Warn(fmt.Sprintf("Backing off %.1f seconds after %d tries", delay.Seconds(), tries),
				zap.Duration("wait", delay),
				zap.Int("tries", tries),
				zap.String("kind", string(KindOf(err))),
				zap.Error(err),
			)
		},
		OnGiveUp: func(tries int, err error) {
			logger.Error(fmt.Sprintf("Giving up after %d tries", tries),
				zap.Int("tries", tries),
				zap.Error(err),
			)
		},
	}

	return &RetryingGenerator{
		inner:   inner,
		retryer: NewBackoffRetryer(policy, logger),
		limiter: opts.Limiter,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// GenerateReply 实现 ReplyGenerator
func (g *RetryingGenerator) GenerateReply(ctx context.Context, messages []types.Message) (*Reply, error) {
	return DoWithResultTyped[*Reply](g.retryer, ctx, func() (*Reply, error) {
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		reply, err := g.inner.GenerateReply(ctx, messages)
		if err != nil {
			err = NormalizeUpstreamError(err)
			g.metrics.RecordRetryAttempt(string(KindOf(err)))
			return nil, err
		}
		return reply, nil
	})
}
