package config

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/agentsandbox/agent/execution"
	"github.com/BaSui01/agentsandbox/agent/guardrails"
	"github.com/BaSui01/agentsandbox/llm/retry"
)

// ExecutorConfig 转换为执行器配置
func (s SandboxConfig) ExecutorConfig() execution.ExecutorConfig {
	cfg := execution.ExecutorConfig{
		WorkDir:          s.WorkDir,
		Timeout:          s.Timeout,
		RestrictionLevel: guardrails.RestrictionLevel(s.RestrictionLevel),
		StreamOutput:     s.StreamOutput,
		OutputLimits: execution.OutputLimits{
			FailureCap: s.FailureOutputCap,
			SuccessCap: s.SuccessOutputCap,
		},
	}
	if len(s.Policies) > 0 {
		cfg.Policies = make(execution.ExecutionPolicy, len(s.Policies))
		for lang, run := range s.Policies {
			cfg.Policies[execution.Language(strings.ToLower(lang))] = run
		}
	}
	if s.VenvBinPath != "" {
		cfg.VirtualEnv = &execution.VirtualEnv{
			BinPath:          s.VenvBinPath,
			ActivationScript: s.VenvActivationScript,
		}
	}
	return cfg
}

// RetryOptions 转换为重试生成器配置，RateLimitRPS > 0 时附带限流器
func (r RetryConfig) RetryOptions(logger *zap.Logger, metrics retry.AttemptRecorder) retry.RetryOptions {
	opts := retry.RetryOptions{
		MaxAttempts:  r.MaxAttempts,
		InitialDelay: r.InitialDelay,
		MaxDelay:     r.MaxDelay,
		Multiplier:   r.Multiplier,
		Jitter:       r.Jitter,
		Metrics:      metrics,
		Logger:       logger,
	}
	if r.RateLimitRPS > 0 {
		burst := r.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		opts.Limiter = rate.NewLimiter(rate.Limit(r.RateLimitRPS), burst)
	}
	return opts
}
