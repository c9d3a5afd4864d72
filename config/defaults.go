// =============================================================================
// AgentSandbox 默认配置
// =============================================================================
package config

import (
	"github.com/BaSui01/agentsandbox/agent/execution"
	"github.com/BaSui01/agentsandbox/llm/retry"
)

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Sandbox: DefaultSandboxConfig(),
		Retry:   DefaultRetryConfig(),
		Log:     DefaultLogConfig(),
		Metrics: DefaultMetricsConfig(),
	}
}

// DefaultSandboxConfig 与 execution.DefaultExecutorConfig 保持一致
func DefaultSandboxConfig() SandboxConfig {
	base := execution.DefaultExecutorConfig()
	policies := make(map[string]bool, len(base.Policies))
	for lang, run := range base.Policies {
		policies[string(lang)] = run
	}
	return SandboxConfig{
		WorkDir:          base.WorkDir,
		Timeout:          base.Timeout,
		RestrictionLevel: int(base.RestrictionLevel),
		StreamOutput:     base.StreamOutput,
		Policies:         policies,
		FailureOutputCap: base.OutputLimits.FailureCap,
		SuccessOutputCap: base.OutputLimits.SuccessCap,
	}
}

// DefaultRetryConfig 返回默认重试配置
func DefaultRetryConfig() RetryConfig {
	opts := retry.DefaultRetryOptions()
	return RetryConfig{
		MaxAttempts:    opts.MaxAttempts,
		InitialDelay:   opts.InitialDelay,
		MaxDelay:       opts.MaxDelay,
		Multiplier:     opts.Multiplier,
		Jitter:         opts.Jitter,
		RateLimitBurst: 1,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stderr"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultMetricsConfig 返回默认指标配置
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:   false,
		Namespace: "agentsandbox",
	}
}

