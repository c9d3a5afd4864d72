// 配置加载器与默认配置测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func noEnv() func(string) (string, bool) {
	return envMap(nil)
}

// --- 默认配置测试 ---

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "coding", cfg.Sandbox.WorkDir)
	assert.Equal(t, 60*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 2, cfg.Sandbox.RestrictionLevel)
	assert.False(t, cfg.Sandbox.StreamOutput)
	assert.Equal(t, 2048, cfg.Sandbox.FailureOutputCap)
	assert.Equal(t, 10000, cfg.Sandbox.SuccessOutputCap)
	assert.True(t, cfg.Sandbox.Policies["python"])
	assert.False(t, cfg.Sandbox.Policies["javascript"])

	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "agentsandbox", cfg.Metrics.Namespace)

	assert.NoError(t, cfg.Validate())
}

// --- Loader 测试 ---

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().WithEnvLookup(noEnv()).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sandbox.yaml")
	yamlContent := `
sandbox:
  work_dir: /tmp/agent-work
  timeout: 5s
  restriction_level: 1
  stream_output: true
  policies:
    javascript: true
  venv_bin_path: /opt/venv/bin
  failure_output_cap: 100
  success_output_cap: 200
retry:
  max_attempts: 3
  rate_limit_rps: 2.5
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0o644))

	cfg, err := NewLoader().WithConfigPath(configPath).WithEnvLookup(noEnv()).Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/agent-work", cfg.Sandbox.WorkDir)
	assert.Equal(t, 5*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 1, cfg.Sandbox.RestrictionLevel)
	assert.True(t, cfg.Sandbox.StreamOutput)
	assert.True(t, cfg.Sandbox.Policies["javascript"])
	assert.True(t, cfg.Sandbox.Policies["bash"], "未写出的默认策略保留")
	assert.Equal(t, "/opt/venv/bin", cfg.Sandbox.VenvBinPath)
	assert.Equal(t, 100, cfg.Sandbox.FailureOutputCap)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2.5, cfg.Retry.RateLimitRPS)
	assert.Equal(t, "debug", cfg.Log.Level)

	// 未出现在文件中的字段保持默认值
	assert.Equal(t, time.Second, cfg.Retry.InitialDelay)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().
		WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).
		WithEnvLookup(noEnv()).
		Load()
	require.NoError(t, err)
	assert.Equal(t, "coding", cfg.Sandbox.WorkDir)
}

func TestLoader_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("sandbox: [oops"), 0o644))

	_, err := NewLoader().WithConfigPath(configPath).WithEnvLookup(noEnv()).Load()
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestLoader_EnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "sandbox.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("sandbox:\n  timeout: 5s\n"), 0o644))

	cfg, err := NewLoader().
		WithConfigPath(configPath).
		WithEnvLookup(envMap(map[string]string{
			"AGENTSANDBOX_SANDBOX_TIMEOUT":           "90s",
			"AGENTSANDBOX_SANDBOX_RESTRICTION_LEVEL": "0",
			"AGENTSANDBOX_SANDBOX_STREAM_OUTPUT":     "true",
			"AGENTSANDBOX_SANDBOX_SECRET_NAMES":      "MY_TOKEN, OTHER_KEY",
			"AGENTSANDBOX_RETRY_MULTIPLIER":          "1.5",
			"AGENTSANDBOX_LOG_OUTPUT_PATHS":          "stdout,/tmp/sandbox.log",
			"AGENTSANDBOX_METRICS_ENABLED":           "true",
		})).
		Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Second, cfg.Sandbox.Timeout)
	assert.Equal(t, 0, cfg.Sandbox.RestrictionLevel)
	assert.True(t, cfg.Sandbox.StreamOutput)
	assert.Equal(t, []string{"MY_TOKEN", "OTHER_KEY"}, cfg.Sandbox.SecretNames)
	assert.Equal(t, 1.5, cfg.Retry.Multiplier)
	assert.Equal(t, []string{"stdout", "/tmp/sandbox.log"}, cfg.Log.OutputPaths)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoader_CustomPrefix(t *testing.T) {
	cfg, err := NewLoader().
		WithEnvPrefix("SBX").
		WithEnvLookup(envMap(map[string]string{
			"SBX_SANDBOX_WORK_DIR":          "/srv/work",
			"AGENTSANDBOX_SANDBOX_WORK_DIR": "/ignored",
		})).
		Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/work", cfg.Sandbox.WorkDir)
}

func TestLoader_BadEnvValue(t *testing.T) {
	_, err := NewLoader().
		WithEnvLookup(envMap(map[string]string{"AGENTSANDBOX_SANDBOX_TIMEOUT": "soon"})).
		Load()
	assert.ErrorContains(t, err, "AGENTSANDBOX_SANDBOX_TIMEOUT")
}

func TestLoader_RealEnvironment(t *testing.T) {
	t.Setenv("AGENTSANDBOX_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoader_CustomValidator(t *testing.T) {
	called := false
	_, err := NewLoader().
		WithEnvLookup(noEnv()).
		WithValidator(func(c *Config) error {
			called = true
			return nil
		}).
		Load()
	require.NoError(t, err)
	assert.True(t, called)
}

// --- 校验测试 ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"level too high", func(c *Config) { c.Sandbox.RestrictionLevel = 3 }, "restriction_level"},
		{"level negative", func(c *Config) { c.Sandbox.RestrictionLevel = -1 }, "restriction_level"},
		{"zero timeout", func(c *Config) { c.Sandbox.Timeout = 0 }, "timeout must be positive"},
		{"zero cap", func(c *Config) { c.Sandbox.FailureOutputCap = 0 }, "output caps must be positive"},
		{"cap below marker room", func(c *Config) { c.Sandbox.FailureOutputCap = 8 }, "output caps must be at least 14"},
		{"failure cap above success", func(c *Config) { c.Sandbox.FailureOutputCap = 20000 }, "failure_output_cap"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"negative rps", func(c *Config) { c.Retry.RateLimitRPS = -1 }, "rate_limit_rps"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestLoader_RejectsInvalidConfig(t *testing.T) {
	_, err := NewLoader().
		WithEnvLookup(envMap(map[string]string{"AGENTSANDBOX_SANDBOX_RESTRICTION_LEVEL": "7"})).
		Load()
	assert.ErrorContains(t, err, "config validation failed")
}
