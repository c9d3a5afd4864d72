// =============================================================================
// AgentSandbox 配置加载器
// =============================================================================
// YAML 文件 + 环境变量覆盖
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("sandbox.yaml").
//	    WithEnvPrefix("AGENTSANDBOX").
//	    Load()
//
// 优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/agentsandbox/agent/execution"
)

// DefaultEnvPrefix 环境变量前缀，例如 AGENTSANDBOX_SANDBOX_TIMEOUT
const DefaultEnvPrefix = "AGENTSANDBOX"

// Config 是 AgentSandbox 的完整配置
type Config struct {
	Sandbox SandboxConfig `yaml:"sandbox" env:"SANDBOX"`
	Retry   RetryConfig   `yaml:"retry" env:"RETRY"`
	Log     LogConfig     `yaml:"log" env:"LOG"`
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// SandboxConfig 本地代码执行配置
type SandboxConfig struct {
	// 代码文件写入与执行的目录
	WorkDir string `yaml:"work_dir" env:"WORK_DIR"`
	// 单个代码块的执行超时
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// 0 不检查，1 基础 shell 规则，2 完整规则
	RestrictionLevel int `yaml:"restriction_level" env:"RESTRICTION_LEVEL"`
	// 是否实时输出子进程的 stdout/stderr
	StreamOutput bool `yaml:"stream_output" env:"STREAM_OUTPUT"`
	// 语言 → 是否执行（false 表示只保存）
	Policies map[string]bool `yaml:"policies" env:"-"`
	// 虚拟环境 bin 目录，空表示不使用
	VenvBinPath string `yaml:"venv_bin_path" env:"VENV_BIN_PATH"`
	// Windows 下的激活脚本，空表示 bin 目录下的 activate.bat
	VenvActivationScript string `yaml:"venv_activation_script" env:"VENV_ACTIVATION_SCRIPT"`
	// 失败时的输出上限（字节）
	FailureOutputCap int `yaml:"failure_output_cap" env:"FAILURE_OUTPUT_CAP"`
	// 其他情况的输出上限（字节）
	SuccessOutputCap int `yaml:"success_output_cap" env:"SUCCESS_OUTPUT_CAP"`
	// 需要监控泄露的密钥环境变量名，空表示使用内置列表
	SecretNames []string `yaml:"secret_names" env:"SECRET_NAMES"`
}

// RetryConfig 上游回复生成的重试配置
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
	MaxDelay     time.Duration `yaml:"max_delay" env:"MAX_DELAY"`
	Multiplier   float64       `yaml:"multiplier" env:"MULTIPLIER"`
	Jitter       bool          `yaml:"jitter" env:"JITTER"`
	// 每秒请求数，0 表示不限流
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 是否记录调用位置
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	// 是否记录堆栈
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
	// /metrics 的监听地址，空表示不启动 HTTP
	ListenAddr string `yaml:"listen_addr" env:"LISTEN_ADDR"`
}

// =============================================================================
// 配置加载器
// =============================================================================

// Loader 配置加载器（Builder 模式）
type Loader struct {
	configPath string
	envPrefix  string
	lookupEnv  func(string) (string, bool)
	validators []func(*Config) error
}

// NewLoader 创建配置加载器，默认会在最后执行 Config.Validate
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  DefaultEnvPrefix,
		lookupEnv:  os.LookupEnv,
		validators: []func(*Config) error{(*Config).Validate},
	}
}

// WithConfigPath 设置配置文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithEnvLookup 替换环境变量读取函数
func (l *Loader) WithEnvLookup(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// WithValidator 追加配置校验
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load 加载配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}
	return cfg, nil
}

// loadFromFile 文件不存在时保留默认值
func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		envTag := t.Field(i).Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag
		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue, ok := l.lookupEnv(envKey)
		if !ok || envValue == "" {
			continue
		}
		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		// 逗号分隔
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

// MinOutputCap 输出上限下限，保证截断后仍能容纳首尾内容与截断标记
const MinOutputCap = 2 * len(execution.TruncationMarker)

// Validate 校验配置
func (c *Config) Validate() error {
	var errs []string

	s := c.Sandbox
	if s.RestrictionLevel < 0 || s.RestrictionLevel > 2 {
		errs = append(errs, "restriction_level must be 0, 1 or 2")
	}
	if s.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if s.FailureOutputCap <= 0 || s.SuccessOutputCap <= 0 {
		errs = append(errs, "output caps must be positive")
	} else if s.FailureOutputCap > s.SuccessOutputCap {
		errs = append(errs, "failure_output_cap must not exceed success_output_cap")
	} else if s.FailureOutputCap < MinOutputCap {
		errs = append(errs, fmt.Sprintf("output caps must be at least %d", MinOutputCap))
	}

	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, "max_attempts must be positive")
	}
	if c.Retry.RateLimitRPS < 0 {
		errs = append(errs, "rate_limit_rps must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
