package guardrails

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BaSui01/agentsandbox/types"
	"go.uber.org/zap"
)

// BadOutputMark 输出违规错误信息的固定前缀
const BadOutputMark = "Output contains sensitive information"

// ErrSecretLeaked 所有输出违规错误的哨兵
var ErrSecretLeaked = types.NewError(types.ErrOutputGuardViolation, BadOutputMark)

// OutputViolationError 删除行之后输出中仍含秘密值
// 只携带变量名，不携带值。
type OutputViolationError struct {
	Keys []string
}

// Error 实现 error 接口
func (e *OutputViolationError) Error() string {
	return fmt.Sprintf("%s. Violated keys: %s", BadOutputMark, strings.Join(e.Keys, ", "))
}

// Unwrap 使 errors.Is(err, ErrSecretLeaked) 成立
func (e *OutputViolationError) Unwrap() error {
	return ErrSecretLeaked
}

// OutputGuardConfig 输出护栏配置
type OutputGuardConfig struct {
	// Provider 秘密值来源，默认读取进程环境
	Provider SecretProvider
	// Names 受监控的变量名，默认 MonitoredSecretNames
	Names []string
	// AuditLogger 审计日志记录器（可选）
	AuditLogger AuditLogger
	// Priority 验证器优先级
	Priority int
}

// OutputGuard 输出护栏
// 先删除包含秘密值的整行，再对剩余输出整体复查；复查仍命中则视为硬失败。
type OutputGuard struct {
	provider    SecretProvider
	names       []string
	auditLogger AuditLogger
	priority    int
	logger      *zap.Logger
}

// NewOutputGuard 创建输出护栏
func NewOutputGuard(config *OutputGuardConfig, logger *zap.Logger) *OutputGuard {
	if config == nil {
		config = &OutputGuardConfig{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	provider := config.Provider
	if provider == nil {
		provider = EnvSecretProvider{}
	}
	names := config.Names
	if len(names) == 0 {
		names = MonitoredSecretNames
	}
	return &OutputGuard{
		provider:    provider,
		names:       names,
		auditLogger: config.AuditLogger,
		priority:    config.Priority,
		logger:      logger.With(zap.String("component", "output_guard")),
	}
}

// Name 返回名称
func (g *OutputGuard) Name() string {
	return "output_guard"
}

// Priority 返回优先级
func (g *OutputGuard) Priority() int {
	return g.priority
}

// catalog 每次调用重新读取，秘密值可能在两次调用之间轮换
func (g *OutputGuard) catalog() *SecretCatalog {
	return NewSecretCatalog(g.provider, g.names)
}

// Filter 删除包含秘密值的行
// 实现 Filter 接口
func (g *OutputGuard) Filter(ctx context.Context, content string) (string, error) {
	filtered, _ := g.dropLines(ctx, g.catalog(), content)
	return filtered, nil
}

// Validate 检查内容中是否仍含秘密值
// 实现 Validator 接口
func (g *OutputGuard) Validate(ctx context.Context, content string) (*ValidationResult, error) {
	result := NewValidationResult()
	keys := g.catalog().ViolatedKeys(content)
	if len(keys) == 0 {
		return result, nil
	}
	result.Tripwire = true
	result.Metadata["violated_keys"] = keys
	result.AddError(ValidationError{
		Code:     ErrCodeSecretLeaked,
		Message:  fmt.Sprintf("violated keys: %s", strings.Join(keys, ", ")),
		Severity: SeverityCritical,
	})
	return result, nil
}

// Apply 对执行输出做完整的两步处理
// 返回删除行后的输出；复查仍命中时返回 *OutputViolationError。
func (g *OutputGuard) Apply(ctx context.Context, output string) (string, int, error) {
	if output == "" {
		return output, 0, nil
	}
	catalog := g.catalog()
	if catalog.Len() == 0 {
		return output, 0, nil
	}

	filtered, dropped := g.dropLines(ctx, catalog, output)

	keys := catalog.ViolatedKeys(filtered)
	if len(keys) > 0 {
		violation := &OutputViolationError{Keys: keys}
		g.logger.Error("secret still present after line redaction",
			zap.Strings("violated_keys", keys),
			zap.String("content_hash", hashContent(filtered)),
		)
		recordViolation(ctx, g.auditLogger, g.Name(), AuditEventSecretLeaked, filtered, strings.Join(keys, ","))
		return filtered, dropped, violation
	}
	return filtered, dropped, nil
}

func (g *OutputGuard) dropLines(ctx context.Context, catalog *SecretCatalog, content string) (string, int) {
	if catalog.Len() == 0 {
		return content, 0
	}
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	dropped := 0
	for _, line := range lines {
		if catalog.Contains(line) {
			dropped++
			continue
		}
		kept = append(kept, line)
	}
	if dropped > 0 {
		g.logger.Warn("removed output lines containing secrets", zap.Int("lines", dropped))
		recordViolation(ctx, g.auditLogger, g.Name(), AuditEventSecretRedacted, content, "")
	}
	return strings.Join(kept, "\n"), dropped
}

// IsOutputViolation 判断错误是否为输出违规
func IsOutputViolation(err error) bool {
	return errors.Is(err, ErrSecretLeaked)
}

// IsCodeViolation 判断错误是否为代码违规
func IsCodeViolation(err error) bool {
	return errors.Is(err, ErrDangerousCode)
}
