package guardrails

import (
	"context"
	"errors"
	"fmt"

	"github.com/BaSui01/agentsandbox/types"
	"go.uber.org/zap"
)

// DangerMark 代码违规错误信息的固定前缀
const DangerMark = "Potentially dangerous operation detected"

// ErrDangerousCode 所有代码违规错误的哨兵
var ErrDangerousCode = types.NewError(types.ErrCodeGuardViolation, DangerMark)

// RestrictionLevel 执行前静态检查的限制级别
type RestrictionLevel int

const (
	// RestrictionNone 不做静态检查
	RestrictionNone RestrictionLevel = 0
	// RestrictionBase 精简的基础 shell 检查
	RestrictionBase RestrictionLevel = 1
	// RestrictionFull 完整的模式检查（先剥离注释与字符串）
	RestrictionFull RestrictionLevel = 2
)

// Sanitizer 代码执行前的静态检查器
type Sanitizer interface {
	// Check 命中危险模式时返回 *CodeViolationError
	Check(ctx context.Context, lang, code string) error
}

// CodeViolationError 代码命中危险模式
type CodeViolationError struct {
	Language    string
	Reason      string
	CleanedCode string
}

// Error 实现 error 接口
func (e *CodeViolationError) Error() string {
	if e.CleanedCode == "" {
		return fmt.Sprintf("%s: %s", DangerMark, e.Reason)
	}
	return fmt.Sprintf("%s: %s\n\n%s", DangerMark, e.Reason, e.CleanedCode)
}

// Unwrap 使 errors.Is(err, ErrDangerousCode) 成立
func (e *CodeViolationError) Unwrap() error {
	return ErrDangerousCode
}

// CodeGuard 完整模式检查器（二级限制）
// 先剥离注释与字符串，再按注册表顺序逐条匹配。
//
// 这是纵深防御中的文本启发式层，不能替代操作系统级隔离：
// 编码载荷、跨语句拼接等手法可以绕过它。
type CodeGuard struct {
	logger      *zap.Logger
	auditLogger AuditLogger
}

// NewCodeGuard 创建完整模式检查器
func NewCodeGuard(logger *zap.Logger, auditLogger AuditLogger) *CodeGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CodeGuard{
		logger:      logger.With(zap.String("component", "code_guard")),
		auditLogger: auditLogger,
	}
}

// Check 实现 Sanitizer 接口
func (g *CodeGuard) Check(ctx context.Context, lang, code string) error {
	patterns := compiledPython
	if IsShellLanguage(lang) {
		patterns = compiledShell
	}

	cleaned := StripCommentsAndStrings(code, lang)
	reason, hit := firstMatch(patterns, cleaned)
	if !hit {
		return nil
	}

	g.logger.Warn("dangerous code blocked",
		zap.String("language", lang),
		zap.String("reason", reason),
		zap.String("content_hash", hashContent(code)),
	)
	recordViolation(ctx, g.auditLogger, "code_guard", AuditEventCodeBlocked, code, reason)

	return &CodeViolationError{Language: lang, Reason: reason, CleanedCode: cleaned}
}

// BaseGuard 基础检查器（一级限制）
// 仅检查 shell 家族，直接作用于原始代码。
type BaseGuard struct {
	logger      *zap.Logger
	auditLogger AuditLogger
}

// NewBaseGuard 创建基础检查器
func NewBaseGuard(logger *zap.Logger, auditLogger AuditLogger) *BaseGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseGuard{
		logger:      logger.With(zap.String("component", "base_guard")),
		auditLogger: auditLogger,
	}
}

// Check 实现 Sanitizer 接口
func (g *BaseGuard) Check(ctx context.Context, lang, code string) error {
	if !IsShellLanguage(lang) {
		return nil
	}
	reason, hit := firstMatch(compiledBaseShell, code)
	if !hit {
		return nil
	}

	g.logger.Warn("dangerous command blocked",
		zap.String("language", lang),
		zap.String("reason", reason),
		zap.String("content_hash", hashContent(code)),
	)
	recordViolation(ctx, g.auditLogger, "base_guard", AuditEventCodeBlocked, code, reason)

	return &CodeViolationError{Language: lang, Reason: reason}
}

// nopGuard 零级限制
type nopGuard struct{}

func (nopGuard) Check(context.Context, string, string) error { return nil }

// SanitizerForLevel 按限制级别选择检查器
func SanitizerForLevel(level RestrictionLevel, logger *zap.Logger, auditLogger AuditLogger) Sanitizer {
	switch {
	case level >= RestrictionFull:
		return NewCodeGuard(logger, auditLogger)
	case level == RestrictionBase:
		return NewBaseGuard(logger, auditLogger)
	default:
		return nopGuard{}
	}
}

// LanguageValidator 将 Sanitizer 包装为针对固定语言的 Validator
type LanguageValidator struct {
	sanitizer Sanitizer
	language  string
	priority  int
}

// NewLanguageValidator 创建语言验证器
func NewLanguageValidator(sanitizer Sanitizer, language string, priority int) *LanguageValidator {
	return &LanguageValidator{
		sanitizer: sanitizer,
		language:  language,
		priority:  priority,
	}
}

// Name 返回验证器名称
func (v *LanguageValidator) Name() string {
	return "code_guard_" + v.language
}

// Priority 返回优先级
func (v *LanguageValidator) Priority() int {
	return v.priority
}

// Validate 执行代码检查，命中危险模式时触发 Tripwire
func (v *LanguageValidator) Validate(ctx context.Context, content string) (*ValidationResult, error) {
	result := NewValidationResult()
	result.Metadata["language"] = v.language

	err := v.sanitizer.Check(ctx, v.language, content)
	if err == nil {
		return result, nil
	}
	var violation *CodeViolationError
	if !errors.As(err, &violation) {
		return nil, err
	}

	result.Tripwire = true
	result.AddError(ValidationError{
		Code:     ErrCodeDangerousCode,
		Message:  violation.Reason,
		Severity: SeverityCritical,
	})
	return result, nil
}
