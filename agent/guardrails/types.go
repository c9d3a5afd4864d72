package guardrails

import (
	"context"
	"fmt"
	"sort"
)

// Stage 护栏所处的阶段
type Stage string

const (
	// StageInput 代码写入工作目录之前
	StageInput Stage = "input"
	// StageOutput 执行输出返回对话之前
	StageOutput Stage = "output"
)

// Validator 验证器接口
// CodeGuard 经 LanguageValidator 包装后、OutputGuard 均实现该接口
type Validator interface {
	Validate(ctx context.Context, content string) (*ValidationResult, error)
	Name() string
	// Priority 数字越小越先执行
	Priority() int
}

// Filter 过滤器接口，返回清理后的内容
type Filter interface {
	Filter(ctx context.Context, content string) (string, error)
	Name() string
}

// ValidationResult 验证结果
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Stage    Stage             `json:"stage,omitempty"`
	Tripwire bool              `json:"tripwire,omitempty"` // 触发即中断后续验证器
	Errors   []ValidationError `json:"errors,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`
}

// NewValidationResult 创建一个有效的验证结果
func NewValidationResult() *ValidationResult {
	return &ValidationResult{
		Valid:    true,
		Metadata: make(map[string]any),
	}
}

// AddError 添加验证错误并将结果标记为无效
func (r *ValidationResult) AddError(err ValidationError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// ValidationError 验证错误
type ValidationError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
	Validator string `json:"validator,omitempty"`
}

// String 以 "CODE: message" 形式输出
func (e ValidationError) String() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// SeverityCritical 危险代码与秘密泄露都属于该级别
const SeverityCritical = "critical"

// 错误代码
const (
	ErrCodeDangerousCode = "DANGEROUS_CODE"
	ErrCodeSecretLeaked  = "SECRET_LEAKED"
)

// Chain 按优先级依次执行的验证器链
type Chain struct {
	stage      Stage
	validators []Validator
}

// NewChain 创建验证器链，优先级相同时保持传入顺序
func NewChain(stage Stage, validators ...Validator) *Chain {
	sorted := make([]Validator, 0, len(validators))
	for _, v := range validators {
		if v != nil {
			sorted = append(sorted, v)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Chain{stage: stage, validators: sorted}
}

// Validate 依次执行所有验证器并汇总错误
// 某个验证器触发 Tripwire 后不再执行其余验证器。
func (c *Chain) Validate(ctx context.Context, content string) (*ValidationResult, error) {
	combined := NewValidationResult()
	combined.Stage = c.stage

	for _, v := range c.validators {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := v.Validate(ctx, content)
		if err != nil {
			return nil, fmt.Errorf("validator %s: %w", v.Name(), err)
		}
		if res == nil {
			continue
		}
		for _, ve := range res.Errors {
			if ve.Validator == "" {
				ve.Validator = v.Name()
			}
			combined.AddError(ve)
		}
		for k, val := range res.Metadata {
			combined.Metadata[k] = val
		}
		if res.Tripwire {
			combined.Tripwire = true
			break
		}
	}
	return combined, nil
}

// Len 返回验证器数量
func (c *Chain) Len() int {
	return len(c.validators)
}
