package retry

import (
	"errors"
	"strings"

	"github.com/BaSui01/agentsandbox/types"
)

// ErrorKind 上游失败的分类
type ErrorKind string

const (
	KindRateLimit          ErrorKind = "rate_limit"
	KindConnectionTimeout  ErrorKind = "connection_timeout"
	KindServiceUnavailable ErrorKind = "service_unavailable"
	KindInternalError      ErrorKind = "internal_error"
	KindIncompleteRead     ErrorKind = "incomplete_read"
	// KindMarked 调用方用 WrapRetryable 显式标记的错误
	KindMarked             ErrorKind = "marked"
	KindFatal              ErrorKind = "fatal"
)

// retryableCodes 可重试错误码到分类的映射，不在表中的一律视为致命错误
var retryableCodes = map[types.ErrorCode]ErrorKind{
	types.ErrRateLimit:          KindRateLimit,
	types.ErrConnectionTimeout:  KindConnectionTimeout,
	types.ErrServiceUnavailable: KindServiceUnavailable,
	types.ErrInternalError:      KindInternalError,
	types.ErrIncompleteRead:     KindIncompleteRead,
}

// upstreamSignature 上游错误文本中的特征片段，区分大小写
type upstreamSignature struct {
	fragment string
	code     types.ErrorCode
}

var upstreamSignatures = []upstreamSignature{
	{"Rate limit reached", types.ErrRateLimit},
	{"Connection timeout", types.ErrConnectionTimeout},
	{"Server unavailable", types.ErrServiceUnavailable},
	{"Internal server error", types.ErrInternalError},
	{"incomplete chunked read", types.ErrIncompleteRead},
}

// KindOf 返回错误的分类，可重试错误码优先于 WrapRetryable 标记
func KindOf(err error) ErrorKind {
	var typed *types.Error
	if errors.As(err, &typed) {
		if kind, ok := retryableCodes[typed.Code]; ok {
			return kind
		}
	}
	if IsRetryableError(err) {
		return KindMarked
	}
	return KindFatal
}

// IsTransient 判断错误是否属于可重试的瞬时故障
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return KindOf(err) != KindFatal
}

// NormalizeUpstreamError 把上游返回的原始错误转换为 *types.Error。
// 已经是 *types.Error 的错误和无法识别的错误原样返回。
func NormalizeUpstreamError(err error) error {
	if err == nil {
		return nil
	}
	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}

	msg := err.Error()
	for _, sig := range upstreamSignatures {
		if strings.Contains(msg, sig.fragment) {
			return types.NewError(sig.code, "upstream transient failure").
				WithCause(err).
				WithRetryable(true)
		}
	}
	return err
}
