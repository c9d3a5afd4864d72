package guardrails

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var pythonDangerCalls = map[string]string{
	"eval(x)":       "Use of eval() is not allowed.",
	"exec(x)":       "Use of exec() is not allowed.",
	"os.system(x)":  "Use of os.system() is not allowed.",
	"__import__(x)": "Use of __import__() is not allowed.",
	"sys.exit(x)":   "Use of sys.exit() is not allowed.",
}

func sortedDangerCalls() []string {
	return []string{"__import__(x)", "eval(x)", "exec(x)", "os.system(x)", "sys.exit(x)"}
}

// 危险调用只出现在字符串或注释中时不触发检查
func TestProperty_CodeGuard_LiteralsAreIgnored(t *testing.T) {
	guard := NewCodeGuard(nil, nil)
	rapid.Check(t, func(rt *rapid.T) {
		call := rapid.SampledFrom(sortedDangerCalls()).Draw(rt, "call")
		word := rapid.StringMatching(`[xyz0-9]{1,10}`).Draw(rt, "word")
		quote := rapid.SampledFrom([]string{`"`, `'`}).Draw(rt, "quote")

		code := fmt.Sprintf("v_%s = %s%s%s  # %s\nprint(v_%s)", word, quote, call, quote, call, word)
		assert.NoError(t, guard.Check(context.Background(), "python", code))
	})
}

// 同样的调用出现在代码中时必然触发，且原因与注册表一致
func TestProperty_CodeGuard_BareCallsAreBlocked(t *testing.T) {
	guard := NewCodeGuard(nil, nil)
	rapid.Check(t, func(rt *rapid.T) {
		call := rapid.SampledFrom(sortedDangerCalls()).Draw(rt, "call")
		word := rapid.StringMatching(`[xyz0-9]{1,10}`).Draw(rt, "word")

		code := fmt.Sprintf("v_%s = 1\n%s", word, call)
		err := guard.Check(context.Background(), "python", code)
		require.Error(t, err)

		var violation *CodeViolationError
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, pythonDangerCalls[call], violation.Reason)
	})
}

// rm -rf 在任何位置出现都报告 rm -rf 而不是通用的删除原因
func TestProperty_CodeGuard_RmRfReason(t *testing.T) {
	guard := NewCodeGuard(nil, nil)
	rapid.Check(t, func(rt *rapid.T) {
		lang := rapid.SampledFrom([]string{"bash", "sh", "shell"}).Draw(rt, "lang")
		before := rapid.StringMatching(`[xyz0-9]{0,10}`).Draw(rt, "before")
		target := rapid.StringMatching(`/[xyz0-9]{0,10}`).Draw(rt, "target")

		code := fmt.Sprintf("echo %s\nrm -rf %s", before, target)
		err := guard.Check(context.Background(), lang, code)
		require.Error(t, err)

		var violation *CodeViolationError
		require.True(t, errors.As(err, &violation))
		assert.Equal(t, "Use of 'rm -rf' command is not allowed.", violation.Reason)
	})
}

func TestProperty_StripNeverGrows(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lang := rapid.SampledFrom([]string{"bash", "python", "javascript"}).Draw(rt, "lang")
		code := rapid.String().Draw(rt, "code")
		assert.LessOrEqual(t, len(StripCommentsAndStrings(code, lang)), len(code))
	})
}
