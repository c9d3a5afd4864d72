package guardrails

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BaSui01/agentsandbox/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOutputGuard(secrets map[string]string, audit AuditLogger) *OutputGuard {
	names := make([]string, 0, len(secrets))
	for name := range secrets {
		names = append(names, name)
	}
	return NewOutputGuard(&OutputGuardConfig{
		Provider:    MapSecretProvider(secrets),
		Names:       names,
		AuditLogger: audit,
	}, nil)
}

func TestOutputGuard_Apply_DropsSecretLines(t *testing.T) {
	t.Parallel()
	guard := newTestOutputGuard(map[string]string{"OPENAI_API_KEY": "sk-liveKeyValue123"}, nil)

	output := "starting\nOPENAI_API_KEY=sk-liveKeyValue123\ndone"
	filtered, dropped, err := guard.Apply(context.Background(), output)
	require.NoError(t, err)
	assert.Equal(t, "starting\ndone", filtered)
	assert.Equal(t, 1, dropped)
	assert.NotContains(t, filtered, "sk-liveKeyValue123")
}

func TestOutputGuard_Apply_CaseInsensitive(t *testing.T) {
	t.Parallel()
	guard := newTestOutputGuard(map[string]string{"GITHUB_TOKEN": "ghp_AbCdEf"}, nil)

	filtered, dropped, err := guard.Apply(context.Background(), "token: GHP_ABCDEF\nok")
	require.NoError(t, err)
	assert.Equal(t, "ok", filtered)
	assert.Equal(t, 1, dropped)
}

func TestOutputGuard_Apply_PlaceholdersIgnored(t *testing.T) {
	t.Parallel()
	guard := newTestOutputGuard(map[string]string{"API_KEY": "DUMMY", "SECRET_KEY": "EMPTY"}, nil)

	output := "API_KEY=DUMMY\nSECRET_KEY=EMPTY"
	filtered, dropped, err := guard.Apply(context.Background(), output)
	require.NoError(t, err)
	assert.Equal(t, output, filtered)
	assert.Zero(t, dropped)
}

func TestOutputGuard_Apply_Empty(t *testing.T) {
	t.Parallel()
	guard := newTestOutputGuard(map[string]string{"API_KEY": "real-value-1"}, nil)
	filtered, dropped, err := guard.Apply(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, filtered)
	assert.Zero(t, dropped)
}

func TestOutputGuard_Apply_MultiLineSecretViolation(t *testing.T) {
	t.Parallel()
	audit := NewMemoryAuditLogger(10)
	guard := newTestOutputGuard(map[string]string{
		"SECRET_KEY": "line-one\nline-two",
		"AUTH_TOKEN": "line-one\nline-two",
	}, audit)

	filtered, _, err := guard.Apply(context.Background(), "before\nline-one\nline-two\nafter")
	require.Error(t, err)

	var violation *OutputViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, []string{"AUTH_TOKEN", "SECRET_KEY"}, violation.Keys)
	assert.Equal(t, BadOutputMark+". Violated keys: AUTH_TOKEN, SECRET_KEY", err.Error())
	assert.NotContains(t, err.Error(), "line-one")
	assert.True(t, IsOutputViolation(err))
	assert.True(t, types.IsErrorCode(err, types.ErrOutputGuardViolation))
	assert.Contains(t, filtered, "line-one")

	entries, qerr := audit.Query(context.Background(), &AuditLogFilter{
		EventTypes: []AuditEventType{AuditEventSecretLeaked},
	})
	require.NoError(t, qerr)
	require.Len(t, entries, 1)
	assert.Equal(t, "AUTH_TOKEN,SECRET_KEY", entries[0].Reason)
}

func TestOutputGuard_RereadsProvider(t *testing.T) {
	t.Parallel()
	secrets := MapSecretProvider{"API_KEY": "first-value"}
	guard := NewOutputGuard(&OutputGuardConfig{Provider: secrets, Names: []string{"API_KEY"}}, nil)

	filtered, _, err := guard.Apply(context.Background(), "first-value\nsecond-value")
	require.NoError(t, err)
	assert.Equal(t, "second-value", filtered)

	secrets["API_KEY"] = "second-value"
	filtered, _, err = guard.Apply(context.Background(), "first-value\nsecond-value")
	require.NoError(t, err)
	assert.Equal(t, "first-value", filtered)
}

func TestOutputGuard_FilterAndValidate(t *testing.T) {
	t.Parallel()
	guard := newTestOutputGuard(map[string]string{"STRIPE_API_KEY": "rk_live_123"}, nil)
	ctx := context.Background()

	var _ Filter = guard
	var _ Validator = guard
	assert.Equal(t, "output_guard", guard.Name())

	filtered, err := guard.Filter(ctx, "a\nkey rk_live_123\nb")
	require.NoError(t, err)
	assert.Equal(t, "a\nb", filtered)

	result, err := guard.Validate(ctx, "key rk_live_123")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.True(t, result.Tripwire)
	assert.Equal(t, []string{"STRIPE_API_KEY"}, result.Metadata["violated_keys"])
	require.Len(t, result.Errors, 1)
	assert.Equal(t, ErrCodeSecretLeaked, result.Errors[0].Code)
	assert.NotContains(t, result.Errors[0].Message, "rk_live_123")

	result, err = guard.Validate(ctx, "clean")
	require.NoError(t, err)
	assert.True(t, result.Valid)
}

func TestOutputGuard_AuditRedaction(t *testing.T) {
	t.Parallel()
	audit := NewMemoryAuditLogger(10)
	guard := newTestOutputGuard(map[string]string{"API_KEY": "abc-real-key"}, audit)

	_, dropped, err := guard.Apply(context.Background(), strings.Repeat("abc-real-key\n", 3)+"tail")
	require.NoError(t, err)
	assert.Equal(t, 3, dropped)

	entries := audit.GetEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, AuditEventSecretRedacted, entries[0].EventType)
	assert.Equal(t, "output_guard", entries[0].GuardName)
}

func TestNewOutputGuard_Defaults(t *testing.T) {
	t.Parallel()
	guard := NewOutputGuard(nil, nil)
	assert.Equal(t, MonitoredSecretNames, guard.names)
	assert.IsType(t, EnvSecretProvider{}, guard.provider)
}
