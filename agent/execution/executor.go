package execution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BaSui01/agentsandbox/agent/guardrails"
	"github.com/BaSui01/agentsandbox/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Recorder receives execution metrics. *metrics.Collector satisfies it.
type Recorder interface {
	RecordExecution(language, status string, duration time.Duration)
	RecordGuardViolation(stage string)
	RecordRedactedLines(n int)
	RecordTruncation()
}

type nopRecorder struct{}

func (nopRecorder) RecordExecution(string, string, time.Duration) {}
func (nopRecorder) RecordGuardViolation(string)                   {}
func (nopRecorder) RecordRedactedLines(int)                       {}
func (nopRecorder) RecordTruncation()                             {}

// Execution status labels passed to Recorder.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
	StatusSaved   = "saved"
)

// Option configures a LocalExecutor.
type Option func(*LocalExecutor)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *LocalExecutor) { e.logger = logger }
}

// WithRunner replaces the os/exec runner.
func WithRunner(runner ProcessRunner) Option {
	return func(e *LocalExecutor) { e.runner = runner }
}

// WithOutputSink sets the live display channel for streamed output.
func WithOutputSink(sink OutputSink) Option {
	return func(e *LocalExecutor) { e.sink = sink }
}

// WithSecretProvider sets the source of secret values for the output guard.
func WithSecretProvider(provider guardrails.SecretProvider) Option {
	return func(e *LocalExecutor) { e.secrets = provider }
}

// WithSecretNames replaces the monitored secret variable names.
func WithSecretNames(names []string) Option {
	return func(e *LocalExecutor) { e.secretNames = names }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(recorder Recorder) Option {
	return func(e *LocalExecutor) { e.metrics = recorder }
}

// WithAuditLogger records guard violations.
func WithAuditLogger(audit guardrails.AuditLogger) Option {
	return func(e *LocalExecutor) { e.audit = audit }
}

// WithPlatform overrides the detected target platform.
func WithPlatform(platform Platform) Option {
	return func(e *LocalExecutor) { e.platform = platform }
}

// WithEnviron sets the base environment handed to child processes.
func WithEnviron(environ func() []string) Option {
	return func(e *LocalExecutor) { e.environ = environ }
}

// WithPathLookup overrides executable lookup used to pick a PowerShell binary.
func WithPathLookup(lookPath PathLookup) Option {
	return func(e *LocalExecutor) { e.lookPath = lookPath }
}

// LocalExecutor runs code blocks as local processes inside a single work dir.
// It is not safe for concurrent use on the same work dir.
type LocalExecutor struct {
	config      ExecutorConfig
	workDir     string
	runner      ProcessRunner
	sanitizer   guardrails.Sanitizer
	outputGuard *guardrails.OutputGuard
	sink        OutputSink
	secrets     guardrails.SecretProvider
	secretNames []string
	audit       guardrails.AuditLogger
	metrics     Recorder
	platform    Platform
	environ     func() []string
	lookPath    PathLookup
	logger      *zap.Logger
}

// NewLocalExecutor creates the work dir if needed and returns an executor bound to it.
func NewLocalExecutor(cfg ExecutorConfig, opts ...Option) (*LocalExecutor, error) {
	defaults := DefaultExecutorConfig()
	if cfg.WorkDir == "" {
		cfg.WorkDir = defaults.WorkDir
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Policies == nil {
		cfg.Policies = defaults.Policies
	}
	if cfg.OutputLimits.FailureCap <= 0 {
		cfg.OutputLimits.FailureCap = defaults.OutputLimits.FailureCap
	}
	if cfg.OutputLimits.SuccessCap <= 0 {
		cfg.OutputLimits.SuccessCap = defaults.OutputLimits.SuccessCap
	}

	workDir, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolve work dir: %w", err)
	}
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(workDir); err == nil {
		workDir = resolved
	}

	e := &LocalExecutor{
		config:   cfg,
		workDir:  workDir,
		metrics:  nopRecorder{},
		platform: CurrentPlatform(),
		environ:  os.Environ,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	e.logger = e.logger.With(zap.String("component", "local_executor"))
	if e.runner == nil {
		e.runner = NewExecRunner(e.logger)
	}
	if e.metrics == nil {
		e.metrics = nopRecorder{}
	}
	if e.secrets == nil {
		e.secrets = guardrails.EnvSecretProvider{}
	}
	e.sanitizer = guardrails.SanitizerForLevel(cfg.RestrictionLevel, e.logger, e.audit)
	e.outputGuard = guardrails.NewOutputGuard(&guardrails.OutputGuardConfig{
		Provider:    e.secrets,
		Names:       e.secretNames,
		AuditLogger: e.audit,
	}, e.logger)

	return e, nil
}

// WorkDir returns the absolute work dir.
func (e *LocalExecutor) WorkDir() string {
	return e.workDir
}

// ExecuteCodeBlocks runs one turn's worth of code blocks and returns a result
// that is safe to hand back to the conversation.
//
// Guard violations, unknown languages, filename escapes, timeouts and non-zero
// exits are reported through Result. The error return is for infrastructure
// failures such as an unwritable work dir or a missing interpreter.
func (e *LocalExecutor) ExecuteCodeBlocks(ctx context.Context, blocks []CodeBlock) (*Result, error) {
	runID := uuid.NewString()
	ctx = types.WithRunID(ctx, runID)
	logger := e.logger.With(zap.String("run_id", runID))
	if convID, ok := types.ConversationID(ctx); ok {
		logger = logger.With(zap.String("conversation_id", convID))
	}

	executable := FilterExecutable(blocks)
	logger.Debug("executing code blocks",
		zap.Int("proposed", len(blocks)),
		zap.Int("executable", len(executable)),
	)

	res, err := e.runBlocks(ctx, logger, executable)
	if err != nil {
		var violation *guardrails.CodeViolationError
		if !errors.As(err, &violation) {
			return nil, err
		}
		logger.Warn("code block rejected by guard",
			zap.String("language", violation.Language),
			zap.String("reason", violation.Reason),
		)
		e.metrics.RecordGuardViolation(string(guardrails.StageInput))
		res = &Result{ExitCode: ExitFailure, Output: violation.Error()}
	}

	if res.ExitCode == ExitNotExecuted && len(blocks) > 0 {
		res = &Result{ExitCode: ExitSuccess, Output: NoCodeExecutedMessage}
	}

	filtered, dropped, err := e.outputGuard.Apply(ctx, res.Output)
	if dropped > 0 {
		e.metrics.RecordRedactedLines(dropped)
	}
	if err != nil {
		if !guardrails.IsOutputViolation(err) {
			return nil, err
		}
		e.metrics.RecordGuardViolation(string(guardrails.StageOutput))
		res = &Result{ExitCode: ExitFailure, Output: err.Error()}
	} else {
		res.Output = filtered
	}

	if Truncate(res, e.config.OutputLimits) {
		e.metrics.RecordTruncation()
	}

	logger.Info("code blocks executed", zap.Int("exit_code", res.ExitCode))
	return res, nil
}

func (e *LocalExecutor) runBlocks(ctx context.Context, logger *zap.Logger, blocks []CodeBlock) (*Result, error) {
	var (
		output   strings.Builder
		exitCode = ExitNotExecuted
		files    []string
	)

	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tag, lang := GuardLanguage(string(block.Language), e.platform)
		code := block.Code

		if err := e.sanitizer.Check(ctx, tag, code); err != nil {
			return nil, err
		}
		code = SilencePip(code, lang)

		if !IsSupported(lang) {
			exitCode = ExitFailure
			output.WriteString("\nunknown language " + string(lang))
			break
		}

		content := code
		if lang == LangPython {
			content = withPythonHeader(code)
		}
		path, err := e.targetPath(code, content, lang)
		if err != nil {
			if errors.Is(err, ErrFilenameOutsideWorkDir) {
				logger.Warn("filename directive outside work dir", zap.String("language", string(lang)))
				return &Result{ExitCode: ExitFailure, Output: FilenameOutsideMessage}, nil
			}
			return nil, err
		}
		if err := writeCodeFile(path, content); err != nil {
			return nil, err
		}
		files = append(files, path)

		if !e.config.Policies.Allows(lang) {
			fmt.Fprintf(&output, "Code saved to %s\n", path)
			exitCode = ExitSuccess
			e.metrics.RecordExecution(string(lang), StatusSaved, 0)
			continue
		}

		out, elapsed, err := e.runFile(ctx, lang, path)
		if err != nil {
			return nil, err
		}
		if out.TimedOut {
			output.WriteString("\n" + TimeoutMessage)
			exitCode = ExitTimeout
			e.metrics.RecordExecution(string(lang), StatusTimeout, elapsed)
			logger.Warn("code block timed out", zap.String("file", path), zap.Duration("timeout", e.config.Timeout))
			break
		}
		if e.sink != nil {
			e.sink(CompletionMarker)
		}

		output.WriteString(out.Stderr)
		output.WriteString(out.Stdout)
		exitCode = out.ExitCode

		status := StatusSuccess
		if exitCode != ExitSuccess {
			status = StatusFailure
		}
		e.metrics.RecordExecution(string(lang), status, elapsed)
		if exitCode != ExitSuccess {
			break
		}
	}

	res := &Result{ExitCode: exitCode, Output: output.String()}
	if len(files) > 0 {
		res.CodeFile = files[0]
	}
	return res, nil
}

// targetPath picks the file for a block: the filename directive in the original
// code wins, otherwise the MD5 of the written content names the file.
func (e *LocalExecutor) targetPath(code, content string, lang Language) (string, error) {
	if name, ok := filenameDirective(code); ok {
		return resolveInWorkDir(e.workDir, name)
	}
	return filepath.Join(e.workDir, hashedFilename(content, lang)), nil
}

func (e *LocalExecutor) runFile(ctx context.Context, lang Language, path string) (*ProcessOutput, time.Duration, error) {
	program, err := Interpreter(lang, e.lookPath)
	if err != nil {
		return nil, 0, err
	}
	venv := e.config.VirtualEnv
	name, args := buildCommand(program, path, venv, e.platform)
	cmd := Command{
		Path:    name,
		Args:    args,
		Dir:     e.workDir,
		Env:     withVirtualEnv(e.environ(), venv, e.platform),
		Timeout: e.config.Timeout,
	}
	if e.config.StreamOutput && e.sink != nil {
		cmd.Sink = e.sink
	}

	e.logger.Debug("running code file",
		zap.String("language", string(lang)),
		zap.String("program", name),
		zap.String("file", path),
	)
	start := time.Now()
	out, err := e.runner.Run(ctx, cmd)
	if err != nil {
		return nil, 0, fmt.Errorf("execute %s block: %w", lang, err)
	}
	return out, time.Since(start), nil
}

func writeCodeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create code dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write code file: %w", err)
	}
	return nil
}
