package execution

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CompletionMarker is pushed to the output sink after each executed block.
const CompletionMarker = "\n\n**Completed execution of code blocks.**\n\nENDOFTURN\n\n"

// OutputSink receives output chunks while a process is still running.
type OutputSink func(chunk string)

// Command is one interpreter invocation.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
	// Sink, when set, receives stdout and stderr chunks as they arrive.
	Sink OutputSink
}

// ProcessOutput is what a finished or timed out process produced.
type ProcessOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// ProcessRunner runs a single command to completion.
// A non-zero exit or a timeout is reported in ProcessOutput; the error return is
// reserved for commands that could not be run at all or a cancelled caller context.
type ProcessRunner interface {
	Run(ctx context.Context, cmd Command) (*ProcessOutput, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	logger *zap.Logger
	// WaitDelay bounds how long Wait blocks on inherited pipes after a kill.
	WaitDelay time.Duration
}

// NewExecRunner creates an os/exec backed runner.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExecRunner{
		logger:    logger.With(zap.String("component", "exec_runner")),
		WaitDelay: 2 * time.Second,
	}
}

// Run implements ProcessRunner.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*ProcessOutput, error) {
	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = c.Env
	cmd.WaitDelay = r.WaitDelay
	configureProcessGroup(cmd)

	start := time.Now()
	var (
		stdout, stderr string
		err            error
	)
	if c.Sink == nil {
		stdout, stderr, err = r.runCaptured(cmd)
	} else {
		stdout, stderr, err = r.runStreaming(cmd, c.Sink)
	}

	out := &ProcessOutput{Stdout: stdout, Stderr: stderr}
	if cmd.ProcessState != nil {
		out.ExitCode = processExitCode(cmd.ProcessState)
	}

	r.logger.Debug("process finished",
		zap.String("path", c.Path),
		zap.Int("exit_code", out.ExitCode),
		zap.Duration("duration", time.Since(start)),
	)

	if err == nil {
		return out, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out.TimedOut = true
		return out, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = processExitCode(exitErr.ProcessState)
		return out, nil
	}
	return nil, fmt.Errorf("run %s: %w", c.Path, err)
}

func (r *ExecRunner) runCaptured(cmd *exec.Cmd) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	err := cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), err
}

// runStreaming drains both pipes concurrently, forwarding every chunk to sink
// while still collecting the full buffers.
func (r *ExecRunner) runStreaming(cmd *exec.Cmd, sink OutputSink) (string, string, error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return "", "", err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return "", "", err
	}
	if err := cmd.Start(); err != nil {
		return "", "", err
	}

	var (
		mu                   sync.Mutex
		stdoutBuf, stderrBuf bytes.Buffer
	)
	g := new(errgroup.Group)
	g.Go(func() error { return drain(stdoutPipe, &stdoutBuf, &mu, sink) })
	g.Go(func() error { return drain(stderrPipe, &stderrBuf, &mu, sink) })

	copyErr := g.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		return stdoutBuf.String(), stderrBuf.String(), waitErr
	}
	if copyErr != nil {
		r.logger.Warn("output pipe read failed", zap.Error(copyErr))
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

func drain(src io.Reader, dst *bytes.Buffer, mu *sync.Mutex, sink OutputSink) error {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			mu.Lock()
			dst.Write(chunk)
			sink(string(chunk))
			mu.Unlock()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
