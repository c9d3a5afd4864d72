package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/agentsandbox/agent/execution"
	"github.com/BaSui01/agentsandbox/agent/guardrails"
	"github.com/BaSui01/agentsandbox/config"
	"github.com/BaSui01/agentsandbox/internal/metrics"
	"github.com/BaSui01/agentsandbox/internal/server"
)

const auditLogSize = 256

// runReport 是 run 命令打印到 stdout 的 JSON
type runReport struct {
	*execution.Result
	Blocks int                        `json:"blocks"`
	Audit  []*guardrails.AuditLogEntry `json:"audit,omitempty"`
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "Extract code blocks from a markdown reply and execute them",
		Long: `Reads an assistant reply from the file argument or stdin, extracts its
fenced code blocks and executes those tagged "# execution: true".
The result is printed as JSON.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, args)
		},
	}
}

func (o *rootOptions) run(cmd *cobra.Command, args []string) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	input, err := o.readInput(args)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(cfg.Metrics.Namespace, reg, logger)
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddr != "" {
		stop, err := startMetricsServer(cfg.Metrics.ListenAddr, reg, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	audit := guardrails.NewMemoryAuditLogger(auditLogSize)
	executor, err := newExecutor(cfg, logger, collector, audit, o.errOut)
	if err != nil {
		return err
	}

	blocks := execution.ExtractCodeBlocks(input)
	res, err := executor.ExecuteCodeBlocks(cmd.Context(), blocks)
	if err != nil {
		return fmt.Errorf("execute code blocks: %w", err)
	}

	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	return enc.Encode(runReport{Result: res, Blocks: len(blocks), Audit: audit.GetEntries()})
}

func newExecutor(cfg *config.Config, logger *zap.Logger, recorder execution.Recorder, audit guardrails.AuditLogger, streamTo io.Writer) (*execution.LocalExecutor, error) {
	opts := []execution.Option{
		execution.WithLogger(logger),
		execution.WithMetrics(recorder),
		execution.WithAuditLogger(audit),
	}
	if len(cfg.Sandbox.SecretNames) > 0 {
		opts = append(opts, execution.WithSecretNames(cfg.Sandbox.SecretNames))
	}
	if cfg.Sandbox.StreamOutput {
		opts = append(opts, execution.WithOutputSink(func(chunk string) {
			_, _ = io.WriteString(streamTo, chunk)
		}))
	}
	return execution.NewLocalExecutor(cfg.Sandbox.ExecutorConfig(), opts...)
}

// startMetricsServer 在后台暴露 /metrics，返回的函数负责关闭
func startMetricsServer(addr string, gatherer prometheus.Gatherer, logger *zap.Logger) (func(), error) {
	manager := server.NewMetricsManager(addr, gatherer, logger)
	if err := manager.Start(); err != nil {
		return nil, fmt.Errorf("start metrics server: %w", err)
	}
	return func() {
		if err := manager.Shutdown(context.Background()); err != nil {
			logger.Warn("metrics server shutdown failed", zap.Error(err))
		}
	}, nil
}
