package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/BaSui01/agentsandbox/config"
)

// rootOptions 全局参数与输入输出
type rootOptions struct {
	configPath  string
	workDir     string
	level       int
	timeout     time.Duration
	stream      bool
	metricsAddr string

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	opts := &rootOptions{in: in, out: out, errOut: errOut}

	cmd := &cobra.Command{
		Use:   "agentsandbox",
		Short: "Guarded local execution of model-proposed code blocks",
		Long: `agentsandbox runs the code blocks of an assistant reply on the local machine.

Every block is screened for destructive commands before it is written to the
work dir. Output is scrubbed of secret values from the environment and bounded
in size before it is printed.

Commands:
  run      Extract code blocks from markdown and execute them
  check    Only screen code for dangerous commands
  version  Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (YAML)")
	pf.StringVar(&opts.workDir, "work-dir", "", "Directory code files are written to and run in")
	pf.IntVar(&opts.level, "level", 2, "Restriction level: 0 none, 1 base shell rules, 2 full rules")
	pf.DurationVar(&opts.timeout, "timeout", 0, "Per-block execution timeout")
	pf.BoolVar(&opts.stream, "stream", false, "Stream process output to stderr while running")
	pf.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus /metrics on this address while running")

	cmd.AddCommand(newRunCmd(opts), newCheckCmd(opts), newVersionCmd(opts))
	return cmd
}

// loadConfig 按 默认值 → 配置文件 → 环境变量 → 命令行参数 的顺序合成配置
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.NewLoader().WithConfigPath(o.configPath).Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("work-dir") {
		cfg.Sandbox.WorkDir = o.workDir
	}
	if flags.Changed("level") {
		cfg.Sandbox.RestrictionLevel = o.level
	}
	if flags.Changed("timeout") {
		cfg.Sandbox.Timeout = o.timeout
	}
	if flags.Changed("stream") {
		cfg.Sandbox.StreamOutput = o.stream
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = o.metricsAddr != ""
		cfg.Metrics.ListenAddr = o.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// readInput 读取文件参数，没有参数或参数为 "-" 时读取 stdin
func (o *rootOptions) readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(o.in)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}
