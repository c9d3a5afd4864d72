// =============================================================================
// AgentSandbox 主入口
// =============================================================================
//
//	agentsandbox run reply.md                  # 提取并执行 markdown 中的代码块
//	agentsandbox run --stream < reply.md       # 从 stdin 读取并实时输出
//	agentsandbox check --lang sh script.sh     # 只做危险命令检查
//	agentsandbox version                       # 显示版本信息
// =============================================================================
package main

import (
	"errors"
	"fmt"
	"os"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errGuardViolation) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
