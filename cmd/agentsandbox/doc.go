// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 agentsandbox 命令行入口。

# 子命令

  - run：从文件或 stdin 读取助手回复，提取代码块，经危险命令检查后在
    工作目录中执行，输出 JSON 结果（exit_code / output / code_file）。
  - check：只运行危险命令检查，发现违规时退出码为 1。
  - version：显示构建注入的版本信息。

# 全局参数

--config 指定 YAML 配置文件，--work-dir、--level、--timeout、--stream
覆盖配置中的对应项，--metrics-addr 在运行期间暴露 /metrics。
*/
package main
