// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package config 提供 AgentSandbox 的配置加载与校验。
//
// 配置来源依次为内置默认值、YAML 文件和 AGENTSANDBOX_ 前缀的环境变量，
// 加载后转换为执行器与重试生成器使用的配置结构。
package config
