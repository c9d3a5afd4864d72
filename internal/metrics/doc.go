// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的沙箱指标采集。

# 核心类型

  - Collector：在调用方提供的 Registerer 上通过 promauto 注册指标，
    实现执行器的 Recorder 与重试生成器的 AttemptRecorder。

# 指标

  - sandbox_executions_total{language,status}：代码块处理次数，
    status 取 success/failure/timeout/saved。
  - sandbox_execution_duration_seconds{language}：执行耗时。
  - sandbox_guard_violations_total{stage}：input/output 防护拒绝次数。
  - sandbox_redacted_lines_total：因包含密钥值被丢弃的输出行数。
  - sandbox_truncations_total：输出截断次数。
  - llm_retry_attempts_total{kind}：按错误分类统计的失败尝试。

设置 namespace 时，所有指标名带上 namespace 前缀。
*/
package metrics
