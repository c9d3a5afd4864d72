// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供沙箱各模块共享的基础类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent/execution、
agent/guardrails、agent/conversation 与 llm/retry 提供统一的类型契约。

# 核心类型

  - Message：对话消息（Role、Content、Name）
  - Error / ErrorCode：结构化错误体系，含 Retryable 与 Provider 标记

# 主要能力

  - Context 传播：WithConversationID / WithRunID
  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
  - 上游错误码：RATE_LIMIT、CONNECTION_TIMEOUT、SERVICE_UNAVAILABLE 等，
    由 llm/retry 映射为可重试 / 不可重试
  - 沙箱错误码：CODE_GUARD_VIOLATION、OUTPUT_GUARD_VIOLATION、
    UNSUPPORTED_LANGUAGE、FILENAME_OUTSIDE_WORKSPACE、EXECUTION_TIMEOUT
*/
package types
