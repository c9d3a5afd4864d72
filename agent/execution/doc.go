// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 execution 在受控工作目录中执行智能体提出的代码块。

# 概述

本包解决"智能体生成的代码块如何被检查、落盘、执行并以结构化结果
返回对话循环"的问题。一轮对话中的代码块严格顺序执行，首个失败即停止，
标准错误与标准输出按执行顺序累积到同一份输出中。

# 执行流程

[LocalExecutor.ExecuteCodeBlocks] 对一批代码块依次完成：

  - 批过滤：丢弃含 "# execution: false" 的代码块，只保留含 "# execution:" 的代码块
  - 静态检查：按限制级别（0/1/2）调用 guardrails 中的检查器
  - 语言归一：py/python3 归为 python；Windows 目标上 sh/shell 归为 ps1
  - 文件落盘：优先使用 "# filename:" 指令，否则按内容 MD5 命名
  - 执行策略：仅保存的语言只落盘并记录 "Code saved to"
  - 进程执行：通过 [ProcessRunner] 带超时运行，支持流式输出
  - 输出护栏：删除含秘密值的行，仍有残留时转换为退出码 1
  - 截断：失败输出保留 2048 字节，其他输出保留 10000 字节

守卫违规与输出违规都会被转换为普通的 [Result]，而不是 Go 错误，
以便智能体在下一轮自行修正。只有写文件失败、解释器无法启动等
基础设施问题才以 error 返回。

# 退出码

  - [ExitNotExecuted] (-2)：没有任何代码块被执行
  - [ExitSuccess] (0)：成功，或全部代码块均被过滤
  - [ExitFailure] (1)：守卫违规、未知语言、文件名越界
  - [ExitTimeout] (124)：超时，与 Linux timeout 命令一致
  - 其他：进程自身的退出码

# 并发

同一个工作目录只能由一个执行器使用。不同会话应使用不同的工作目录。
*/
package execution
