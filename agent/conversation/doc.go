// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 conversation 提供助手与代码执行器之间的对话循环及辅助函数。

# 核心类型

  - Conversation：助手生成回复，提取其中的代码块交给 CodeExecutor 执行，
    再把执行结果作为下一条消息反馈给助手，直到终止、无代码、
    达到最大轮次或超时。
  - CodeExecutor：执行一轮代码块的接口，execution.LocalExecutor 实现了它。

# 辅助函数

  - ShouldTerminate：空消息或以 TERMINATE 结尾的消息结束对话，
    但仍带有 "# execution: true" 的消息不会结束对话。
  - MergeMessages：按内容合并群聊管理器与参与者各自记录的消息列表。
  - FormatResult：把执行结果渲染为 "exitcode: N (...)\nCode output: ..."。
*/
package conversation
