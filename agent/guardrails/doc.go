// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 guardrails 为代码执行沙箱提供双向护栏：执行前的代码检查与执行后的输出脱敏。

# 概述

guardrails 是纵深防御中的文本启发式层，而不是隔离内核。它在代码
交给解释器之前按语言匹配危险模式，并在输出返回对话循环之前删除
含有真实凭据的行。命名空间、seccomp、网络出口控制等操作系统级
隔离不在本包范围内。

# 输入侧

  - [StripCommentsAndStrings]：移除注释与字符串字面量，仅用作匹配输入，
    实际执行的仍是原始代码
  - [ShellPatterns] / [PythonPatterns]：按声明顺序排列的危险模式注册表，
    首个命中的模式决定报告的原因
  - [CodeGuard]：二级限制，剥离后逐条匹配
  - [BaseGuard]：一级限制，仅对 shell 原始代码做精简检查
  - [SanitizerForLevel]：按 0/1/2 级别选择检查器
  - [LanguageValidator]：将检查器包装为 [Validator]

# 输出侧

  - [SecretProvider]：秘密值来源，[EnvSecretProvider] 读取进程环境，
    [MapSecretProvider] 用于注入固定值
  - [SecretCatalog]：每次调用时重新计算的有效秘密值集合，
    空值与占位值（EMPTY、DUMMY、CHANGE_ME 等）被排除
  - [OutputGuard]：先删行、后复查；复查命中返回 [OutputViolationError]，
    其中只包含变量名

# 组合

  - [Chain]：按 Priority 排序执行多个 [Validator]，首个 Tripwire 后停止；
    命令行 check 用它同时运行代码检查与秘密值扫描

# 错误

  - [CodeViolationError]：以 [DangerMark] 开头，可用 errors.Is(err, [ErrDangerousCode]) 识别
  - [OutputViolationError]：以 [BadOutputMark] 开头，可用 errors.Is(err, [ErrSecretLeaked]) 识别

调用方应把这两类错误转换为退出码 1 的普通结果返回给智能体，
而不是中断整个会话。

# 已知盲区

剥离器不理解嵌套引号、转义引号和字符串内的 '#'；模式匹配无法识别
编码载荷（base64、十六进制）、跨语句拼接的命令以及嵌入其他语言的代码。

# 审计

  - [AuditLogger] / [MemoryAuditLogger]：记录违规事件，仅保存内容的
    SHA-256 哈希、违规原因与执行 ID；内存实现为固定容量环形缓冲
*/
package guardrails
