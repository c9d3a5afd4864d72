// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理命令行运行期间的后台 HTTP 服务器，目前用于暴露
Prometheus /metrics。

  - Manager：封装 net/http.Server，提供非阻塞 Start、可重复调用的
    Shutdown，以及通过 Errors 通道传播的异步错误。
  - NewMetricsManager：挂载 /metrics 与 /healthz 的 Manager。
  - Config：监听地址与读写、空闲、关闭超时。
*/
package server
