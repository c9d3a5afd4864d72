package types

import "time"

// Role 消息发送方
type Role string

// 执行器的结果以 RoleUser 回传给助手。
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message 对话中的一条消息
// 合并与终止判断只看 Content。
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content,omitempty"`
	Name      string    `json:"name,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewMessage 以当前时间创建消息
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now()}
}

// NewUserMessage 创建 user 消息
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage 创建 assistant 消息
func NewAssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }
