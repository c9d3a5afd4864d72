package types

import "context"

type ctxKey int

const (
	conversationIDKey ctxKey = iota
	runIDKey
)

// WithConversationID 绑定对话 ID，一次对话的所有轮次共享
func WithConversationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, conversationIDKey, id)
}

// ConversationID 读取对话 ID，空字符串视为不存在
func ConversationID(ctx context.Context) (string, bool) {
	return stringValue(ctx, conversationIDKey)
}

// WithRunID 绑定一批代码块的执行 ID
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey, id)
}

// RunID 读取执行 ID，空字符串视为不存在
func RunID(ctx context.Context) (string, bool) {
	return stringValue(ctx, runIDKey)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
