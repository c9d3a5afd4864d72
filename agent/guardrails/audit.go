package guardrails

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/BaSui01/agentsandbox/types"
)

// AuditEventType 审计事件类型
type AuditEventType string

const (
	// AuditEventCodeBlocked 代码命中危险模式
	AuditEventCodeBlocked AuditEventType = "code_blocked"
	// AuditEventSecretRedacted 输出中含秘密值的行被删除
	AuditEventSecretRedacted AuditEventType = "secret_redacted"
	// AuditEventSecretLeaked 删除行后仍检测到秘密值
	AuditEventSecretLeaked AuditEventType = "secret_leaked"
)

// AuditLogEntry 审计日志条目
// 只保存内容哈希，不保存原始代码或输出。
type AuditLogEntry struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventType   AuditEventType `json:"event_type"`
	GuardName   string         `json:"guard_name"`
	RunID       string         `json:"run_id,omitempty"` // 同一批代码块共享
	ContentHash string         `json:"content_hash"`
	// Reason 违规原因；秘密相关事件中为变量名列表，不含值
	Reason   string         `json:"reason,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// AuditLogger 护栏审计日志记录器接口
type AuditLogger interface {
	Log(ctx context.Context, entry *AuditLogEntry) error
	Query(ctx context.Context, filter *AuditLogFilter) ([]*AuditLogEntry, error)
	Count(ctx context.Context, filter *AuditLogFilter) (int, error)
}

// AuditLogFilter 审计日志查询过滤器，零值字段不参与过滤
type AuditLogFilter struct {
	StartTime  *time.Time
	EndTime    *time.Time
	EventTypes []AuditEventType
	GuardNames []string
	RunID      string
	Limit      int
	Offset     int
}

// MemoryAuditLogger 固定容量的内存审计日志，写满后覆盖最旧的条目
type MemoryAuditLogger struct {
	mu      sync.RWMutex
	ring    []*AuditLogEntry
	next    int
	full    bool
	maxSize int
}

// NewMemoryAuditLogger 创建内存审计日志记录器，maxSize <= 0 时为 1000
func NewMemoryAuditLogger(maxSize int) *MemoryAuditLogger {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &MemoryAuditLogger{
		ring:    make([]*AuditLogEntry, maxSize),
		maxSize: maxSize,
	}
}

// Log 记录审计日志
func (l *MemoryAuditLogger) Log(_ context.Context, entry *AuditLogEntry) error {
	if entry == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ring[l.next] = entry
	l.next = (l.next + 1) % l.maxSize
	if l.next == 0 {
		l.full = true
	}
	return nil
}

// ordered 按写入顺序返回条目，调用方需持有读锁
func (l *MemoryAuditLogger) ordered() []*AuditLogEntry {
	if !l.full {
		return append([]*AuditLogEntry(nil), l.ring[:l.next]...)
	}
	out := make([]*AuditLogEntry, 0, l.maxSize)
	out = append(out, l.ring[l.next:]...)
	return append(out, l.ring[:l.next]...)
}

// Query 按写入顺序返回匹配的条目
func (l *MemoryAuditLogger) Query(_ context.Context, filter *AuditLogFilter) ([]*AuditLogEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := []*AuditLogEntry{}
	for _, entry := range l.ordered() {
		if matchFilter(entry, filter) {
			result = append(result, entry)
		}
	}
	if filter == nil {
		return result, nil
	}
	if filter.Offset >= len(result) {
		return []*AuditLogEntry{}, nil
	}
	result = result[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// Count 统计匹配的条目数量
func (l *MemoryAuditLogger) Count(_ context.Context, filter *AuditLogFilter) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, entry := range l.ordered() {
		if matchFilter(entry, filter) {
			count++
		}
	}
	return count, nil
}

// GetEntries 按写入顺序返回所有条目
func (l *MemoryAuditLogger) GetEntries() []*AuditLogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ordered()
}

func matchFilter(entry *AuditLogEntry, filter *AuditLogFilter) bool {
	if filter == nil {
		return true
	}
	if filter.StartTime != nil && entry.Timestamp.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && entry.Timestamp.After(*filter.EndTime) {
		return false
	}
	if len(filter.EventTypes) > 0 && !containsValue(filter.EventTypes, entry.EventType) {
		return false
	}
	if len(filter.GuardNames) > 0 && !containsValue(filter.GuardNames, entry.GuardName) {
		return false
	}
	if filter.RunID != "" && entry.RunID != filter.RunID {
		return false
	}
	return true
}

func containsValue[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// recordViolation 写入审计日志；logger 为 nil 时忽略
// ctx 中的 run ID 随条目一起记录。
func recordViolation(ctx context.Context, logger AuditLogger, guard string, event AuditEventType, content, reason string) {
	if logger == nil {
		return
	}
	runID, _ := types.RunID(ctx)
	_ = logger.Log(ctx, &AuditLogEntry{
		Timestamp:   time.Now(),
		EventType:   event,
		GuardName:   guard,
		RunID:       runID,
		ContentHash: hashContent(content),
		Reason:      reason,
	})
}

// hashContent 计算内容的 SHA256 哈希
func hashContent(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
