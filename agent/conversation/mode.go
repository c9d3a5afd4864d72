package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/agentsandbox/agent/execution"
	"github.com/BaSui01/agentsandbox/llm/retry"
	"github.com/BaSui01/agentsandbox/types"
)

// CodeExecutor runs the code blocks of one assistant turn. *execution.LocalExecutor satisfies it.
type CodeExecutor interface {
	ExecuteCodeBlocks(ctx context.Context, blocks []execution.CodeBlock) (*execution.Result, error)
}

// TerminationReason explains why Start returned.
type TerminationReason string

const (
	ReasonTerminated TerminationReason = "terminated" // assistant said TERMINATE or sent nothing
	ReasonNoCode     TerminationReason = "no_code"    // reply had no code blocks to run
	ReasonMaxRounds  TerminationReason = "max_rounds"
	ReasonTimeout    TerminationReason = "timeout"
	ReasonError      TerminationReason = "error"
)

// ConversationConfig configures the conversation.
type ConversationConfig struct {
	MaxRounds    int           `json:"max_rounds"`
	Timeout      time.Duration `json:"timeout"`
	SystemPrompt string        `json:"system_prompt,omitempty"`
}

// DefaultConversationConfig returns default configuration.
func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		MaxRounds: 10,
		Timeout:   10 * time.Minute,
	}
}

// Conversation alternates between an assistant that proposes code and an executor that runs it.
type Conversation struct {
	ID        string
	Config    ConversationConfig
	assistant retry.ReplyGenerator
	executor  CodeExecutor
	messages  []types.Message
	logger    *zap.Logger
	mu        sync.RWMutex
}

// ConversationResult holds the outcome of a conversation.
type ConversationResult struct {
	ConversationID    string            `json:"conversation_id"`
	Messages          []types.Message   `json:"messages"`
	TotalRounds       int               `json:"total_rounds"`
	LastResult        *execution.Result `json:"last_result,omitempty"`
	StartTime         time.Time         `json:"start_time"`
	EndTime           time.Time         `json:"end_time"`
	TerminationReason TerminationReason `json:"termination_reason"`
}

// NewConversation creates a new conversation.
func NewConversation(assistant retry.ReplyGenerator, executor CodeExecutor, config ConversationConfig, logger *zap.Logger) *Conversation {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultConversationConfig()
	if config.MaxRounds <= 0 {
		config.MaxRounds = defaults.MaxRounds
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	id := "conv_" + uuid.NewString()
	return &Conversation{
		ID:        id,
		Config:    config,
		assistant: assistant,
		executor:  executor,
		logger:    logger.With(zap.String("component", "conversation"), zap.String("conversation_id", id)),
	}
}

// Start runs the loop from initialMessage. Assistant and executor errors abort
// the conversation; guard rejections and failed runs are fed back as results.
func (c *Conversation) Start(ctx context.Context, initialMessage string) (*ConversationResult, error) {
	c.logger.Info("conversation started", zap.Int("max_rounds", c.Config.MaxRounds))

	ctx, cancel := context.WithTimeout(ctx, c.Config.Timeout)
	defer cancel()
	ctx = types.WithConversationID(ctx, c.ID)

	if c.Config.SystemPrompt != "" {
		c.addMessage(types.NewMessage(types.RoleSystem, c.Config.SystemPrompt))
	}
	c.addMessage(types.NewUserMessage(initialMessage))

	result := &ConversationResult{
		ConversationID: c.ID,
		StartTime:      time.Now(),
	}
	finish := func(reason TerminationReason, err error) (*ConversationResult, error) {
		result.EndTime = time.Now()
		result.Messages = c.GetMessages()
		result.TerminationReason = reason
		c.logger.Info("conversation ended",
			zap.String("reason", string(reason)),
			zap.Int("rounds", result.TotalRounds),
		)
		return result, err
	}

	for result.TotalRounds < c.Config.MaxRounds {
		if ctx.Err() != nil {
			return finish(ReasonTimeout, ctx.Err())
		}

		reply, err := c.assistant.GenerateReply(ctx, c.GetMessages())
		if err != nil {
			if ctx.Err() != nil {
				return finish(ReasonTimeout, ctx.Err())
			}
			return finish(ReasonError, fmt.Errorf("assistant reply: %w", err))
		}
		msg := types.NewAssistantMessage("")
		if reply != nil {
			msg.Content = reply.Content
			msg.Name = reply.Name
		}
		c.addMessage(msg)
		result.TotalRounds++

		if ShouldTerminate(msg) {
			return finish(ReasonTerminated, nil)
		}

		blocks := execution.ExtractCodeBlocks(msg.Content)
		if len(blocks) == 0 {
			return finish(ReasonNoCode, nil)
		}

		res, err := c.executor.ExecuteCodeBlocks(ctx, blocks)
		if err != nil {
			if ctx.Err() != nil {
				return finish(ReasonTimeout, ctx.Err())
			}
			return finish(ReasonError, fmt.Errorf("execute code blocks: %w", err))
		}
		result.LastResult = res
		c.addMessage(types.NewUserMessage(FormatResult(res)))
	}

	return finish(ReasonMaxRounds, nil)
}

// FormatResult renders an execution result as the executor's reply.
func FormatResult(res *execution.Result) string {
	status := "execution succeeded"
	if res.ExitCode != execution.ExitSuccess {
		status = "execution failed"
	}
	return fmt.Sprintf("exitcode: %d (%s)\nCode output: %s", res.ExitCode, status, res.Output)
}

func (c *Conversation) addMessage(msg types.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	c.messages = append(c.messages, msg)
}

// GetMessages returns all messages.
func (c *Conversation) GetMessages() []types.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]types.Message{}, c.messages...)
}
