package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"

	"github.com/BaSui01/agentsandbox/types"
)

type scriptedGenerator struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (g *scriptedGenerator) GenerateReply(_ context.Context, _ []types.Message) (*Reply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if len(g.errs) > 0 {
		err := g.errs[0]
		g.errs = g.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &Reply{Content: "ok"}, nil
}

type kindRecorder struct {
	mu    sync.Mutex
	kinds []string
}

func (r *kindRecorder) RecordRetryAttempt(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
}

func fastOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestRetryingGenerator_RecoversFromTransient(t *testing.T) {
	inner := &scriptedGenerator{errs: []error{
		errors.New("Rate limit reached"),
		errors.New("incomplete chunked read"),
	}}
	rec := &kindRecorder{}
	opts := fastOptions()
	opts.Metrics = rec

	reply, err := NewRetryingGenerator(inner, opts).GenerateReply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []string{string(KindRateLimit), string(KindIncompleteRead)}, rec.kinds)
}

func TestRetryingGenerator_GivesUpAfterFiveAttempts(t *testing.T) {
	errs := make([]error, 10)
	for i := range errs {
		errs[i] = errors.New("Server unavailable")
	}
	inner := &scriptedGenerator{errs: errs}

	core, logs := observer.New(zap.WarnLevel)
	opts := fastOptions()
	opts.Logger = zap.New(core)

	_, err := NewRetryingGenerator(inner, opts).GenerateReply(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, types.IsErrorCode(err, types.ErrServiceUnavailable))
	assert.Equal(t, 5, inner.calls)

	backoffs := logs.FilterMessageSnippet("Backing off").All()
	require.Len(t, backoffs, 4)
	assert.Contains(t, backoffs[0].Message, "after 1 tries")
	assert.EqualValues(t, 4, backoffs[3].ContextMap()["tries"])
	assert.Equal(t, 1, logs.FilterMessageSnippet("Giving up after 5 tries").Len())
}

func TestRetryingGenerator_FatalAfterOneAttempt(t *testing.T) {
	fatal := errors.New("invalid api key")
	inner := &scriptedGenerator{errs: []error{fatal}}

	_, err := NewRetryingGenerator(inner, fastOptions()).GenerateReply(context.Background(), nil)
	assert.Same(t, fatal, err)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryingGenerator_RetriesMarkedErrors(t *testing.T) {
	inner := &scriptedGenerator{errs: []error{WrapRetryable(errors.New("stream reset by peer"))}}
	rec := &kindRecorder{}
	opts := fastOptions()
	opts.Metrics = rec

	reply, err := NewRetryingGenerator(inner, opts).GenerateReply(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply.Content)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, []string{string(KindMarked)}, rec.kinds)
}

func TestRetryingGenerator_Limiter(t *testing.T) {
	inner := &scriptedGenerator{}
	opts := fastOptions()
	opts.Limiter = rate.NewLimiter(rate.Every(time.Hour), 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewRetryingGenerator(inner, opts).GenerateReply(ctx, nil)
	assert.Error(t, err)
	assert.Equal(t, 0, inner.calls)
}

func TestReplyGeneratorFunc(t *testing.T) {
	var got []types.Message
	gen := ReplyGeneratorFunc(func(_ context.Context, messages []types.Message) (*Reply, error) {
		got = messages
		return &Reply{Content: "hi"}, nil
	})
	msgs := []types.Message{types.NewUserMessage("hello")}

	reply, err := NewRetryingGenerator(gen, RetryOptions{}).GenerateReply(context.Background(), msgs)
	require.NoError(t, err)
	assert.Equal(t, "hi", reply.Content)
	assert.Equal(t, msgs, got)
}
