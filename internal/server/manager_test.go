package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/agentsandbox/internal/metrics"
)

func newLocalManager(t *testing.T, handler http.Handler) *Manager {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	return NewManager(handler, cfg, zap.NewNop())
}

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":9091", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestNewManager_Defaults(t *testing.T) {
	m := NewManager(http.NewServeMux(), Config{Addr: ":9999"}, nil)
	assert.False(t, m.IsRunning())
	assert.Equal(t, ":9999", m.Addr())
	assert.Equal(t, 5*time.Second, m.config.ShutdownTimeout)
}

func TestManager_StartAndShutdown(t *testing.T) {
	m := newLocalManager(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	assert.True(t, m.IsRunning())

	addr := m.Addr()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	assert.NotEqual(t, "0", port)

	resp, err := http.Get("http://" + addr + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	require.NoError(t, m.Shutdown(context.Background()))
	assert.False(t, m.IsRunning())
}

func TestManager_DoubleStart(t *testing.T) {
	m := newLocalManager(t, http.NewServeMux())
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	assert.ErrorContains(t, m.Start(), "already started")
}

func TestManager_ShutdownIdempotent(t *testing.T) {
	m := newLocalManager(t, http.NewServeMux())
	require.NoError(t, m.Start())

	require.NoError(t, m.Shutdown(context.Background()))
	require.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StartAfterShutdown(t *testing.T) {
	m := newLocalManager(t, http.NewServeMux())
	require.NoError(t, m.Start())
	require.NoError(t, m.Shutdown(context.Background()))

	assert.ErrorContains(t, m.Start(), "closed")
}

func TestManager_ListenFailure(t *testing.T) {
	first := newLocalManager(t, http.NewServeMux())
	require.NoError(t, first.Start())
	t.Cleanup(func() { _ = first.Shutdown(context.Background()) })

	second := NewManager(http.NewServeMux(), Config{Addr: first.Addr()}, nil)
	assert.ErrorContains(t, second.Start(), "listen on")
}

func TestManager_Errors(t *testing.T) {
	m := newLocalManager(t, http.NewServeMux())
	select {
	case <-m.Errors():
		t.Fatal("should not have received an error")
	default:
	}
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m := newLocalManager(t, http.NewServeMux())
	require.NoError(t, m.Shutdown(context.Background()))
	assert.ErrorContains(t, m.Start(), "closed")
}

func TestMetricsManager_ServesMetricsAndHealth(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector("agentsandbox", reg, nil)
	c.RecordTruncation()

	m := NewMetricsManager("127.0.0.1:0", reg, nil)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	get := func(path string) string {
		resp, err := http.Get("http://" + m.Addr() + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	assert.Contains(t, get("/metrics"), "agentsandbox_sandbox_truncations_total 1")
	assert.Equal(t, "ok\n", get("/healthz"))
}
