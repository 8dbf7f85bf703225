package observe

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestInitProviderExportsThroughRegistry(t *testing.T) {
	provider, err := InitProvider(context.Background(), ProviderConfig{ServiceVersion: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.MeterProvider)
	require.NoError(t, err)
	m.RecordPayment(context.Background(), "approved", time.Second)

	srv := NewServer("127.0.0.1:0", provider.Registry, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "trustpay_payments")
	require.Contains(t, body, `outcome="approved"`)
	require.Contains(t, body, "go_goroutines")
}

func TestServerHealth(t *testing.T) {
	provider, err := InitProvider(context.Background(), ProviderConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	NewServer("", provider.Registry, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestServeStopsOnContextCancel(t *testing.T) {
	provider, err := InitProvider(context.Background(), ProviderConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan net.Addr, 1)
	done := make(chan error, 1)
	go func() { done <- NewServer("127.0.0.1:0", provider.Registry, nil).Serve(ctx, ready) }()

	var addr net.Addr
	select {
	case addr = <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("metrics server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, "ok", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not stop")
	}
}

func TestServeFailsOnBadAddress(t *testing.T) {
	err := NewServer("256.0.0.1:bad", nil, nil).Serve(context.Background(), nil)
	require.ErrorContains(t, err, "listen metrics")
}
