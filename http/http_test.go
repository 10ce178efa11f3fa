package http

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsPathFormatter(t *testing.T) {
	tests := []struct {
		scenario   string
		statusCode int
		path       string
		expected   string
	}{
		{
			scenario:   "ok",
			statusCode: http.StatusOK,
			path:       "/stats",
			expected:   "/stats",
		},
		{
			scenario:   "not found",
			statusCode: http.StatusNotFound,
			path:       "/random",
		},
		{
			scenario:   "method not allowed",
			statusCode: http.StatusMethodNotAllowed,
			path:       "/stats",
		},
		{
			scenario:   "moved permanently",
			statusCode: http.StatusMovedPermanently,
			path:       "/debug/pprof",
		},
		{
			scenario:   "pprof profile",
			statusCode: http.StatusOK,
			path:       "/debug/pprof/heap",
			expected:   "/debug/pprof/",
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			require.Equal(t, test.expected, MetricsPathFormatter(test.statusCode, test.path))
		})
	}
}

func TestListenAndServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	mux := http.NewServeMux()
	mux.HandleFunc("/health", HandleHealthCheck)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		ListenAndServe(ctx, NewServer(addr, mux))
		close(done)
	}()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, time.Second, time.Millisecond*10)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second * 5):
		t.Fatal("servers did not stop")
	}
}
