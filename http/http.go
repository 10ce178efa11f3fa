package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
)

const (
	shutdownTimeout   = time.Second * 5
	readHeaderTimeout = time.Second * 10
	pprofPrefix       = "/debug/pprof/"
)

// NewServer returns a server with the admin timeouts set.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// ListenAndServe runs the given servers until ctx is done, then shuts them
// down and waits for them to return.
func ListenAndServe(ctx context.Context, servers ...*http.Server) {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		for _, s := range servers {
			if err := s.Shutdown(shutdownCtx); err != nil {
				logs.Warn(errors.New("shutting down admin server failed").
					WithTag("addr", s.Addr).
					Wrap(err))
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(len(servers))

	for _, s := range servers {
		go func(s *http.Server) {
			defer wg.Done()

			logs.WithTag("addr", s.Addr).Info("admin server listening")

			err := s.ListenAndServe()
			if err == nil || err == http.ErrServerClosed {
				logs.WithTag("addr", s.Addr).Info("admin server stopped")
				return
			}

			logs.Warn(errors.New("admin server failed").
				WithTag("addr", s.Addr).
				Wrap(err))
		}(s)
	}

	wg.Wait()
}

// MetricsPathFormatter returns the path label of an admin request. Failed
// lookups are dropped and profiling endpoints share one label.
func MetricsPathFormatter(statusCode int, path string) string {
	switch statusCode {
	case http.StatusMovedPermanently,
		http.StatusBadRequest,
		http.StatusNotFound,
		http.StatusMethodNotAllowed:
		return ""
	}

	if strings.HasPrefix(path, pprofPrefix) {
		return pprofPrefix
	}
	return path
}
