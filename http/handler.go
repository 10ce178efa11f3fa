package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// StatsFunc returns a JSON encodable snapshot.
type StatsFunc func() any

// Health is the body of the health check.
type Health struct {
	Status string `json:"status"`
}

// Version is the body of the version endpoint.
type Version struct {
	Version string `json:"version"`
}

func HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, Health{Status: "ok"})
}

func HandleVersion(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, Version{Version: version})
	}
}

// HandleStats writes the current snapshot as JSON.
func HandleStats(stats StatsFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, stats())
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("encoding response failed").
			WithTag("type", fmt.Sprintf("%T", v)).
			Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// HandleStatsStream sends a JSON snapshot every interval until the client
// leaves.
func HandleStatsStream(stats StatsFunc, interval time.Duration) websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()

		ctx := conn.Request().Context()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			b, err := json.Marshal(stats())
			if err != nil {
				logs.Warn(errors.New("encoding stats failed").Wrap(err))
				return
			}

			if err := websocket.Message.Send(conn, string(b)); err != nil {
				logs.WithTag("remote_addr", conn.Request().RemoteAddr).
					Debug("stats stream closed")
				return
			}

			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
			}
		}
	}
}
