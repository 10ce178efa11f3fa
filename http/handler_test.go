package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

type testStats struct {
	Rounds int     `json:"rounds"`
	Ratio  float64 `json:"ratio"`
}

func TestHandleHealthCheck(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localoctree/health", nil)

	HandleHealthCheck(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var health Health
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
}

func TestHandleVersion(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "http://localoctree/version", nil)

	HandleVersion("v1.2.3")(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"version":"v1.2.3"}`, rec.Body.String())
}

func TestHandleStats(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "http://localoctree/stats", nil)

		HandleStats(func() any {
			return testStats{Rounds: 3, Ratio: 0.5}
		})(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var stats testStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		require.Equal(t, testStats{Rounds: 3, Ratio: 0.5}, stats)
	})

	t.Run("encoding error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "http://localoctree/stats", nil)

		HandleStats(func() any {
			return testStats{Ratio: math.NaN()}
		})(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleStatsStream(t *testing.T) {
	rounds := 0
	server := httptest.NewServer(HandleStatsStream(func() any {
		rounds++
		return testStats{Rounds: rounds}
	}, time.Millisecond))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := websocket.Dial(url, "", server.URL)
	require.NoError(t, err)
	defer conn.Close()

	for i := 1; i <= 3; i++ {
		var msg string
		require.NoError(t, websocket.Message.Receive(conn, &msg))

		var stats testStats
		require.NoError(t, json.Unmarshal([]byte(msg), &stats))
		require.Equal(t, i, stats.Rounds)
	}
}
