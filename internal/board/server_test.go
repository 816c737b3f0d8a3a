package board_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brgilsonsp/corrida-familia-piba-front/internal/board"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/clock"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/metrics"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/storage"
	"github.com/brgilsonsp/corrida-familia-piba-front/internal/timing"
)

type fixture struct {
	srv   *httptest.Server
	hub   *board.Hub
	fake  *clockwork.FakeClock
	store *storage.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	st, err := storage.Open(ctx, storage.Config{DSN: filepath.Join(t.TempDir(), "board.db")})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fake := clockwork.NewFakeClockAt(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	src := clock.New(nil, clock.WithClock(fake), clock.WithLogger(zerolog.Nop()))
	src.Resolve(ctx)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	hub := board.NewHub(board.DefaultHubConfig())
	go hub.Run(ctx)

	rc := timing.New(st, timing.WithNotifier(hub), timing.WithMetrics(m), timing.WithLogger(zerolog.Nop()))
	s := board.New(rc, src, hub, board.WithGatherer(reg), board.WithMonitor("painel"))

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, hub: hub, fake: fake, store: st}
}

func (f *fixture) post(t *testing.T, path, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(f.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (f *fixture) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	status, body := f.get(t, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)
}

func TestFinishWriteFlow(t *testing.T) {
	f := newFixture(t)
	f.fake.Advance(5*time.Minute + 12340*time.Millisecond)

	status, out := f.post(t, "/api/finish", `{"numero_corredor": 101, "monitor": "Ana"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "created", out["outcome"])
	assert.Equal(t, "08:05:12.34", out["hora"])
	assert.NotEmpty(t, out["message"])

	status, out = f.post(t, "/api/finish", `{"numero_corredor": 101}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "already_recorded", out["outcome"])
	assert.Equal(t, "08:05:12.34", out["existente"])

	status, out = f.post(t, "/api/delayed-start", `{"numero_corredor": 101}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "finish_dominates", out["outcome"])
}

func TestWriteUsesDefaultMonitor(t *testing.T) {
	f := newFixture(t)
	status, _ := f.post(t, "/api/checkin", `{"numero_corredor": 9}`)
	require.Equal(t, http.StatusCreated, status)

	rec, err := f.store.Get(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, "painel", rec.Monitor)
}

func TestWriteInvalidInput(t *testing.T) {
	f := newFixture(t)
	status, out := f.post(t, "/api/finish", `{"numero_corredor": 0}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", out["outcome"])

	status, out = f.post(t, "/api/finish", `not json`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid JSON body", out["error"])
}

func TestRankingEndpoints(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/checkin", `{"numero_corredor": 2}`)
	f.fake.Advance(time.Minute)
	f.post(t, "/api/finish", `{"numero_corredor": 1}`)

	status, body := f.get(t, "/api/ranking")
	require.Equal(t, http.StatusOK, status)
	var ranking []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &ranking))
	require.Len(t, ranking, 2)
	assert.Equal(t, float64(1), ranking[0]["numero_corredor"])
	assert.Equal(t, float64(2), ranking[1]["posicao"])

	status, body = f.get(t, "/api/ranking?bib=2")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"posicao":2`)

	status, _ = f.get(t, "/api/ranking?bib=77")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = f.get(t, "/api/ranking?bib=abc")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = f.get(t, "/api/ranking.csv")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Posição,Número,Tempo Atrasado,Tempo Final\n1,1,N/A,08:01:00.00\n2,2,N/A,N/A\n", body)
}

func TestEmptyRankingIsArray(t *testing.T) {
	f := newFixture(t)
	status, body := f.get(t, "/api/ranking")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[]", strings.TrimSpace(body))
}

func TestClockEndpoint(t *testing.T) {
	f := newFixture(t)
	f.fake.Advance(1500 * time.Millisecond)

	status, body := f.get(t, "/api/clock")
	require.Equal(t, http.StatusOK, status)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.Equal(t, "local", out["source"])
	assert.Equal(t, "08:00:00.00", out["reference"])
	assert.Equal(t, "08:00:01.50", out["stamp"])
	assert.NotEmpty(t, out["sync_error"])
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.post(t, "/api/finish", `{"numero_corredor": 3}`)

	status, body := f.get(t, "/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `cronometro_timing_outcomes_total{op="finish",outcome="created"} 1`)
}

func TestCORSHeaders(t *testing.T) {
	f := newFixture(t)
	req, err := http.NewRequest(http.MethodGet, f.srv.URL+"/api/ranking", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://tablet.local")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestLiveFeed(t *testing.T) {
	f := newFixture(t)
	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	status, _ := f.post(t, "/api/finish", `{"numero_corredor": 55, "monitor": "Bea"}`)
	require.Equal(t, http.StatusCreated, status)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev map[string]any
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, "finish", ev["eventType"])
	assert.Equal(t, float64(55), ev["numero_corredor"])
	assert.Equal(t, "Bea", ev["monitor"])
}
