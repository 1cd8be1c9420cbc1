package api

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugsim"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/debugtool"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/eventloop"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/hub"
	"github.com/Udeesh-Dinnipati/bugsu-ai-hunter-pro/internal/vulnscan"
)

type scanCounter struct {
	calls atomic.Int32
	errs  atomic.Int32
}

func (c *scanCounter) URLScanFinished(_ []string, err error) {
	c.calls.Add(1)
	if err != nil {
		c.errs.Add(1)
	}
}

type testServer struct {
	*httptest.Server
	scans *scanCounter
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	loop := eventloop.New(64, logger)
	ctx, cancel := context.WithCancel(context.Background())
	go loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})

	engine := debugsim.NewEngine(loop,
		debugsim.WithRandom(debugsim.NewRandom(5)),
		debugsim.WithTunables(debugsim.Tunables{
			Scanning: debugsim.ScanTunables{Interval: time.Millisecond, Step: 25, DiscoveryProbability: 1},
			Fixing:   debugsim.FixTunables{Interval: time.Millisecond, Step: 25, RepairProbability: 1},
		}),
	)
	manager := hub.NewManager(loop, engine, hub.Options{Logger: logger})
	scanner := vulnscan.New(vulnscan.Options{Random: debugsim.NewRandom(5)})

	scans := &scanCounter{}
	if opts.ScanObserver == nil {
		opts.ScanObserver = scans
	}
	srv := httptest.NewServer(NewRouter(manager, scanner, opts, logger))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, scans: scans}
}

func (s *testServer) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.URL+path, rdr)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) create(t *testing.T) debugtool.Snapshot {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[debugtool.Snapshot](t, resp)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	srv.create(t)

	resp := srv.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	health := decode[HealthResponse](t, resp)
	assert.Equal(t, HealthResponse{Status: "ok", Sessions: 1}, health)
}

func TestCatalog(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	resp := srv.do(t, http.MethodGet, "/api/catalog", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, debugsim.DefaultCatalog(), decode[CatalogResponse](t, resp).Issues)
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	created := srv.create(t)
	assert.Equal(t, debugsim.StageIdle, created.Stage)
	assert.True(t, created.Visible)
	assert.NotNil(t, created.Issues)

	resp := srv.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/start", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	started := decode[debugtool.Snapshot](t, resp)
	assert.Equal(t, debugsim.StageScanning, started.Stage)
	assert.True(t, started.Running)

	var done debugtool.Snapshot
	require.Eventually(t, func() bool {
		resp, err := srv.Client().Get(srv.URL + "/api/sessions/" + created.ID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var snap debugtool.Snapshot
		if json.NewDecoder(resp.Body).Decode(&snap) != nil {
			return false
		}
		done = snap
		return snap.Stage == debugsim.StageComplete
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 100, done.Progress)
	assert.Len(t, done.Issues, 4)
	assert.Zero(t, done.UnfixedCount())

	resp = srv.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/close", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	closed := decode[debugtool.Snapshot](t, resp)
	assert.False(t, closed.Visible)
	assert.Equal(t, debugsim.StageIdle, closed.Stage)

	resp = srv.do(t, http.MethodDelete, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = srv.do(t, http.MethodGet, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, decode[errorResponse](t, resp).Error, "session not found")
}

func TestCommandErrors(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	created := srv.create(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"unknown command", "/api/sessions/" + created.ID + "/explode", http.StatusBadRequest},
		{"unknown session", "/api/sessions/nope/start", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, http.MethodPost, tt.path, "")
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}

	resp := srv.do(t, http.MethodDelete, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCommandRateLimit(t *testing.T) {
	srv := newTestServer(t, RouterOptions{CommandRate: 0.001, CommandBurst: 2})

	created := srv.create(t)
	resp := srv.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/reset", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = srv.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/reset", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))

	// Reads are not limited.
	resp = srv.do(t, http.MethodGet, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEventsStream(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})
	created := srv.create(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/sessions/"+created.ID+"/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan [2]string, 64)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		var name string
		for sc.Scan() {
			line := sc.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				events <- [2]string{name, strings.TrimPrefix(line, "data: ")}
			}
		}
	}()

	next := func() [2]string {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream ended early")
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for event")
			return [2]string{}
		}
	}

	first := next()
	require.Equal(t, "snapshot", first[0])
	var snap debugtool.Snapshot
	require.NoError(t, json.Unmarshal([]byte(first[1]), &snap))
	assert.Equal(t, created.ID, snap.ID)
	assert.Equal(t, debugsim.StageIdle, snap.Stage)

	resp2 := srv.do(t, http.MethodPost, "/api/sessions/"+created.ID+"/start", "")
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	for {
		ev := next()
		require.Equal(t, "snapshot", ev[0])
		require.NoError(t, json.Unmarshal([]byte(ev[1]), &snap))
		if snap.Stage == debugsim.StageComplete {
			break
		}
	}

	resp3 := srv.do(t, http.MethodDelete, "/api/sessions/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, resp3.StatusCode)
	for {
		ev := next()
		if ev[0] == "closed" {
			break
		}
	}
}

func TestScans(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	resp := srv.do(t, http.MethodPost, "/api/scans", `{"url":"https://example.com"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[vulnscan.Result](t, resp)
	assert.Equal(t, "https://example.com", res.URL)
	assert.LessOrEqual(t, len(res.Vulnerabilities), 5)

	tests := []struct {
		name string
		body string
	}{
		{"bad scheme", `{"url":"ftp://example.com"}`},
		{"missing url", `{}`},
		{"not json", `url=https://example.com`},
		{"unknown field", `{"url":"https://example.com","depth":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := srv.do(t, http.MethodPost, "/api/scans", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	// The valid scan and the bad scheme reached the scanner.
	assert.Equal(t, int32(2), srv.scans.calls.Load())
	assert.Equal(t, int32(1), srv.scans.errs.Load())
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "bugsu_sessions 0\n")
	})
	srv := newTestServer(t, RouterOptions{Metrics: metrics})

	resp := srv.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "bugsu_sessions")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, RouterOptions{})

	resp := srv.do(t, http.MethodOptions, "/api/sessions", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}
