package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdrpinto/astar/graphs/grid"
	"github.com/pdrpinto/astar/graphs/transit"
	"github.com/pdrpinto/astar/internal/config"
	"github.com/pdrpinto/astar/internal/routecache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	options := Options{
		Grid:        config.Default().Grid,
		MaxSessions: 8,
		Logger:      log.New(io.Discard),
		Registry:    prometheus.NewRegistry(),
	}
	if mutate != nil {
		mutate(&options)
	}
	return New(options)
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createOpenSession(t *testing.T, s *Server) sessionResponse {
	t.Helper()
	w := do(t, s, http.MethodPost, "/api/sessions", `{"width":10,"height":8,"clusters":0,"seed":7}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[sessionResponse](t, w)
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<canvas")

	w = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateSession(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)

	_, err := uuid.Parse(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, created.Width)
	assert.Equal(t, 8, created.Height)
	assert.Empty(t, created.Walls)
	assert.NotEqual(t, created.Start, created.Goal)
	assert.Equal(t, 1, s.sessions.len())
}

func TestCreateSessionDefaults(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[sessionResponse](t, w)
	assert.Equal(t, 40, created.Width)
	assert.Equal(t, 24, created.Height)
	for _, wall := range created.Walls {
		assert.NotEqual(t, created.Start, wall)
		assert.NotEqual(t, created.Goal, wall)
	}
}

func TestCreateSessionRejectsBadInput(t *testing.T) {
	s := newTestServer(t, nil)
	for _, body := range []string{`{"width":2}`, `{"density":3}`, `{"clusters":-1}`, `{not json`} {
		w := do(t, s, http.MethodPost, "/api/sessions", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	assert.Zero(t, s.sessions.len())
}

func TestStepOnce(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)

	w := do(t, s, http.MethodPost, "/api/sessions/"+created.ID+"/step", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	step := decode[stepResponse](t, w)
	assert.Equal(t, 1, step.Step)
	assert.Equal(t, created.Start, step.Current)
	assert.Equal(t, []grid.Point{created.Start}, step.Closed)
	assert.NotEmpty(t, step.Open)
	assert.False(t, step.Done)
}

func TestStepToCompletion(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)

	w := do(t, s, http.MethodPost, "/api/sessions/"+created.ID+"/step?n=10000", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	step := decode[stepResponse](t, w)
	require.True(t, step.Done)
	require.True(t, step.Found)

	distance := grid.Manhattan(created.Start, created.Goal)
	assert.Equal(t, distance, step.Cost)
	require.Len(t, step.Path, int(distance)+1)
	assert.Equal(t, created.Start, step.Path[0])
	assert.Equal(t, created.Goal, step.Path[len(step.Path)-1])

	// Further steps keep returning the final snapshot.
	w = do(t, s, http.MethodPost, "/api/sessions/"+created.ID+"/step", "")
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[stepResponse](t, w)
	assert.True(t, again.Done)
	assert.Equal(t, step.Path, again.Path)

	w = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `astar_search_total{result="found",source="grid"} 1`)
}

func TestStepErrors(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{name: "invalid id", target: "/api/sessions/nope/step", want: http.StatusBadRequest},
		{name: "unknown id", target: "/api/sessions/" + uuid.NewString() + "/step", want: http.StatusNotFound},
		{name: "zero steps", target: "/api/sessions/" + created.ID + "/step?n=0", want: http.StatusBadRequest},
		{name: "too many steps", target: "/api/sessions/" + created.ID + "/step?n=1000000", want: http.StatusBadRequest},
		{name: "non numeric steps", target: "/api/sessions/" + created.ID + "/step?n=all", want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, tt.target, "")
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)

	w := do(t, s, http.MethodDelete, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, s, http.MethodPost, "/api/sessions/"+created.ID+"/step", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/sessions/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodDelete, "/api/sessions/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionLimitEvictsOldest(t *testing.T) {
	s := newTestServer(t, func(o *Options) { o.MaxSessions = 1 })
	first := createOpenSession(t, s)
	second := createOpenSession(t, s)

	assert.Equal(t, 1, s.sessions.len())
	w := do(t, s, http.MethodPost, "/api/sessions/"+first.ID+"/step", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, s, http.MethodPost, "/api/sessions/"+second.ID+"/step", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := newSessionStore(10, time.Minute, func() time.Time { return now })
	newSession := func() *session {
		board := grid.Grid{Width: 5, Height: 5}
		return &session{board: board}
	}

	idle := store.add(newSession())
	now = now.Add(30 * time.Second)
	active := store.add(newSession())
	now = now.Add(45 * time.Second)
	_, ok := store.get(active)
	require.True(t, ok)

	store.add(newSession())
	_, ok = store.get(idle)
	assert.False(t, ok, "idle for 75s")
	_, ok = store.get(active)
	assert.True(t, ok)
	assert.Equal(t, 2, store.len())
}

const (
	testStations = `id,latitude,longitude,name
1,51.5226,-0.1571,Baker Street
2,51.5142,-0.1494,Bond Street
3,51.5067,-0.1428,Green Park
4,51.6000,-0.2000,Nowhere
`
	testRoutes = `station1,station2,line
1,2,7
2,3,7
`
)

func newRouteServer(t *testing.T) *Server {
	t.Helper()
	network, err := transit.LoadCSV(strings.NewReader(testStations), strings.NewReader(testRoutes))
	require.NoError(t, err)
	return newTestServer(t, func(o *Options) {
		o.Planner = &routecache.Planner{Network: network, Cache: routecache.NewMemory()}
	})
}

func TestRoute(t *testing.T) {
	s := newRouteServer(t)

	w := do(t, s, http.MethodGet, "/api/route?from=baker+street&to=3", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	route := decode[routeResponse](t, w)
	assert.True(t, route.Found)
	assert.False(t, route.Cached)
	assert.Equal(t, "1", route.FromID)
	assert.Equal(t, "Green Park", route.To)
	assert.Equal(t, []string{"Baker Street", "Bond Street", "Green Park"}, route.Stations)
	assert.Positive(t, route.Cost)

	w = do(t, s, http.MethodGet, "/api/route?from=1&to=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[routeResponse](t, w).Cached)

	w = do(t, s, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), `astar_search_total{result="found",source="transit"} 1`)
}

func TestRouteUnreachable(t *testing.T) {
	s := newRouteServer(t)
	w := do(t, s, http.MethodGet, "/api/route?from=1&to=4", "")
	require.Equal(t, http.StatusOK, w.Code)
	route := decode[routeResponse](t, w)
	assert.False(t, route.Found)
	assert.Equal(t, []string{}, route.Stations)
}

func TestRouteErrors(t *testing.T) {
	s := newRouteServer(t)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/route?from=1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/route?from=1&to=Atlantis", "").Code)

	bare := newTestServer(t, nil)
	assert.Equal(t, http.StatusNotFound, do(t, bare, http.MethodGet, "/api/route?from=1&to=3", "").Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	res, err := http.Get("http://" + listener.Addr().String() + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStreamUntilDone(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)
	httpServer := httptest.NewServer(s.Handler())
	defer httpServer.Close()

	url := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/api/sessions/" + created.ID + "/stream"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()

	var last stepResponse
	for i := 0; ; i++ {
		require.Less(t, i, 1000, "stream did not finish")
		var step stepResponse
		require.NoError(t, ws.ReadJSON(&step))
		assert.Equal(t, i+1, step.Step)
		last = step
		if step.Done {
			break
		}
	}
	assert.True(t, last.Found)
	assert.Equal(t, grid.Manhattan(created.Start, created.Goal), last.Cost)

	_, _, err = ws.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestStreamRejectsBadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	created := createOpenSession(t, s)

	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/sessions/"+uuid.NewString()+"/stream", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/sessions/"+created.ID+"/stream?delay=-5", "").Code)
	// Not a websocket handshake.
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodGet, "/api/sessions/"+created.ID+"/stream", "").Code)
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(o *Options) {
		o.RateLimit = 0.001
		o.Burst = 2
	})
	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusCreated, do(t, s, http.MethodPost, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, s, http.MethodPost, "/api/sessions", "").Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code, "only /api is limited")
}
