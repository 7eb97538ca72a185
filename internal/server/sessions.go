package server

import (
	"cmp"
	"context"
	"errors"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pdrpinto/astar"
	"github.com/pdrpinto/astar/graphs/grid"
)

type session struct {
	mu      sync.Mutex
	board   grid.Grid
	start   grid.Point
	goal    grid.Point
	stepper *astar.Stepper[grid.Point]
	touched time.Time // guarded by sessionStore.mu
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stepper != nil {
		s.stepper.Close()
	}
}

// sessionStore keeps at most limit sessions; sessions idle for longer than
// ttl are dropped when a new one is added.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session
	limit    int
	ttl      time.Duration
	now      func() time.Time
}

func newSessionStore(limit int, ttl time.Duration, now func() time.Time) *sessionStore {
	return &sessionStore{sessions: make(map[uuid.UUID]*session), limit: limit, ttl: ttl, now: now}
}

// add stores s under a fresh ID, evicting expired sessions and then the least
// recently used ones to stay under the limit.
func (st *sessionStore) add(s *session) uuid.UUID {
	st.mu.Lock()
	now := st.now()
	var evicted []*session
	if st.ttl > 0 {
		for id, existing := range st.sessions {
			if now.Sub(existing.touched) > st.ttl {
				evicted = append(evicted, existing)
				delete(st.sessions, id)
			}
		}
	}
	for len(st.sessions) >= st.limit {
		oldestID, oldest := uuid.Nil, (*session)(nil)
		for id, existing := range st.sessions {
			if oldest == nil || existing.touched.Before(oldest.touched) {
				oldestID, oldest = id, existing
			}
		}
		evicted = append(evicted, oldest)
		delete(st.sessions, oldestID)
	}
	id := uuid.New()
	s.touched = now
	st.sessions[id] = s
	st.mu.Unlock()

	for _, old := range evicted {
		old.close()
	}
	return id
}

func (st *sessionStore) get(id uuid.UUID) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	if ok {
		s.touched = st.now()
	}
	return s, ok
}

func (st *sessionStore) remove(id uuid.UUID) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.close()
	}
	return ok
}

func (st *sessionStore) len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *sessionStore) closeAll() {
	st.mu.Lock()
	sessions := slices.Collect(maps.Values(st.sessions))
	clear(st.sessions)
	st.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

type createSessionRequest struct {
	Width    int      `json:"width" binding:"omitempty,min=5,max=500"`
	Height   int      `json:"height" binding:"omitempty,min=5,max=500"`
	Clusters *int     `json:"clusters" binding:"omitempty,min=0"`
	Steps    *int     `json:"steps" binding:"omitempty,min=0"`
	Density  *float64 `json:"density" binding:"omitempty,gte=0,lte=1"`
	Seed     int64    `json:"seed"`
}

type sessionResponse struct {
	ID     string       `json:"id"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Start  grid.Point   `json:"start"`
	Goal   grid.Point   `json:"goal"`
	Walls  []grid.Point `json:"walls"`
}

type stepResponse struct {
	Step    int          `json:"step"`
	Current grid.Point   `json:"current"`
	Open    []grid.Point `json:"open"`
	Closed  []grid.Point `json:"closed"`
	Done    bool         `json:"done"`
	Found   bool         `json:"found"`
	Path    []grid.Point `json:"path,omitempty"`
	Cost    float64      `json:"cost,omitempty"`
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := s.options.Grid
	if req.Width != 0 {
		settings.Width = req.Width
	}
	if req.Height != 0 {
		settings.Height = req.Height
	}
	if req.Clusters != nil {
		settings.Clusters = *req.Clusters
	}
	if req.Steps != nil {
		settings.Steps = *req.Steps
	}
	if req.Density != nil {
		settings.Density = *req.Density
	}

	rng := s.options.NewRand(req.Seed)
	board, start, goal := grid.RandomGrid(settings.Width, settings.Height, settings.Clusters, settings.Steps, settings.Density, rng)
	options := append(slices.Clone(s.options.Search), astar.WithObserver(s.collector.Observer("grid")))
	sess := &session{
		board:   board,
		start:   start,
		goal:    goal,
		stepper: astar.NewStepper[grid.Point](context.Background(), board, start, goal, options...),
	}
	id := s.sessions.add(sess)
	s.logger.Debug("session created", "id", id, "width", board.Width, "height", board.Height, "walls", len(board.Walls))

	c.JSON(http.StatusCreated, sessionResponse{
		ID:     id.String(),
		Width:  board.Width,
		Height: board.Height,
		Start:  start,
		Goal:   goal,
		Walls:  sortedPoints(board.Walls),
	})
}

func (s *Server) handleStep(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	steps := 1
	if raw := c.Query("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxStepsPerRequest {
			c.JSON(http.StatusBadRequest, gin.H{"error": "n must be between 1 and " + strconv.Itoa(maxStepsPerRequest)})
			return
		}
		steps = n
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	var (
		snapshot astar.StepSnapshot[grid.Point]
		err      error
	)
	for range steps {
		snapshot, err = sess.stepper.Step()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if snapshot.Done {
			break
		}
	}

	c.JSON(http.StatusOK, newStepResponse(snapshot))
}

func newStepResponse(snapshot astar.StepSnapshot[grid.Point]) stepResponse {
	return stepResponse{
		Step:    snapshot.StepIndex,
		Current: snapshot.Current,
		Open:    sortedPoints(snapshot.Open),
		Closed:  sortedPoints(snapshot.Closed),
		Done:    snapshot.Done,
		Found:   snapshot.Found,
		Path:    snapshot.Path,
		Cost:    snapshot.Cost,
	}
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	if !s.sessions.remove(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) lookupSession(c *gin.Context) (*session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}
	sess, ok := s.sessions.get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

// sortedPoints lists the set members row by row.
func sortedPoints(set map[grid.Point]bool) []grid.Point {
	points := make([]grid.Point, 0, len(set))
	for p, ok := range set {
		if ok {
			points = append(points, p)
		}
	}
	slices.SortFunc(points, func(a, b grid.Point) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})
	return points
}
