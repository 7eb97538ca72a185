// Package server exposes step-by-step grid searches and transit routes over
// HTTP.
//
// Endpoints:
//
//	GET    /                         visualizer page
//	GET    /healthz                  liveness
//	POST   /api/sessions             new random grid and stepper
//	POST   /api/sessions/:id/step    advance a session (?n= steps, default 1)
//	GET    /api/sessions/:id/stream  websocket of snapshots until done (?delay= ms)
//	DELETE /api/sessions/:id         drop a session
//	GET    /api/route                transit route (?from=&to=)
//	GET    /metrics                  Prometheus metrics
package server

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pdrpinto/astar"
	"github.com/pdrpinto/astar/internal/config"
	"github.com/pdrpinto/astar/internal/metrics"
	"github.com/pdrpinto/astar/internal/routecache"
)

//go:embed static/index.html
var indexHTML []byte

// maxStepsPerRequest bounds ?n= on the step endpoint.
const maxStepsPerRequest = 10000

// Options configures a Server.
type Options struct {
	Grid        config.GridConfig
	MaxSessions int
	SessionTTL  time.Duration

	// RateLimit caps /api requests per second, 0 disables it.
	RateLimit float64
	Burst     int

	// Planner answers /api/route. The endpoint returns 404 when nil.
	Planner *routecache.Planner

	// Search options applied to every stepper and route search.
	Search []astar.Option

	Logger   *log.Logger
	Registry *prometheus.Registry

	// NewRand seeds the grid generator of each session. Defaults to a
	// time-seeded source.
	NewRand func(seed int64) *rand.Rand
}

// Server owns the sessions and the router.
type Server struct {
	options   Options
	logger    *log.Logger
	sessions  *sessionStore
	collector *metrics.Collector
	router    *gin.Engine
}

// New builds a server and its routes.
func New(options Options) *Server {
	if options.Logger == nil {
		options.Logger = log.Default()
	}
	if options.Registry == nil {
		options.Registry = prometheus.NewRegistry()
	}
	if options.MaxSessions < 1 {
		options.MaxSessions = 1
	}
	if options.NewRand == nil {
		options.NewRand = func(seed int64) *rand.Rand {
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			return rand.New(rand.NewSource(seed))
		}
	}

	s := &Server{
		options:   options,
		logger:    options.Logger,
		sessions:  newSessionStore(options.MaxSessions, options.SessionTTL, time.Now),
		collector: metrics.NewCollector(options.Registry),
	}
	if options.Planner != nil {
		routeOptions := append([]astar.Option{}, options.Planner.Options...)
		routeOptions = append(routeOptions, options.Search...)
		routeOptions = append(routeOptions, astar.WithObserver(s.collector.Observer("transit")))
		planner := *options.Planner
		planner.Options = routeOptions
		s.options.Planner = &planner
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleIndex)
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.options.Registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	if s.options.RateLimit > 0 {
		api.Use(rateLimit(rate.NewLimiter(rate.Limit(s.options.RateLimit), max(s.options.Burst, 1))))
	}
	api.POST("/sessions", s.handleCreateSession)
	api.POST("/sessions/:id/step", s.handleStep)
	api.GET("/sessions/:id/stream", s.handleStream)
	api.DELETE("/sessions/:id", s.handleDeleteSession)
	api.GET("/route", s.handleRoute)
	return router
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve accepts connections on listener until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(listener) }()
	s.logger.Info("serving", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.sessions.closeAll()
	return ctx.Err()
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start).Round(time.Microsecond),
		)
	}
}

func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}
