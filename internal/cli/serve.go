package cli

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pdrpinto/astar/internal/routecache"
	"github.com/pdrpinto/astar/internal/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the step-by-step visualizer and the route API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			if !c.verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			var planner *routecache.Planner
			if c.cfg.Transit.Stations != "" {
				network, err := loadNetwork(c.cfg.Transit.Stations, c.cfg.Transit.Routes)
				if err != nil {
					return err
				}
				cache, closeCache := openRouteCache(ctx, c.cfg.Cache)
				defer closeCache()
				planner = &routecache.Planner{Network: network, Cache: cache}
				logger.Info("transit network loaded", "stations", network.Len())
			}

			registry := prometheus.NewRegistry()
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			srv := server.New(server.Options{
				Grid:        c.cfg.Grid,
				MaxSessions: c.cfg.Server.MaxSessions,
				SessionTTL:  c.cfg.Server.SessionTTL,
				RateLimit:   c.cfg.Server.RateLimit,
				Burst:       c.cfg.Server.Burst,
				Planner:     planner,
				Search:      c.cfg.Search.Options(),
				Logger:      logger,
				Registry:    registry,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
