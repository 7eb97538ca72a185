package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdrpinto/astar/graphs/transit"
	"github.com/pdrpinto/astar/internal/config"
	"github.com/pdrpinto/astar/internal/routecache"
)

func (c *CLI) routeCommand() *cobra.Command {
	var (
		stations string
		routes   string
		noCache  bool
	)
	cmd := &cobra.Command{
		Use:   "route FROM TO",
		Short: "Find the shortest route between two stations",
		Long: `Find the shortest route between two stations of a transit network read
from a stations CSV (id,latitude,longitude,name,...) and a routes CSV
(station1,station2,...). Stations are named by ID or approximate name.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if stations == "" {
				stations = c.cfg.Transit.Stations
			}
			if routes == "" {
				routes = c.cfg.Transit.Routes
			}
			network, err := loadNetwork(stations, routes)
			if err != nil {
				return err
			}

			cacheConfig := c.cfg.Cache
			if noCache {
				cacheConfig.Backend = "none"
			}
			cache, closeCache := openRouteCache(ctx, cacheConfig)
			defer closeCache()

			planner := &routecache.Planner{Network: network, Cache: cache, Options: c.searchOptions(ctx, "transit")}
			plan, err := planner.Plan(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colors := newPalette(out)
			fmt.Fprintln(out, colors.title.Render(fmt.Sprintf("%s %s %s", plan.From.Name, iconArrow, plan.To.Name)))
			if !plan.Entry.Found {
				fmt.Fprintln(out, colors.warning.Render(iconWarning+" no route"))
				return nil
			}
			fmt.Fprintln(out, colors.routeTable(plan.Entry.Stations))
			summary := fmt.Sprintf("%d stops, %.6f rad", len(plan.Entry.Stations)-1, plan.Entry.Cost)
			if plan.Cached {
				summary += colors.dim.Render(" (cached)")
			}
			fmt.Fprintln(out, summary)
			return nil
		},
	}
	cmd.Flags().StringVar(&stations, "stations", "", "stations CSV file (default from config)")
	cmd.Flags().StringVar(&routes, "routes", "", "routes CSV file (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the route cache")
	return cmd
}

func loadNetwork(stationsPath, routesPath string) (*transit.Network, error) {
	if stationsPath == "" || routesPath == "" {
		return nil, errors.New("route: --stations and --routes are required")
	}
	stations, err := os.Open(stationsPath)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	defer stations.Close()
	routes, err := os.Open(routesPath)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	defer routes.Close()

	network, err := transit.LoadCSV(stations, routes)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}
	return network, nil
}

// openRouteCache builds the configured cache. An unreachable Redis server
// disables caching with a warning.
func openRouteCache(ctx context.Context, cfg config.CacheConfig) (routecache.Cache, func()) {
	logger := loggerFromContext(ctx)
	switch cfg.Backend {
	case "memory":
		return routecache.NewMemory(), func() {}
	case "redis":
		cache := routecache.NewRedis(routecache.RedisOptions{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			Prefix:   cfg.Prefix,
			TTL:      cfg.TTL,
		})
		if err := cache.Ping(ctx); err != nil {
			logger.Warn("route cache disabled", "err", err)
			_ = cache.Close()
			return nil, func() {}
		}
		logger.Debug("route cache", "backend", "redis", "addr", cfg.Addr)
		return cache, func() { _ = cache.Close() }
	default:
		return nil, func() {}
	}
}
