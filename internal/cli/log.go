package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pdrpinto/astar"
)

// newLogger creates a logger writing to w at level, with "HH:MM:SS.ms"
// timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// logObserver reports every finished search at debug level.
func logObserver(l *log.Logger, source string) astar.Observer {
	return astar.ObserverFunc(func(_ context.Context, stats astar.Stats, err error) {
		if err != nil {
			l.Debug("search aborted", "source", source, "expanded", stats.Expanded, "err", err)
			return
		}
		l.Debug("search finished",
			"source", source,
			"found", stats.Found,
			"cost", stats.Cost,
			"expanded", stats.Expanded,
			"discovered", stats.Discovered,
			"reprioritized", stats.Reprioritized,
			"elapsed", stats.Elapsed.Round(time.Microsecond),
		)
	})
}
