package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/cpbrules"
	"github.com/google/uuid"
)

// Ensure LoggingRunner implements cpbrules.Runner.
var _ cpbrules.Runner = (*LoggingRunner)(nil)

// LoggingRunner wraps a Runner with logging. Each run is tagged with a
// fresh run_id, which is also attached to the logger stored in ctx for the
// duration of the run.
type LoggingRunner struct {
	next   cpbrules.Runner
	logger *slog.Logger
}

// NewLoggingRunner creates a new LoggingRunner.
func NewLoggingRunner(next cpbrules.Runner, logger *slog.Logger) *LoggingRunner {
	return &LoggingRunner{next: next, logger: logger}
}

// Run delegates to the wrapped runner and logs the outcome.
func (r *LoggingRunner) Run(ctx context.Context, req *cpbrules.PolicyRequest) (g *cpbrules.Guideline, err error) {
	logger := r.logger.With("run_id", uuid.NewString())
	ctx = NewContext(ctx, logger)

	defer func(begin time.Time) {
		attrs := []any{
			"url", req.URL,
			"title", req.Title,
			"payer", req.Payer,
			"duration", time.Since(begin),
		}
		if err != nil {
			attrs = append(attrs,
				"stage", cpbrules.ErrorStage(err),
				"code", cpbrules.ErrorCode(err),
				"err", err,
			)
		} else if g != nil {
			attrs = append(attrs, "rules", countRules(g.Rules))
		}
		logger.Info("run", attrs...)
	}(time.Now())
	return r.next.Run(ctx, req)
}

func countRules(r *cpbrules.Rule) int {
	if r == nil {
		return 0
	}
	n := 1
	for _, c := range r.Rules {
		n += countRules(c)
	}
	return n
}

type loggerKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx, or fallback if there is none.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return fallback
}
