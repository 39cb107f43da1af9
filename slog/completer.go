package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/cpbrules"
)

// Ensure LoggingCompleter implements cpbrules.Completer.
var _ cpbrules.Completer = (*LoggingCompleter)(nil)

// LoggingCompleter wraps a Completer with logging. Prompts and responses
// are logged by size only.
type LoggingCompleter struct {
	next   cpbrules.Completer
	logger *slog.Logger
}

// NewLoggingCompleter creates a new LoggingCompleter.
func NewLoggingCompleter(next cpbrules.Completer, logger *slog.Logger) *LoggingCompleter {
	return &LoggingCompleter{next: next, logger: logger}
}

// Complete delegates to the wrapped completer and logs the exchange.
func (c *LoggingCompleter) Complete(ctx context.Context, req *cpbrules.CompletionRequest) (out string, err error) {
	defer func(begin time.Time) {
		var promptBytes int
		if req != nil {
			promptBytes = len(req.System) + len(req.Prompt)
		}
		FromContext(ctx, c.logger).Info("complete",
			"prompt_bytes", promptBytes,
			"response_bytes", len(out),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Complete(ctx, req)
}
