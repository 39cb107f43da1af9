package slog

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/cpbrules"
)

// Ensure LoggingExtractor implements cpbrules.Extractor.
var _ cpbrules.Extractor = (*LoggingExtractor)(nil)

// LoggingExtractor wraps an Extractor with logging. The logged text_hash
// identifies the extracted policy text, so a bulletin whose criteria changed
// between runs stands out.
type LoggingExtractor struct {
	next   cpbrules.Extractor
	logger *slog.Logger
}

// NewLoggingExtractor creates a new LoggingExtractor.
func NewLoggingExtractor(next cpbrules.Extractor, logger *slog.Logger) *LoggingExtractor {
	return &LoggingExtractor{next: next, logger: logger}
}

// Extract delegates to the wrapped extractor and logs the result.
func (e *LoggingExtractor) Extract(html string, sel cpbrules.SectionSelector) (text string, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"heading", sel.HeadingText,
			"html_bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		}
		if err == nil {
			attrs = append(attrs,
				"lines", strings.Count(text, "\n")+1,
				"text_hash", TextHash(text),
			)
		}
		e.logger.Info("extract", attrs...)
	}(time.Now())
	return e.next.Extract(html, sel)
}

// TextHash returns the xxhash of text as 16 hex digits.
func TextHash(text string) string {
	h := strconv.FormatUint(xxhash.Sum64String(text), 16)
	return strings.Repeat("0", 16-len(h)) + h
}
