// Package slog provides logging decorators for the pipeline's collaborator
// interfaces, built on log/slog.
package slog

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/AbhigyanVE/carspect"
)

// NewNopLogger returns a logger that discards everything. Useful in tests and
// as a default when no logger is configured.
func NewNopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Ensure LoggingFetcher implements carspect.Fetcher.
var _ carspect.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging.
type LoggingFetcher struct {
	next   carspect.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next carspect.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		f.logger.Info("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

// Ensure LoggingGapFiller implements carspect.GapFiller.
var _ carspect.GapFiller = (*LoggingGapFiller)(nil)

// LoggingGapFiller wraps a GapFiller with debug logging.
type LoggingGapFiller struct {
	next   carspect.GapFiller
	logger *slog.Logger
}

// NewLoggingGapFiller creates a new LoggingGapFiller.
func NewLoggingGapFiller(next carspect.GapFiller, logger *slog.Logger) *LoggingGapFiller {
	return &LoggingGapFiller{next: next, logger: logger}
}

// Fill logs the missing fields and token usage and delegates to the wrapped filler.
func (g *LoggingGapFiller) Fill(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (fields *carspect.LLMFields, usage *carspect.Usage, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"missing", missing,
			"context_chars", len(contextText),
			"duration", time.Since(begin),
			"err", err,
		}
		if usage != nil {
			attrs = append(attrs, "total_tokens", usage.TotalTokens)
		}
		g.logger.Info("gap fill", attrs...)
	}(time.Now())
	return g.next.Fill(ctx, record, missing, contextText)
}

// Ensure LoggingCache implements carspect.CacheService.
var _ carspect.CacheService = (*LoggingCache)(nil)

// LoggingCache wraps a CacheService with debug logging.
type LoggingCache struct {
	next   carspect.CacheService
	logger *slog.Logger
}

// NewLoggingCache creates a new LoggingCache.
func NewLoggingCache(next carspect.CacheService, logger *slog.Logger) *LoggingCache {
	return &LoggingCache{next: next, logger: logger}
}

// Lookup logs hit or miss and delegates to the wrapped cache.
func (c *LoggingCache) Lookup(ctx context.Context, url string) (entry *carspect.CacheEntry, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache lookup",
			"url", url,
			"hit", err == nil,
			"duration", time.Since(begin),
		)
	}(time.Now())
	return c.next.Lookup(ctx, url)
}

// Store logs the stored URL and delegates to the wrapped cache.
func (c *LoggingCache) Store(ctx context.Context, entry *carspect.CacheEntry) (err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache store",
			"url", entry.URL,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Store(ctx, entry)
}
