// Package extract orchestrates the listing extraction pipeline: cache
// lookup, fetch, sanitize, rule extraction, entity enrichment, conditional
// LLM gap filling, merge and cache store.
package extract

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/AbhigyanVE/carspect"
	"golang.org/x/sync/singleflight"
)

// Compile-time interface verification.
var _ carspect.ExtractService = (*Pipeline)(nil)

// Options control the optional pipeline stages and their bounds.
type Options struct {
	// UseEntityEnrichment runs NER over the cleaned text when an Enricher
	// is configured.
	UseEntityEnrichment bool

	// UseLLMFallback allows a single gap-fill call when required fields
	// are missing after rule extraction.
	UseLLMFallback bool

	// CacheEnabled turns the lookup/store cycle on.
	CacheEnabled bool

	// OverwriteWithLLM lets non-empty LLM values replace rule values.
	// Off by default: rule output is ground truth, the LLM only fills
	// holes.
	OverwriteWithLLM bool

	// ContextWindow is the number of leading characters of converted page
	// context handed to the gap filler.
	ContextWindow int

	// MaxContextTokens additionally bounds the context by token count when
	// a TokenCounter is configured. Zero disables the token bound.
	MaxContextTokens int

	// CandidateCap truncates the model-candidate list.
	CandidateCap int

	// FetchTimeout, EnrichTimeout and FillTimeout bound the respective
	// stages when the caller's context has no tighter deadline.
	FetchTimeout  time.Duration
	EnrichTimeout time.Duration
	FillTimeout   time.Duration
}

// DefaultOptions returns the canonical pipeline configuration: everything
// on, never overwrite rule values.
func DefaultOptions() Options {
	return Options{
		UseEntityEnrichment: true,
		UseLLMFallback:      true,
		CacheEnabled:        true,
		ContextWindow:       3000,
		CandidateCap:        10,
		FetchTimeout:        30 * time.Second,
		EnrichTimeout:       30 * time.Second,
		FillTimeout:         30 * time.Second,
	}
}

// Pipeline wires the stage collaborators into one ExtractService. Optional
// collaborators (Enricher, GapFiller, Converter, Tokens, Limiter, Cache) may
// be nil; the corresponding stage is skipped.
type Pipeline struct {
	Cache     carspect.CacheService
	Fetcher   carspect.Fetcher
	Sanitizer carspect.Sanitizer
	Rules     carspect.RuleExtractor
	Enricher  carspect.Enricher
	GapFiller carspect.GapFiller
	Converter carspect.Converter
	Tokens    carspect.TokenCounter
	Limiter   carspect.DomainLimiter
	Logger    *slog.Logger
	Options   Options

	group singleflight.Group
}

// Extract runs the pipeline for one URL. Concurrent calls for the same URL
// coalesce into a single run sharing the result.
func (p *Pipeline) Extract(ctx context.Context, rawURL string) (*carspect.ExtractResult, error) {
	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return nil, carspect.Errorf(carspect.EINVALID, "invalid listing URL %q", rawURL)
	}

	v, err, _ := p.group.Do(rawURL, func() (any, error) {
		return p.extract(ctx, rawURL, target.Host)
	})
	if err != nil {
		return nil, err
	}
	return v.(*carspect.ExtractResult), nil
}

func (p *Pipeline) extract(ctx context.Context, rawURL, domain string) (*carspect.ExtractResult, error) {
	if p.Options.CacheEnabled && p.Cache != nil {
		entry, err := p.Cache.Lookup(ctx, rawURL)
		if err == nil {
			usage := entry.Usage
			return &carspect.ExtractResult{
				Record:   entry.Record,
				Usage:    &usage,
				LLMUsed:  false,
				CacheHit: true,
			}, nil
		}
		if carspect.ErrorCode(err) != carspect.ENOTFOUND {
			// A broken cache degrades to a miss instead of failing the run.
			p.logger().Warn("cache lookup failed", "url", rawURL, "err", err)
		}
	}

	if p.Limiter != nil {
		if err := p.Limiter.Wait(ctx, domain); err != nil {
			return nil, err
		}
	}

	html, err := p.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	page, err := p.Sanitizer.Clean(html)
	if err != nil {
		return nil, err
	}

	partial, err := p.Rules.Extract(page)
	if err != nil {
		return nil, err
	}

	hints, err := p.enrich(ctx, page.Text)
	if err != nil {
		return nil, err
	}

	record := BuildRecord(partial, page.Title, hints, p.Options.CandidateCap)

	var usage carspect.Usage
	llmUsed := false
	if missing := MissingRequired(record); len(missing) > 0 && p.Options.UseLLMFallback && p.GapFiller != nil {
		fields, fillUsage, err := p.fill(ctx, record, missing, page)
		if err != nil {
			return nil, err
		}
		Merge(record, fields, p.Options.OverwriteWithLLM)
		if fillUsage != nil {
			usage = *fillUsage
		}
		llmUsed = true
	}

	if p.Options.CacheEnabled && p.Cache != nil {
		entry := &carspect.CacheEntry{
			URL:       rawURL,
			Usage:     usage,
			Record:    record,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.Cache.Store(ctx, entry); err != nil {
			// The result is still good; losing the cache write only costs
			// a repeat extraction later.
			p.logger().Warn("cache store failed", "url", rawURL, "err", err)
		}
	}

	return &carspect.ExtractResult{
		Record:  record,
		Usage:   &usage,
		LLMUsed: llmUsed,
	}, nil
}

func (p *Pipeline) fetch(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := p.stageContext(ctx, p.Options.FetchTimeout)
	defer cancel()

	html, err := p.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		if carspect.ErrorCode(err) == carspect.EINTERNAL {
			return "", carspect.Errorf(carspect.EFETCH, "fetching %s: %v", rawURL, err)
		}
		return "", err
	}
	return html, nil
}

func (p *Pipeline) enrich(ctx context.Context, text string) ([]carspect.EntityHint, error) {
	if !p.Options.UseEntityEnrichment || p.Enricher == nil {
		return nil, nil
	}

	ctx, cancel := p.stageContext(ctx, p.Options.EnrichTimeout)
	defer cancel()

	return p.Enricher.Enrich(ctx, text)
}

func (p *Pipeline) fill(ctx context.Context, record *carspect.FinalRecord, missing []string, page *carspect.CleanedPage) (*carspect.LLMFields, *carspect.Usage, error) {
	contextText, err := p.buildContext(ctx, page)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := p.stageContext(ctx, p.Options.FillTimeout)
	defer cancel()

	return p.GapFiller.Fill(ctx, record, missing, contextText)
}

// buildContext prepares the page context for the gap filler: Markdown when a
// converter is available, plain text otherwise, truncated to the configured
// character window and optionally to a token budget.
func (p *Pipeline) buildContext(ctx context.Context, page *carspect.CleanedPage) (string, error) {
	text := page.Text
	if p.Converter != nil {
		md, err := p.Converter.Convert(page.HTML)
		if err != nil {
			p.logger().Warn("markdown conversion failed, using plain text", "err", err)
		} else {
			text = md
		}
	}

	if p.Options.ContextWindow > 0 && len(text) > p.Options.ContextWindow {
		text = text[:p.Options.ContextWindow]
	}

	if p.Tokens != nil && p.Options.MaxContextTokens > 0 {
		count, err := p.Tokens.CountTokens(ctx, text)
		if err != nil {
			return "", err
		}
		if count > p.Options.MaxContextTokens {
			// Proportional cut; token density is near-uniform in listing
			// text so one pass lands close enough under the budget.
			keep := len(text) * p.Options.MaxContextTokens / count
			text = text[:keep]
		}
	}

	return text, nil
}

func (p *Pipeline) stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
