package extract_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/AbhigyanVE/carspect"
	"github.com/AbhigyanVE/carspect/extract"
	"github.com/AbhigyanVE/carspect/mock"
	"github.com/AbhigyanVE/carspect/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingURL = "https://cars.example.com/listing/42"

const listingHTML = `<html><head><title>2021 BMW X5</title></head>
<body><p>Great SUV for $19,499</p></body></html>`

// memoryCache is an in-memory CacheService for pipeline tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*carspect.CacheEntry
	stores  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*carspect.CacheEntry{}}
}

func (c *memoryCache) Lookup(ctx context.Context, url string) (*carspect.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[url]; ok {
		return entry, nil
	}
	return nil, carspect.Errorf(carspect.ENOTFOUND, "no cache entry for %q", url)
}

func (c *memoryCache) Store(ctx context.Context, entry *carspect.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	if _, ok := c.entries[entry.URL]; !ok {
		c.entries[entry.URL] = entry
	}
	return nil
}

// newPipeline builds a pipeline whose stages succeed with complete data, so
// no gap filling is needed. Tests override individual collaborators.
func newPipeline(cache carspect.CacheService) *extract.Pipeline {
	return &extract.Pipeline{
		Cache: cache,
		Fetcher: &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (string, error) {
				return listingHTML, nil
			},
		},
		Sanitizer: &mock.Sanitizer{
			CleanFn: func(rawHTML string) (*carspect.CleanedPage, error) {
				return &carspect.CleanedPage{
					Title: "2021 BMW X5",
					Text:  "Great SUV for $19,499",
					HTML:  rawHTML,
				}, nil
			},
		},
		Rules: &mock.RuleExtractor{
			ExtractFn: func(page *carspect.CleanedPage) (*carspect.PartialRecord, error) {
				return &carspect.PartialRecord{Price: "$19,499"}, nil
			},
		},
		Logger:  slog.NewNopLogger(),
		Options: extract.DefaultOptions(),
	}
}

func completeFiller(t *testing.T, calls *int32) *mock.GapFiller {
	t.Helper()
	return &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			atomic.AddInt32(calls, 1)
			return &carspect.LLMFields{
				ModelName:   "BMW X5",
				Variant:     "xDrive40i",
				Description: "A midsize luxury SUV.",
			}, &carspect.Usage{PromptTokens: 100, CompletionTokens: 30, TotalTokens: 130}, nil
		},
	}
}

func TestPipeline_Extract_RejectsInvalidURL(t *testing.T) {
	t.Parallel()

	p := newPipeline(newMemoryCache())

	for _, url := range []string{"", "not-a-url", "ftp://cars.example.com/1"} {
		_, err := p.Extract(context.Background(), url)
		require.Error(t, err, "url %q", url)
		assert.Equal(t, carspect.EINVALID, carspect.ErrorCode(err))
	}
}

func TestPipeline_Extract_CacheHitShortCircuits(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	cache.entries[listingURL] = &carspect.CacheEntry{
		URL:    listingURL,
		Usage:  carspect.Usage{TotalTokens: 99},
		Record: &carspect.FinalRecord{ModelName: "BMW X5"},
	}

	p := newPipeline(cache)
	p.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			t.Fatal("fetch must not run on a cache hit")
			return "", nil
		},
	}

	result, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.True(t, result.CacheHit)
	assert.False(t, result.LLMUsed)
	assert.Equal(t, "BMW X5", result.Record.ModelName)
	assert.Equal(t, 99, result.Usage.TotalTokens)
	assert.Zero(t, cache.stores, "a hit must not store again")
}

func TestPipeline_Extract_GapFillerCalledOnceWhenRequiredMissing(t *testing.T) {
	t.Parallel()

	var calls int32
	cache := newMemoryCache()
	p := newPipeline(cache)
	p.GapFiller = completeFiller(t, &calls)

	result, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.True(t, result.LLMUsed)
	assert.Equal(t, "BMW X5", result.Record.ModelName)
	assert.Equal(t, 130, result.Usage.TotalTokens)
}

func TestPipeline_Extract_GapFillerSkippedWhenFallbackDisabled(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	p := newPipeline(cache)
	p.GapFiller = &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			t.Fatal("gap filler must not run when fallback is disabled")
			return nil, nil, nil
		},
	}
	p.Options.UseLLMFallback = false

	result, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.False(t, result.LLMUsed)
	assert.Zero(t, result.Usage.TotalTokens)
}

func TestPipeline_Extract_FillReceivesMissingFields(t *testing.T) {
	t.Parallel()

	var gotMissing []string
	p := newPipeline(newMemoryCache())
	p.GapFiller = &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			gotMissing = missing
			return &carspect.LLMFields{}, &carspect.Usage{}, nil
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Equal(t, []string{"model_name", "variant", "description"}, gotMissing)
}

func TestPipeline_Extract_FetchFailureAbortsAndStoresNothing(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	p := newPipeline(cache)
	p.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			return "", carspect.Errorf(carspect.EFETCH, "HTTP 503 for %s", url)
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.Error(t, err)
	assert.Equal(t, carspect.EFETCH, carspect.ErrorCode(err))
	assert.Zero(t, cache.stores, "failures are never cached")
}

func TestPipeline_Extract_GapFillFailureAbortsAndStoresNothing(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	p := newPipeline(cache)
	p.GapFiller = &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			return nil, nil, carspect.Errorf(carspect.EEXTERNAL, "completion payload is not valid schema JSON")
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.Error(t, err)
	assert.Equal(t, carspect.EEXTERNAL, carspect.ErrorCode(err))
	assert.Zero(t, cache.stores)
}

func TestPipeline_Extract_EnrichmentFailureAborts(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	p := newPipeline(cache)
	p.Enricher = &mock.Enricher{
		EnrichFn: func(ctx context.Context, text string) ([]carspect.EntityHint, error) {
			return nil, carspect.Errorf(carspect.EEXTERNAL, "inference API returned HTTP 503")
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.Error(t, err)
	assert.Zero(t, cache.stores)
}

func TestPipeline_Extract_StoresOnSuccessWithoutLLM(t *testing.T) {
	t.Parallel()

	cache := newMemoryCache()
	p := newPipeline(cache)
	p.Options.UseLLMFallback = false

	result, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, cache.stores)

	// Replay hits the cache and reports zero usage.
	replay, err := p.Extract(context.Background(), listingURL)
	require.NoError(t, err)
	assert.True(t, replay.CacheHit)
	assert.False(t, replay.LLMUsed)
	assert.Zero(t, replay.Usage.TotalTokens)
	assert.Equal(t, 1, cache.stores)
}

func TestPipeline_Extract_CacheDisabledNeverTouchesCache(t *testing.T) {
	t.Parallel()

	p := newPipeline(&mock.CacheService{
		LookupFn: func(ctx context.Context, url string) (*carspect.CacheEntry, error) {
			t.Fatal("lookup must not run with cache disabled")
			return nil, nil
		},
		StoreFn: func(ctx context.Context, entry *carspect.CacheEntry) error {
			t.Fatal("store must not run with cache disabled")
			return nil
		},
	})
	p.Options.CacheEnabled = false
	p.Options.UseLLMFallback = false

	_, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
}

func TestPipeline_Extract_BrokenCacheDegradesToMiss(t *testing.T) {
	t.Parallel()

	stored := 0
	p := newPipeline(&mock.CacheService{
		LookupFn: func(ctx context.Context, url string) (*carspect.CacheEntry, error) {
			return nil, carspect.Errorf(carspect.EINTERNAL, "disk on fire")
		},
		StoreFn: func(ctx context.Context, entry *carspect.CacheEntry) error {
			stored++
			return nil
		},
	})
	p.Options.UseLLMFallback = false

	result, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, stored)
}

func TestPipeline_Extract_EntityHintsAreAdvisory(t *testing.T) {
	t.Parallel()

	p := newPipeline(newMemoryCache())
	p.Options.UseLLMFallback = false
	p.Enricher = &mock.Enricher{
		EnrichFn: func(ctx context.Context, text string) ([]carspect.EntityHint, error) {
			return []carspect.EntityHint{
				{Text: "BMW", Group: carspect.EntityOrg, Score: 0.99},
				{Text: "Munich", Group: carspect.EntityLoc, Score: 0.9},
			}, nil
		},
	}

	result, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Empty(t, result.Record.ModelName, "hints never auto-populate model_name")
	assert.Equal(t, []string{"2021 BMW X5", "BMW"}, result.Record.ModelCandidates)
	assert.Len(t, result.Record.Entities, 2)
}

func TestPipeline_Extract_ConcurrentSameURLCoalesces(t *testing.T) {
	t.Parallel()

	var fetches int32
	release := make(chan struct{})
	cache := newMemoryCache()
	p := newPipeline(cache)
	p.Options.UseLLMFallback = false
	p.Fetcher = &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			atomic.AddInt32(&fetches, 1)
			<-release
			return listingHTML, nil
		},
	}

	var wg sync.WaitGroup
	results := make([]*carspect.ExtractResult, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := p.Extract(context.Background(), listingURL)
			require.NoError(t, err)
			results[i] = result
		}(i)
	}

	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches), "concurrent callers share one run")
	for _, result := range results {
		require.NotNil(t, result)
		assert.Equal(t, "$19,499", result.Record.Price)
	}
}

func TestPipeline_Extract_ContextWindowBoundsFillContext(t *testing.T) {
	t.Parallel()

	var gotContext string
	p := newPipeline(newMemoryCache())
	p.Options.ContextWindow = 10
	p.GapFiller = &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			gotContext = contextText
			return &carspect.LLMFields{}, &carspect.Usage{}, nil
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Len(t, gotContext, 10)
}

func TestPipeline_Extract_ConverterFeedsFillContext(t *testing.T) {
	t.Parallel()

	var gotContext string
	p := newPipeline(newMemoryCache())
	p.Converter = &mock.Converter{
		ConvertFn: func(html string) (string, error) {
			return "# 2021 BMW X5\n\nGreat SUV", nil
		},
	}
	p.GapFiller = &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			gotContext = contextText
			return &carspect.LLMFields{}, &carspect.Usage{}, nil
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Contains(t, gotContext, "# 2021 BMW X5")
}

func TestPipeline_Extract_TokenBudgetTrimsContext(t *testing.T) {
	t.Parallel()

	var gotContext string
	p := newPipeline(newMemoryCache())
	p.Options.MaxContextTokens = 5
	p.Tokens = &mock.TokenCounter{
		CountTokensFn: func(ctx context.Context, text string) (int, error) {
			return len(text), nil // 1 token per char for the test
		},
	}
	p.GapFiller = &mock.GapFiller{
		FillFn: func(ctx context.Context, record *carspect.FinalRecord, missing []string, contextText string) (*carspect.LLMFields, *carspect.Usage, error) {
			gotContext = contextText
			return &carspect.LLMFields{}, &carspect.Usage{}, nil
		},
	}

	_, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Len(t, gotContext, 5)
}

func TestPipeline_Extract_RateLimiterSeesDomain(t *testing.T) {
	t.Parallel()

	var gotDomain string
	p := newPipeline(newMemoryCache())
	p.Options.UseLLMFallback = false
	p.Limiter = limiterFunc(func(ctx context.Context, domain string) error {
		gotDomain = domain
		return nil
	})

	_, err := p.Extract(context.Background(), listingURL)

	require.NoError(t, err)
	assert.Equal(t, "cars.example.com", gotDomain)
}

type limiterFunc func(ctx context.Context, domain string) error

func (f limiterFunc) Wait(ctx context.Context, domain string) error {
	return f(ctx, domain)
}
