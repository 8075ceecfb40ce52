package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/AbhigyanVE/carspect"
	main "github.com/AbhigyanVE/carspect/cmd/carspect"
	"github.com/AbhigyanVE/carspect/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_NoArgs(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := main.NewMain().Run(context.Background(), nil, stdout, stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no command specified")
	assert.Contains(t, stdout.String(), "Usage:")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := main.NewMain().Run(context.Background(), []string{"--help"}, stdout, stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "extract")
	assert.Contains(t, stdout.String(), "serve")
	assert.Contains(t, stdout.String(), "cache")
}

func TestRun_UnknownCommand(t *testing.T) {
	t.Parallel()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := main.NewMain().Run(context.Background(), []string{"bogus"}, stdout, stderr)

	require.Error(t, err)
}

func TestExtractCmd(t *testing.T) {
	t.Parallel()

	t.Run("prints the extraction result as JSON", func(t *testing.T) {
		t.Parallel()

		var gotURL string
		svc := &mock.ExtractService{
			ExtractFn: func(ctx context.Context, url string) (*carspect.ExtractResult, error) {
				gotURL = url
				return &carspect.ExtractResult{
					Record:  &carspect.FinalRecord{ModelName: "BMW X5"},
					Usage:   &carspect.Usage{TotalTokens: 42},
					LLMUsed: true,
				}, nil
			},
		}

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Service: svc,
		}
		cmd := &main.ExtractCmd{URL: "https://cars.example.com/listing/1"}

		require.NoError(t, cmd.Run(deps))
		assert.Equal(t, "https://cars.example.com/listing/1", gotURL)

		var result carspect.ExtractResult
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
		assert.Equal(t, "BMW X5", result.Record.ModelName)
		assert.True(t, result.LLMUsed)
	})

	t.Run("reports extraction errors on stderr", func(t *testing.T) {
		t.Parallel()

		svc := &mock.ExtractService{
			ExtractFn: func(ctx context.Context, url string) (*carspect.ExtractResult, error) {
				return nil, carspect.Errorf(carspect.EFETCH, "fetching %s: connection refused", url)
			},
		}

		stderr := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  &bytes.Buffer{},
			Stderr:  stderr,
			Service: svc,
		}
		cmd := &main.ExtractCmd{URL: "https://cars.example.com/listing/1"}

		err := cmd.Run(deps)
		require.Error(t, err)
		assert.Contains(t, stderr.String(), "connection refused")
	})
}

type entryLister struct {
	entries []*carspect.CacheEntry
	err     error
}

func (l *entryLister) Entries(ctx context.Context) ([]*carspect.CacheEntry, error) {
	return l.entries, l.err
}

func TestCacheListCmd(t *testing.T) {
	t.Parallel()

	t.Run("lists cached entries", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: stdout,
			Stderr: &bytes.Buffer{},
			Entries: &entryLister{entries: []*carspect.CacheEntry{
				{
					URL:       "https://cars.example.com/listing/1",
					Usage:     carspect.Usage{TotalTokens: 321},
					Record:    &carspect.FinalRecord{},
					CreatedAt: time.Date(2026, 8, 1, 12, 30, 0, 0, time.UTC),
				},
			}},
		}

		require.NoError(t, (&main.CacheListCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), "1 total")
		assert.Contains(t, stdout.String(), "https://cars.example.com/listing/1")
		assert.Contains(t, stdout.String(), "tokens=321")
	})

	t.Run("reports an empty cache", func(t *testing.T) {
		t.Parallel()

		stdout := &bytes.Buffer{}
		deps := &main.Dependencies{
			Ctx:     context.Background(),
			Stdout:  stdout,
			Stderr:  &bytes.Buffer{},
			Entries: &entryLister{},
		}

		require.NoError(t, (&main.CacheListCmd{}).Run(deps))
		assert.Contains(t, stdout.String(), "Cache is empty.")
	})
}
