// Package csv provides a flat-file cache backend. The file doubles as a
// human-auditable log of extraction cost per URL.
package csv

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/AbhigyanVE/carspect"
)

var header = []string{"url", "prompt_tokens", "completion_tokens", "total_tokens", "response_json"}

// Compile-time interface verification.
var _ carspect.CacheService = (*Cache)(nil)
var _ carspect.EntryLister = (*Cache)(nil)

// Cache implements carspect.CacheService on a single CSV file. Rows are
// append-only; lookups scan linearly and the first matching row wins, so a
// URL's cached record never changes once written.
//
// Cache is safe for concurrent use.
type Cache struct {
	path string
	mu   sync.Mutex
}

// NewCache creates a Cache writing to the given file path. The file and its
// header row are created on first store.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Store appends a row for the entry.
func (c *Cache) Store(ctx context.Context, entry *carspect.CacheEntry) error {
	if entry == nil || entry.URL == "" {
		return carspect.Errorf(carspect.EINVALID, "cache entry with URL required")
	}
	if entry.Record == nil {
		return carspect.Errorf(carspect.EINVALID, "cache entry record required")
	}

	recordJSON, err := json.Marshal(entry.Record)
	if err != nil {
		return fmt.Errorf("failed to serialize record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	writeHeader := false
	if _, err := os.Stat(c.path); os.IsNotExist(err) {
		writeHeader = true
	}

	f, err := os.OpenFile(c.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write([]string{
		entry.URL,
		strconv.Itoa(entry.Usage.PromptTokens),
		strconv.Itoa(entry.Usage.CompletionTokens),
		strconv.Itoa(entry.Usage.TotalTokens),
		string(recordJSON),
	}); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}

	w.Flush()
	return w.Error()
}

// Lookup scans for the first row whose URL matches exactly, or ENOTFOUND.
func (c *Cache) Lookup(ctx context.Context, url string) (*carspect.CacheEntry, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.URL == url {
			return entry, nil
		}
	}
	return nil, carspect.Errorf(carspect.ENOTFOUND, "no cache entry for %q", url)
}

// Entries returns all rows in file order. A missing file is an empty cache.
func (c *Cache) Entries(ctx context.Context) ([]*carspect.CacheEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, err := os.Open(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	modTime := info.ModTime()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var entries []*carspect.CacheEntry
	for i, row := range rows {
		if i == 0 && row[0] == header[0] {
			continue // header row
		}
		entry, err := parseRow(row, modTime)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseRow(row []string, modTime time.Time) (*carspect.CacheEntry, error) {
	prompt, err := strconv.Atoi(row[1])
	if err != nil {
		return nil, fmt.Errorf("bad prompt_tokens %q", row[1])
	}
	completion, err := strconv.Atoi(row[2])
	if err != nil {
		return nil, fmt.Errorf("bad completion_tokens %q", row[2])
	}
	total, err := strconv.Atoi(row[3])
	if err != nil {
		return nil, fmt.Errorf("bad total_tokens %q", row[3])
	}

	record := &carspect.FinalRecord{}
	if err := json.Unmarshal([]byte(row[4]), record); err != nil {
		return nil, fmt.Errorf("bad response_json: %w", err)
	}

	return &carspect.CacheEntry{
		URL:       row[0],
		Usage:     carspect.Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total},
		Record:    record,
		CreatedAt: modTime,
	}, nil
}
