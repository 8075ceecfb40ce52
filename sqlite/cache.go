package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AbhigyanVE/carspect"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ carspect.CacheService = (*CacheService)(nil)
var _ carspect.EntryLister = (*CacheService)(nil)

// CacheService implements carspect.CacheService using SQLite.
type CacheService struct {
	db *DB
}

// NewCacheService creates a new CacheService.
func NewCacheService(db *DB) *CacheService {
	return &CacheService{db: db}
}

// hashRecord computes xxHash of the serialized record and returns hex string.
// Stored alongside the entry so replay divergence is detectable offline.
func hashRecord(recordJSON string) string {
	h := xxhash.Sum64String(recordJSON)
	b := make([]byte, 8)
	b[0] = byte(h >> 56)
	b[1] = byte(h >> 48)
	b[2] = byte(h >> 40)
	b[3] = byte(h >> 32)
	b[4] = byte(h >> 24)
	b[5] = byte(h >> 16)
	b[6] = byte(h >> 8)
	b[7] = byte(h)
	return hex.EncodeToString(b)
}

// Store appends a new cache entry. Existing rows for the same URL are left
// untouched.
func (s *CacheService) Store(ctx context.Context, entry *carspect.CacheEntry) error {
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

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO cache_entries (id, url, prompt_tokens, completion_tokens, total_tokens, response_json, record_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), entry.URL, entry.Usage.PromptTokens, entry.Usage.CompletionTokens,
		entry.Usage.TotalTokens, string(recordJSON), hashRecord(string(recordJSON)),
		createdAt.Format(time.RFC3339))

	return err
}

// Lookup returns the oldest entry whose URL matches exactly, or ENOTFOUND.
func (s *CacheService) Lookup(ctx context.Context, url string) (*carspect.CacheEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT url, prompt_tokens, completion_tokens, total_tokens, response_json, created_at
		FROM cache_entries
		WHERE url = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, url)

	entry, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, carspect.Errorf(carspect.ENOTFOUND, "no cache entry for %q", url)
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Entries returns all cache entries in insertion order.
func (s *CacheService) Entries(ctx context.Context) ([]*carspect.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT url, prompt_tokens, completion_tokens, total_tokens, response_json, created_at
		FROM cache_entries
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*carspect.CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(scan func(dest ...any) error) (*carspect.CacheEntry, error) {
	var entry carspect.CacheEntry
	var recordJSON, createdAt string

	err := scan(&entry.URL, &entry.Usage.PromptTokens, &entry.Usage.CompletionTokens,
		&entry.Usage.TotalTokens, &recordJSON, &createdAt)
	if err != nil {
		return nil, err
	}

	entry.Record = &carspect.FinalRecord{}
	if err := json.Unmarshal([]byte(recordJSON), entry.Record); err != nil {
		return nil, fmt.Errorf("failed to parse cached record: %w", err)
	}

	entry.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &entry, nil
}
