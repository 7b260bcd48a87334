package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"annotator-readmill/internal/domain"
)

// DefaultSupabaseTable holds key/value rows.
const DefaultSupabaseTable = "kv_store"

// SupabaseBackend stores items in a `key`/`value`/`updated_at` table through
// PostgREST. key is the primary key, so writes upsert on it.
type SupabaseBackend struct {
	client domain.SupabaseClient
	table  string
}

func NewSupabaseBackend(client domain.SupabaseClient, table string) *SupabaseBackend {
	if table == "" {
		table = DefaultSupabaseTable
	}
	return &SupabaseBackend{client: client, table: table}
}

func (s *SupabaseBackend) GetItem(_ context.Context, key string) (string, bool, error) {
	db := s.client.DB()
	if db == nil {
		return "", false, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := db.From(s.table).
		Select("value", "", false).
		Eq("key", key).
		Limit(1, "").
		Execute()
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}

	var rows []struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return "", false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Value, true, nil
}

func (s *SupabaseBackend) SetItem(_ context.Context, key, value string) error {
	db := s.client.DB()
	if db == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	row := map[string]interface{}{
		"key":        key,
		"value":      value,
		"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if _, _, err := db.From(s.table).Upsert(row, "key", "", "").Execute(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SupabaseBackend) RemoveItem(_ context.Context, key string) error {
	db := s.client.DB()
	if db == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	if _, _, err := db.From(s.table).Delete("", "").Eq("key", key).Execute(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SupabaseBackend) Close() error { return nil }
