package store

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
)

const (
	// KeyPrefix namespaces every key written by the store.
	KeyPrefix = "annotator.readmill/"
	// CacheDelimiter separates the expiry timestamp from the payload.
	CacheDelimiter = "--cache--"
)

// ErrorHandler is notified when a write could not be persisted.
type ErrorHandler func(err error, key, value string)

// Store is a namespaced JSON store with optional per-record expiry.
type Store struct {
	backend domain.StorageBackend
	logger  domain.Logger
	now     func() time.Time

	mu       sync.RWMutex
	handlers []ErrorHandler
}

var _ domain.CredentialStore = (*Store)(nil)

// NewStore creates a store over backend.
func NewStore(backend domain.StorageBackend, logger domain.Logger) *Store {
	return &Store{
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the clock used for expiry checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// OnError subscribes to write failures.
func (s *Store) OnError(h ErrorHandler) {
	s.mu.Lock()
	s.handlers = append(s.handlers, h)
	s.mu.Unlock()
}

// Get decodes the value stored under key into out. An expired record is
// reported as absent and removed.
func (s *Store) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	raw, found, err := s.backend.GetItem(ctx, prefixed(key))
	if err != nil {
		return false, apperrors.NewStorageError("failed to read item", key, err)
	}
	if !found || raw == "" {
		return false, nil
	}

	payload, live := s.checkCache(raw)
	if !live {
		s.logger.Debug("Stored item expired", "key", key)
		if err := s.Remove(ctx, key); err != nil {
			s.logger.Warn("Failed to remove expired item", "key", key, "error", err)
		}
		return false, nil
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, apperrors.NewParseError("failed to decode stored item "+key, err)
	}
	return true, nil
}

// Set stores value under key. A positive ttl makes the record expire. Failures
// are delivered to OnError subscribers instead of being returned.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		s.fail(apperrors.NewStorageError("failed to encode item", key, err), key, "")
		return
	}

	record := string(data)
	if ttl > 0 {
		expiry := s.now().Add(ttl).UnixMilli()
		record = strconv.FormatInt(expiry, 10) + CacheDelimiter + record
	}

	if err := s.backend.SetItem(ctx, prefixed(key), record); err != nil {
		s.fail(apperrors.NewStorageError("failed to write item", key, err), key, record)
	}
}

// Remove deletes key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.backend.RemoveItem(ctx, prefixed(key)); err != nil {
		return apperrors.NewStorageError("failed to remove item", key, err)
	}
	return nil
}

func (s *Store) fail(err error, key, value string) {
	s.logger.Error("Storage write failed", err, "key", key)

	s.mu.RLock()
	handlers := append([]ErrorHandler(nil), s.handlers...)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(err, key, value)
	}
}

// checkCache strips the expiry header from raw. live is false once the expiry
// has passed. A delimiter without a numeric header is part of the payload.
func (s *Store) checkCache(raw string) (payload string, live bool) {
	idx := strings.Index(raw, CacheDelimiter)
	if idx < 0 {
		return raw, true
	}

	expiry, err := strconv.ParseInt(raw[:idx], 10, 64)
	if err != nil {
		return raw, true
	}
	if s.now().UnixMilli() > expiry {
		return "", false
	}
	return raw[idx+len(CacheDelimiter):], true
}

func prefixed(key string) string {
	return KeyPrefix + key
}
