package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"annotator-readmill/internal/domain"
	apperrors "annotator-readmill/pkg/errors"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, fields ...interface{})             {}
func (mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (mockLogger) Debug(msg string, fields ...interface{})            {}
func (mockLogger) Warn(msg string, fields ...interface{})             {}

type failingBackend struct {
	*MemoryBackend
	err error
}

func (f *failingBackend) SetItem(ctx context.Context, key, value string) error {
	return f.err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend, mockLogger{})
	ctx := context.Background()

	s.Set(ctx, domain.AccessTokenKey, domain.AccessToken{Token: "tok123"}, 0)

	raw, found, _ := backend.GetItem(ctx, "annotator.readmill/access-token")
	if !found {
		t.Fatalf("expected prefixed key to be written")
	}
	if strings.Contains(raw, CacheDelimiter) {
		t.Fatalf("record without ttl should have no cache header, got %q", raw)
	}

	var token domain.AccessToken
	ok, err := s.Get(ctx, domain.AccessTokenKey, &token)
	if err != nil || !ok {
		t.Fatalf("expected token, got ok=%v err=%v", ok, err)
	}
	if token.Token != "tok123" {
		t.Fatalf("expected tok123, got %q", token.Token)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := NewStore(NewMemoryBackend(), mockLogger{})
	var v string
	ok, err := s.Get(context.Background(), "missing", &v)
	if ok || err != nil {
		t.Fatalf("expected absent with no error, got ok=%v err=%v", ok, err)
	}
}

func TestStore_ExpiredRecordIsRemoved(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	backend := NewMemoryBackend()
	s := NewStore(backend, mockLogger{}).WithClock(clock.Now)
	ctx := context.Background()

	s.Set(ctx, "k", "v", time.Minute)

	var v string
	if ok, _ := s.Get(ctx, "k", &v); !ok || v != "v" {
		t.Fatalf("expected live record, got ok=%v v=%q", ok, v)
	}

	clock.Advance(2 * time.Minute)

	if ok, _ := s.Get(ctx, "k", &v); ok {
		t.Fatalf("expected expired record to be absent")
	}
	if _, found, _ := backend.GetItem(ctx, prefixed("k")); found {
		t.Fatalf("expected expired record to be removed from backend")
	}
}

func TestStore_DelimiterInsidePayload(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend, mockLogger{})
	ctx := context.Background()

	_ = backend.SetItem(ctx, prefixed("k"), `"a--cache--b"`)

	var v string
	ok, err := s.Get(ctx, "k", &v)
	if err != nil || !ok {
		t.Fatalf("expected value, got ok=%v err=%v", ok, err)
	}
	if v != "a--cache--b" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestStore_DecodeFailure(t *testing.T) {
	backend := NewMemoryBackend()
	s := NewStore(backend, mockLogger{})
	ctx := context.Background()
	_ = backend.SetItem(ctx, prefixed("k"), "{not json")

	var v map[string]string
	_, err := s.Get(ctx, "k", &v)
	if !apperrors.IsType(err, apperrors.ErrorTypeParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestStore_SetFailureNotifiesSubscribers(t *testing.T) {
	boom := errors.New("quota exceeded")
	s := NewStore(&failingBackend{MemoryBackend: NewMemoryBackend(), err: boom}, mockLogger{})

	var (
		gotKey   string
		gotValue string
		gotErr   error
	)
	s.OnError(func(err error, key, value string) {
		gotErr, gotKey, gotValue = err, key, value
	})

	s.Set(context.Background(), "k", "v", 0)

	if !errors.Is(gotErr, boom) {
		t.Fatalf("expected wrapped backend error, got %v", gotErr)
	}
	if !apperrors.IsType(gotErr, apperrors.ErrorTypeStorage) {
		t.Fatalf("expected storage error, got %v", gotErr)
	}
	if gotKey != "k" || gotValue != `"v"` {
		t.Fatalf("unexpected key/value %q %q", gotKey, gotValue)
	}
}

func TestStore_Remove(t *testing.T) {
	s := NewStore(NewMemoryBackend(), mockLogger{})
	ctx := context.Background()
	s.Set(ctx, "k", 1, 0)
	if err := s.Remove(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	var v int
	if ok, _ := s.Get(ctx, "k", &v); ok {
		t.Fatalf("expected key to be gone")
	}
}

func TestBoltBackend_Parity(t *testing.T) {
	backend, err := NewBoltBackend(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	defer backend.Close()

	ctx := context.Background()
	if _, found, err := backend.GetItem(ctx, "k"); found || err != nil {
		t.Fatalf("expected miss, got found=%v err=%v", found, err)
	}
	if err := backend.SetItem(ctx, "k", "v"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if v, found, _ := backend.GetItem(ctx, "k"); !found || v != "v" {
		t.Fatalf("expected v, got %q found=%v", v, found)
	}
	if err := backend.RemoveItem(ctx, "k"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, found, _ := backend.GetItem(ctx, "k"); found {
		t.Fatalf("expected key to be removed")
	}
}

func TestBoltBackend_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.db")
	first, err := NewBoltBackend(path)
	if err != nil {
		t.Fatalf("open bolt: %v", err)
	}
	s := NewStore(first, mockLogger{})
	s.Set(context.Background(), domain.AccessTokenKey, domain.AccessToken{Token: "tok123"}, 0)
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := NewBoltBackend(path)
	if err != nil {
		t.Fatalf("reopen bolt: %v", err)
	}
	defer second.Close()

	var token domain.AccessToken
	ok, err := NewStore(second, mockLogger{}).Get(context.Background(), domain.AccessTokenKey, &token)
	if err != nil || !ok || token.Token != "tok123" {
		t.Fatalf("expected persisted token, got ok=%v err=%v token=%+v", ok, err, token)
	}
}

type backendConfig struct {
	domain.Config
	kind      string
	path      string
	redisAddr string
}

func (c backendConfig) GetStorageBackend() string { return c.kind }
func (c backendConfig) GetStoragePath() string    { return c.path }
func (c backendConfig) GetRedisAddr() string      { return c.redisAddr }
func (c backendConfig) GetRedisDB() int           { return 0 }
func (c backendConfig) GetRedisPassword() string  { return "" }

func TestNewBackend_Selects(t *testing.T) {
	mem, err := NewBackend(backendConfig{kind: "memory"}, mockLogger{})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*MemoryBackend); !ok {
		t.Fatalf("expected memory backend, got %T", mem)
	}

	b, err := NewBackend(backendConfig{kind: "", path: filepath.Join(t.TempDir(), "x.db")}, mockLogger{})
	if err != nil {
		t.Fatalf("bolt: %v", err)
	}
	defer b.Close()
	if _, ok := b.(*BoltBackend); !ok {
		t.Fatalf("expected bolt backend by default, got %T", b)
	}

	if _, err := NewBackend(backendConfig{kind: "floppy"}, mockLogger{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}
