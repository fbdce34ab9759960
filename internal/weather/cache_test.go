package weather

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/attire/internal/db"
)

type mockProvider struct {
	forecast Forecast
	err      error
	calls    int
}

func (m *mockProvider) Forecast(_ context.Context, _, _ float64) (Forecast, error) {
	m.calls++
	return m.forecast, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStore) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (m *mockKVStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) Del(_ context.Context, key string) error {
	delete(m.data, key)
	delete(m.ttls, key)
	return nil
}

func TestCachedProvider_MissPopulatesStore(t *testing.T) {
	inner := &mockProvider{forecast: Forecast{Latitude: 1.25, Elevation: 23, DailyMax: []float64{31}, DailyMin: []float64{25}}}
	ms := newMockKVStore()
	cp := NewCachedProvider(inner, ms, 30*time.Minute, nil, zap.NewNop())

	fc, err := cp.Forecast(context.Background(), 1.3, 103.8)
	if err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}
	if fc.Latitude != 1.25 {
		t.Errorf("forecast latitude = %v, want 1.25", fc.Latitude)
	}
	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1", inner.calls)
	}

	key := "attire:forecast:1.30:103.80"
	if _, ok := ms.data[key]; !ok {
		t.Fatalf("cache key %q not populated; keys: %v", key, ms.data)
	}
	if ms.ttls[key] != 30*time.Minute {
		t.Errorf("cache TTL = %v, want 30m", ms.ttls[key])
	}
}

func TestCachedProvider_HitSkipsInner(t *testing.T) {
	inner := &mockProvider{}
	ms := newMockKVStore()
	cached := Forecast{Latitude: 1.25, Elevation: 23, DailyMax: []float64{31}, DailyMin: []float64{25}}
	data, _ := json.Marshal(cached)
	ms.data["attire:forecast:1.30:103.80"] = data

	cp := NewCachedProvider(inner, ms, 30*time.Minute, nil, zap.NewNop())

	fc, err := cp.Forecast(context.Background(), 1.3, 103.8)
	if err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}
	if fc.Elevation != 23 {
		t.Errorf("forecast elevation = %v, want 23", fc.Elevation)
	}
	if inner.calls != 0 {
		t.Errorf("inner calls = %d, want 0", inner.calls)
	}
}

func TestCachedProvider_NearbyCoordinatesShareCell(t *testing.T) {
	inner := &mockProvider{forecast: Forecast{Latitude: 1.25, Elevation: 23, DailyMax: []float64{31}, DailyMin: []float64{25}}}
	ms := newMockKVStore()
	cp := NewCachedProvider(inner, ms, 30*time.Minute, nil, zap.NewNop())

	if _, err := cp.Forecast(context.Background(), 1.3001, 103.8004); err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}
	if _, err := cp.Forecast(context.Background(), 1.3004, 103.8001); err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}

	if inner.calls != 1 {
		t.Errorf("inner calls = %d, want 1 (second lookup should hit the shared cell)", inner.calls)
	}
}

func TestCachedProvider_CorruptEntryFallsThrough(t *testing.T) {
	inner := &mockProvider{forecast: Forecast{Latitude: 1.25}}
	ms := newMockKVStore()
	ms.data["attire:forecast:1.30:103.80"] = []byte("not json")

	cp := NewCachedProvider(inner, ms, 30*time.Minute, nil, zap.NewNop())

	fc, err := cp.Forecast(context.Background(), 1.3, 103.8)
	if err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}
	if fc.Latitude != 1.25 || inner.calls != 1 {
		t.Errorf("corrupt entry should fall through to inner: fc=%+v calls=%d", fc, inner.calls)
	}
}

func TestCachedProvider_CorruptEntryIsPurged(t *testing.T) {
	inner := &mockProvider{err: errors.New("upstream down")}
	ms := newMockKVStore()
	key := "attire:forecast:1.30:103.80"
	ms.data[key] = []byte("not json")

	cp := NewCachedProvider(inner, ms, 30*time.Minute, nil, zap.NewNop())

	if _, err := cp.Forecast(context.Background(), 1.3, 103.8); err == nil {
		t.Fatal("expected inner error to propagate")
	}
	// The poisoned entry must be gone even though nothing replaced it.
	if _, ok := ms.data[key]; ok {
		t.Error("corrupt cache entry should have been deleted")
	}
}
